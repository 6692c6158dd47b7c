package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/game"
)

// Action records one ballot a bot cast
type Action struct {
	PlayerID model.PlayerID  `json:"player_id"`
	Type     model.VoteType  `json:"type"`
	Target   *model.PlayerID `json:"target_id"`
}

// Service makes bot players act after the game changes phase
type Service struct {
	gameController *game.Controller
	strategies     map[string]Strategy
	fallback       string
	logger         *slog.Logger
}

// NewService creates a new bot Service. Bots whose strategy is unknown use
// the random strategy.
func NewService(gameController *game.Controller, strategies map[string]Strategy, logger *slog.Logger) *Service {
	return &Service{
		gameController: gameController,
		strategies:     strategies,
		fallback:       model.BotStrategyRandom,
		logger:         logger.With(slog.String("component", "bot-service")),
	}
}

// ProcessBots casts a ballot for every living bot that has not voted in the
// current phase: wolves at night, everyone by day and at council. It
// returns the actions taken.
func (s *Service) ProcessBots(ctx context.Context, code model.GameCode) ([]Action, error) {
	g, err := s.gameController.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}

	var voteType model.VoteType
	switch g.Status {
	case model.StatusNight:
		voteType = model.VoteNightWolf
	case model.StatusDay, model.StatusCouncil:
		voteType = model.VoteDay
	default:
		return nil, nil
	}

	voted := make(map[model.PlayerID]bool)
	for _, v := range g.VotesFor(g.Phase, voteType) {
		voted[v.Voter] = true
	}

	var actions []Action
	for _, p := range g.LivingParticipants() {
		if !p.IsBot || voted[p.ID] {
			continue
		}
		if voteType == model.VoteNightWolf && p.Team() != model.FactionWolves {
			continue
		}

		candidates := game.ValidVoteTargets(g, p, voteType)
		target := s.strategyFor(p).ChooseVote(g, p, voteType, candidates)
		if target == nil && voteType == model.VoteNightWolf {
			continue
		}

		if _, err := s.gameController.CastVote(ctx, code, p.ID, target, voteType); err != nil {
			// The game moved on underneath us; later bots would fail too
			if errors.Is(err, model.ErrPreconditionFailed) {
				s.logger.Debug("bot vote rejected",
					slog.String("game_code", string(code)),
					slog.String("bot_id", string(p.ID)),
					slog.String("error", err.Error()),
				)
				break
			}
			return actions, err
		}
		actions = append(actions, Action{PlayerID: p.ID, Type: voteType, Target: target})
	}

	if len(actions) > 0 {
		s.logger.Info("bots voted",
			slog.String("game_code", string(code)),
			slog.String("type", string(voteType)),
			slog.Int("count", len(actions)),
		)
	}
	return actions, nil
}

func (s *Service) strategyFor(p *model.Player) Strategy {
	if st, ok := s.strategies[p.BotStrategy]; ok {
		return st
	}
	return s.strategies[s.fallback]
}
