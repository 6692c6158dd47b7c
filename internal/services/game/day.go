package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/moonfall/internal/model"
)

// DayResult reports the outcome of a council resolution
type DayResult struct {
	Eliminated   *model.PlayerID        `json:"eliminated,omitempty"`
	RevealedRole model.RoleID           `json:"revealed_role,omitempty"`
	Immune       *model.PlayerID        `json:"immune,omitempty"`
	Tie          bool                   `json:"tie"`
	Tally        map[model.PlayerID]int `json:"tally"`
	DoubleVotes  []model.PlayerID       `json:"double_votes,omitempty"`
	Deaths       []Death                `json:"deaths"`
	Winner       model.Faction          `json:"winner,omitempty"`
	Game         *model.Game            `json:"-"`
}

// ResolveDay tallies the council's votes into at most one elimination, then
// moves to the next night or ends the game
func (c *Controller) ResolveDay(ctx context.Context, code model.GameCode, actor model.PlayerID) (*DayResult, error) {
	var result *DayResult
	game, err := c.mutate(ctx, code, func(g *model.Game, now time.Time) error {
		if _, err := requireResolver(g, actor); err != nil {
			return err
		}
		if g.Status != model.StatusCouncil {
			return model.ErrWrongPhase
		}
		result = resolveDay(g, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Game = game

	outcome := "no_elimination"
	switch {
	case result.Eliminated != nil:
		outcome = "eliminated"
	case result.Immune != nil:
		outcome = "immune"
	}
	c.metrics.Resolution("day", outcome)

	c.logger.Info("council resolved",
		slog.String("game_code", string(code)),
		slog.Int("phase", game.Phase),
		slog.String("outcome", outcome),
		slog.String("winner", string(result.Winner)),
	)
	return result, nil
}

func resolveDay(g *model.Game, now time.Time) *DayResult {
	result := &DayResult{Tally: map[model.PlayerID]int{}}

	for _, v := range g.VotesFor(g.Phase, model.VoteDay) {
		voter := g.Player(v.Voter)
		if voter == nil || !voter.Alive || !g.Participates(voter) || v.Target == nil {
			continue
		}
		target := g.Player(*v.Target)
		if target == nil || !target.Alive || !g.Participates(target) {
			continue
		}

		weight := 1
		if purchase := g.UnusedPurchase(voter.ID, model.ItemDoubleVote); purchase != nil {
			weight = 2
			purchase.Used = true
			purchase.UsedPhase = g.Phase
			result.DoubleVotes = append(result.DoubleVotes, voter.ID)
			g.Record(now, model.EventDoubleVoteUsed, model.VisibilityPublic, voter.ID, map[string]any{
				"player_id": voter.ID,
			})
		}
		result.Tally[target.ID] += weight
	}

	candidates := topCandidates(result.Tally)
	switch {
	case len(candidates) != 1:
		result.Tie = len(candidates) > 1
		g.Record(now, model.EventNoElimination, model.VisibilityPublic, "", map[string]any{
			"tie": result.Tie,
		})
	default:
		candidate := g.Player(candidates[0])
		id := candidate.ID
		if immunity := g.UnusedPurchase(candidate.ID, model.ItemImmunity); immunity != nil {
			immunity.Used = true
			immunity.UsedPhase = g.Phase
			result.Immune = &id
			g.Record(now, model.EventImmunityUsed, model.VisibilityPublic, id, map[string]any{
				"player_id": id,
			})
			break
		}

		result.Eliminated = &id
		result.RevealedRole = candidate.Role
		result.Deaths = kill(g, candidate, model.DeathVote, model.EventPlayerEliminated, now)
	}

	if len(result.Deaths) > 0 {
		result.Winner = checkVictory(g, now)
	}
	if result.Winner == model.FactionNone {
		enterPhase(g, model.StatusNight, now)
	}
	return result
}
