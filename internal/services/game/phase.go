package game

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/moonfall/internal/dependencies/random"
	"github.com/mcoot/moonfall/internal/model"
)

// MinPlayers is the smallest number of participants a game can start with
const MinPlayers = 3

// transitions lists the statuses a moderator may move a game to
var transitions = map[model.Status][]model.Status{
	model.StatusLobby:   {model.StatusNight},
	model.StatusNight:   {model.StatusDay},
	model.StatusDay:     {model.StatusCouncil},
	model.StatusCouncil: {model.StatusNight, model.StatusEnded},
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to model.Status) bool {
	return slices.Contains(transitions[from], to)
}

// AllowedTransitions returns the statuses reachable from a status
func AllowedTransitions(from model.Status) []model.Status {
	return slices.Clone(transitions[from])
}

// StartGame assigns roles and moves the game from lobby to the first night
func (c *Controller) StartGame(ctx context.Context, code model.GameCode, actor model.PlayerID) (*model.Game, error) {
	game, err := c.mutate(ctx, code, func(g *model.Game, now time.Time) error {
		if _, err := requireModerator(g, actor); err != nil {
			return err
		}
		if g.Status != model.StatusLobby {
			return model.ErrGameAlreadyStarted
		}
		return c.start(g, now)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("game_code", string(code)),
		slog.Int("player_count", len(game.Participants())),
	)
	return game, nil
}

// ChangePhase moves the game along the transition table. Only the moderator
// may change phase.
func (c *Controller) ChangePhase(ctx context.Context, code model.GameCode, actor model.PlayerID, target model.Status) (*model.Game, error) {
	game, err := c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if _, err := requireModerator(g, actor); err != nil {
			return err
		}
		if !CanTransition(g.Status, target) {
			return &model.TransitionError{From: g.Status, To: target}
		}

		switch {
		case g.Status == model.StatusLobby:
			return c.start(g, now)
		case target == model.StatusEnded:
			finish(g, Evaluate(g.Players, g.Settings.AutoMode), now)
		default:
			enterPhase(g, target, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("phase changed",
		slog.String("game_code", string(code)),
		slog.String("status", string(game.Status)),
		slog.Int("phase", game.Phase),
	)
	return game, nil
}

// RoleQuota returns the roles dealt to n participants before shuffling
func RoleQuota(n int, extras []model.RoleID) []model.RoleID {
	wolves := max(1, n/3)
	roles := make([]model.RoleID, 0, n)
	for i := 0; i < wolves; i++ {
		roles = append(roles, model.RoleWerewolf)
	}
	if n > 3 {
		roles = append(roles, model.RoleSeer)
	}
	for _, extra := range extras {
		if len(roles) >= n {
			break
		}
		roles = append(roles, extra)
	}
	for len(roles) < n {
		roles = append(roles, model.RoleVillager)
	}
	return roles
}

// start deals roles and enters the first night
func (c *Controller) start(g *model.Game, now time.Time) error {
	players := g.Participants()
	if len(players) < MinPlayers {
		return model.ErrInsufficientPlayers
	}

	roles := RoleQuota(len(players), g.Settings.ExtraRoles)
	random.Shuffle(c.random, len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, p := range players {
		p.Role = roles[i]
		p.Alive = true
	}

	g.Status = model.StatusNight
	g.Phase = 1
	g.Deadline = nil

	g.Record(now, model.EventGameStarted, model.VisibilityPublic, "", map[string]any{
		"player_count": len(players),
	})
	g.Record(now, model.EventPhaseChanged, model.VisibilityPublic, "", map[string]any{
		"from":     model.StatusLobby,
		"to":       model.StatusNight,
		"phase":    g.Phase,
		"deadline": nil,
	})
	for _, p := range players {
		g.Record(now, model.EventRoleAssigned, model.VisibilityActor, p.ID, map[string]any{
			"role": p.Role,
			"team": p.Team(),
		})
	}
	return nil
}

// enterPhase moves an active game to the next status. Entering night from
// council starts a new phase number.
func enterPhase(g *model.Game, to model.Status, now time.Time) {
	from := g.Status
	if from == model.StatusCouncil && to == model.StatusNight {
		g.Phase++
	}
	g.Status = to

	g.Deadline = nil
	if d := g.Settings.PhaseDuration(to); d > 0 {
		deadline := now.Add(d)
		g.Deadline = &deadline
	}

	var deadline any
	if g.Deadline != nil {
		deadline = *g.Deadline
	}
	g.Record(now, model.EventPhaseChanged, model.VisibilityPublic, "", map[string]any{
		"from":     from,
		"to":       to,
		"phase":    g.Phase,
		"deadline": deadline,
	})
}

// finish ends the game. It is reachable from any active phase when the
// victory evaluator declares a winner, and from council by the moderator.
func finish(g *model.Game, winner model.Faction, now time.Time) {
	from := g.Status
	g.Status = model.StatusEnded
	g.Winner = winner
	g.Deadline = nil
	g.EndedAt = &now

	g.Record(now, model.EventPhaseChanged, model.VisibilityPublic, "", map[string]any{
		"from":     from,
		"to":       model.StatusEnded,
		"phase":    g.Phase,
		"deadline": nil,
	})

	roles := make(map[string]any, len(g.Players))
	for _, p := range g.Participants() {
		roles[string(p.ID)] = p.Role
	}
	g.Record(now, model.EventGameEnded, model.VisibilityPublic, "", map[string]any{
		"winner": winner,
		"roles":  roles,
	})
}

// checkVictory ends the game if a faction has won and reports the winner
func checkVictory(g *model.Game, now time.Time) model.Faction {
	winner := Evaluate(g.Players, g.Settings.AutoMode)
	if winner != model.FactionNone {
		finish(g, winner, now)
	}
	return winner
}
