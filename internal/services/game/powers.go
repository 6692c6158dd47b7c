package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/moonfall/internal/model"
)

// PowerInvocation is one attempt to use a role power. It is passed through
// the power's guards and target rules before its effect runs.
type PowerInvocation struct {
	Game      *model.Game
	Actor     *model.Player
	Power     model.Power
	TargetIDs []model.PlayerID
	Targets   []*model.Player
	Now       time.Time

	// Result is returned to the caller and stored on the power use
	Result map[string]any
	Deaths []Death
	Winner model.Faction
}

// Guard checks a precondition of an invocation
type Guard func(inv *PowerInvocation) error

// TargetRule checks one target. A non-empty return is the rejection reason.
type TargetRule func(inv *PowerInvocation, target *model.Player) string

// Effect applies a validated invocation to the game
type Effect func(inv *PowerInvocation)

type powerHandler struct {
	guards []Guard
	rules  []TargetRule
	effect Effect
}

// PowerResult is returned from UsePower
type PowerResult struct {
	Use    model.PowerUse `json:"use"`
	Deaths []Death        `json:"deaths,omitempty"`
	Winner model.Faction  `json:"winner,omitempty"`
	Game   *model.Game    `json:"-"`
}

// standardGuards apply to every power used by a living player
var standardGuards = []Guard{usablePhase, holdsRole, actorAlive, withinGameLimit, oncePerPhase, firstNightOnly, targetCount}

var handlers = map[model.PowerID]powerHandler{
	model.PowerSeerReveal: {
		guards: standardGuards,
		rules:  []TargetRule{targetAlive, targetNotModerator, targetNotSelf},
		effect: seerReveal,
	},
	model.PowerWitchSave: {
		guards: standardGuards,
		effect: func(inv *PowerInvocation) {},
	},
	model.PowerWitchPoison: {
		guards: standardGuards,
		rules:  []TargetRule{targetAlive, targetNotModerator, targetNotSelf},
		effect: func(inv *PowerInvocation) {},
	},
	model.PowerBodyguardProtect: {
		guards: standardGuards,
		rules:  []TargetRule{targetAlive, targetNotModerator, notPreviousProtection},
		effect: func(inv *PowerInvocation) {},
	},
	model.PowerCupidLink: {
		guards: standardGuards,
		rules:  []TargetRule{targetAlive, targetNotModerator},
		effect: cupidLink,
	},
	model.PowerHunterShot: {
		guards: []Guard{usablePhase, holdsRole, actorNewlyDead, withinGameLimit, targetCount},
		rules:  []TargetRule{targetAlive, targetNotModerator, targetNotSelf},
		effect: hunterShot,
	},
	model.PowerWildChildModel: {
		guards: standardGuards,
		rules:  []TargetRule{targetAlive, targetNotModerator, targetNotSelf},
		effect: wildChildModel,
	},
	model.PowerTricksterSwap: {
		guards: standardGuards,
		rules:  []TargetRule{targetAlive, targetNotModerator, targetNotSelf},
		effect: tricksterSwap,
	},
}

// UsePower validates and applies a role power, recording it in the power
// use ledger
func (c *Controller) UsePower(ctx context.Context, code model.GameCode, actor model.PlayerID, power model.PowerID, targets []model.PlayerID) (*PowerResult, error) {
	def, ok := model.LookupPower(power)
	if !ok {
		return nil, model.ErrPowerNotFound
	}
	handler, ok := handlers[power]
	if !ok {
		return nil, model.ErrPowerNotFound
	}

	var result *PowerResult
	game, err := c.mutate(ctx, code, func(g *model.Game, now time.Time) error {
		p := g.Player(actor)
		if p == nil {
			return model.ErrPlayerNotFound
		}
		if !g.Participates(p) {
			return model.ErrNotParticipating
		}

		inv := &PowerInvocation{
			Game:      g,
			Actor:     p,
			Power:     def,
			TargetIDs: targets,
			Now:       now,
			Result:    map[string]any{},
		}
		if err := handler.run(inv); err != nil {
			return err
		}

		use := model.PowerUse{
			ID:      uuid.NewString(),
			Actor:   p.ID,
			Power:   power,
			Targets: append([]model.PlayerID(nil), targets...),
			Phase:   g.Phase,
			Result:  inv.Result,
			UsedAt:  now,
		}
		g.PowerUses = append(g.PowerUses, use)

		payload := map[string]any{
			"power":   power,
			"targets": use.Targets,
		}
		for k, v := range inv.Result {
			payload[k] = v
		}
		g.Record(now, model.EventPowerUsed, def.Visibility, p.ID, payload)

		result = &PowerResult{Use: use, Deaths: inv.Deaths, Winner: inv.Winner}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Game = game

	c.logger.Info("power used",
		slog.String("game_code", string(code)),
		slog.String("power", string(power)),
		slog.Int("phase", game.Phase),
	)
	return result, nil
}

func (h powerHandler) run(inv *PowerInvocation) error {
	for _, guard := range h.guards {
		if err := guard(inv); err != nil {
			return err
		}
	}

	seen := make(map[model.PlayerID]bool, len(inv.TargetIDs))
	inv.Targets = make([]*model.Player, 0, len(inv.TargetIDs))
	for _, id := range inv.TargetIDs {
		if seen[id] {
			return h.reject(inv, "targets must be distinct")
		}
		seen[id] = true

		target := inv.Game.Player(id)
		if target == nil {
			return h.reject(inv, fmt.Sprintf("player %s not found", id))
		}
		for _, rule := range h.rules {
			if reason := rule(inv, target); reason != "" {
				return h.reject(inv, reason)
			}
		}
		inv.Targets = append(inv.Targets, target)
	}

	h.effect(inv)
	return nil
}

// reject builds a TargetError listing every player the rules would accept
func (h powerHandler) reject(inv *PowerInvocation, reason string) error {
	var valid []model.PlayerID
	for i := range inv.Game.Players {
		candidate := &inv.Game.Players[i]
		ok := true
		for _, rule := range h.rules {
			if rule(inv, candidate) != "" {
				ok = false
				break
			}
		}
		if ok {
			valid = append(valid, candidate.ID)
		}
	}
	return &model.TargetError{Reason: reason, ValidTargets: valid}
}

// Guards

func usablePhase(inv *PowerInvocation) error {
	if inv.Power.NightOnly && inv.Game.Status != model.StatusNight {
		return model.ErrWrongPhase
	}
	if !inv.Game.IsActive() {
		return model.ErrWrongPhase
	}
	return nil
}

func holdsRole(inv *PowerInvocation) error {
	if inv.Actor.Role != inv.Power.Role {
		return model.ErrWrongRole
	}
	return nil
}

func actorAlive(inv *PowerInvocation) error {
	if !inv.Actor.Alive {
		return model.ErrPlayerDead
	}
	return nil
}

func actorNewlyDead(inv *PowerInvocation) error {
	if !newlyDead(inv.Game, inv.Actor) {
		return fmt.Errorf("%w: %s can only be used right after dying", model.ErrPreconditionFailed, inv.Power.ID)
	}
	return nil
}

func withinGameLimit(inv *PowerInvocation) error {
	limit := inv.Power.UsesPerGame
	if limit > 0 && len(inv.Game.PowerUsesBy(inv.Actor.ID, inv.Power.ID)) >= limit {
		return model.ErrPowerUsed
	}
	return nil
}

func oncePerPhase(inv *PowerInvocation) error {
	if !inv.Power.OncePerPhase {
		return nil
	}
	for _, use := range inv.Game.PowerUsesIn(inv.Game.Phase, inv.Power.ID) {
		if use.Actor == inv.Actor.ID {
			return model.ErrPowerUsed
		}
	}
	return nil
}

func firstNightOnly(inv *PowerInvocation) error {
	if inv.Power.FirstNightOnly && (inv.Game.Phase != 1 || inv.Game.Status != model.StatusNight) {
		return fmt.Errorf("%w: %s is only available on the first night", model.ErrWrongPhase, inv.Power.ID)
	}
	return nil
}

func targetCount(inv *PowerInvocation) error {
	if len(inv.TargetIDs) != inv.Power.Targets {
		return &model.TargetError{Reason: fmt.Sprintf("%s takes %d target(s), got %d", inv.Power.ID, inv.Power.Targets, len(inv.TargetIDs))}
	}
	return nil
}

// Target rules

func targetAlive(inv *PowerInvocation, target *model.Player) string {
	if !target.Alive {
		return "target is dead"
	}
	return ""
}

func targetNotModerator(inv *PowerInvocation, target *model.Player) string {
	if !inv.Game.Participates(target) {
		return "target is not playing"
	}
	return ""
}

func targetNotSelf(inv *PowerInvocation, target *model.Player) string {
	if target.ID == inv.Actor.ID {
		return "cannot target yourself"
	}
	return ""
}

// notPreviousProtection stops a bodyguard guarding the same player on
// consecutive phases
func notPreviousProtection(inv *PowerInvocation, target *model.Player) string {
	for _, use := range inv.Game.PowerUsesBy(inv.Actor.ID, model.PowerBodyguardProtect) {
		if use.Phase == inv.Game.Phase-1 && len(use.Targets) > 0 && use.Targets[0] == target.ID {
			return "cannot protect the same player two phases in a row"
		}
	}
	return ""
}

// Effects

func seerReveal(inv *PowerInvocation) {
	target := inv.Targets[0]
	inv.Result["target_id"] = target.ID
	inv.Result["role"] = target.Role
	inv.Result["team"] = target.Team()
}

func cupidLink(inv *PowerInvocation) {
	a, b := inv.Targets[0], inv.Targets[1]
	a.LoverID = b.ID
	b.LoverID = a.ID
}

func wildChildModel(inv *PowerInvocation) {
	inv.Actor.ModelID = inv.Targets[0].ID
}

func tricksterSwap(inv *PowerInvocation) {
	a, b := inv.Targets[0], inv.Targets[1]
	a.Role, b.Role = b.Role, a.Role
}

func hunterShot(inv *PowerInvocation) {
	g := inv.Game
	inv.Deaths = kill(g, inv.Targets[0], model.DeathShot, model.EventPlayerShot, inv.Now)
	if len(inv.Deaths) > 0 {
		inv.Winner = checkVictory(g, inv.Now)
	}
}
