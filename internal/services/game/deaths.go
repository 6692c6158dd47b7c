package game

import (
	"time"

	"github.com/mcoot/moonfall/internal/model"
)

// Death describes one player death caused by a resolution or power
type Death struct {
	PlayerID model.PlayerID    `json:"player_id"`
	Reason   model.DeathReason `json:"reason"`
	Role     model.RoleID      `json:"role"`
}

// kill marks a player dead, records the given public event and runs the
// death cascades: a linked lover dies of heartbreak and a wild child whose
// model died joins the wolves. Dead players are left untouched, so a player
// dies at most once.
func kill(g *model.Game, p *model.Player, reason model.DeathReason, eventType model.EventType, now time.Time) []Death {
	if p == nil || !p.Alive {
		return nil
	}

	p.Alive = false
	p.DeathReason = reason
	p.DiedAt = &now
	p.DiedPhase = g.Phase
	p.DiedStatus = g.Status

	g.Record(now, eventType, model.VisibilityPublic, p.ID, map[string]any{
		"player_id": p.ID,
		"reason":    reason,
		"role":      p.Role,
	})
	deaths := []Death{{PlayerID: p.ID, Reason: reason, Role: p.Role}}

	for i := range g.Players {
		child := &g.Players[i]
		if child.Alive && child.Role == model.RoleWildChild && child.ModelID == p.ID {
			child.Role = model.RoleWerewolf
			g.Record(now, model.EventWildChildTurned, model.VisibilityWolves, child.ID, map[string]any{
				"player_id": child.ID,
				"model_id":  p.ID,
			})
		}
	}

	if p.LoverID != "" {
		deaths = append(deaths, kill(g, g.Player(p.LoverID), model.DeathHeartbreak, model.EventPlayerHeartbreak, now)...)
	}

	return deaths
}

// newlyDead reports whether a dead player died in the current phase number.
// A player eliminated by the council keeps the window into the night that
// follows it.
func newlyDead(g *model.Game, p *model.Player) bool {
	if p.Alive || p.DiedAt == nil {
		return false
	}
	if p.DiedPhase == g.Phase {
		return true
	}
	return g.Status == model.StatusNight &&
		p.DiedPhase == g.Phase-1 &&
		p.DiedStatus == model.StatusCouncil
}
