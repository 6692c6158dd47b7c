package game

import (
	"context"

	"github.com/mcoot/moonfall/internal/model"
)

// ResolveResult holds whichever resolution ran
type ResolveResult struct {
	Night *NightResult `json:"night,omitempty"`
	Day   *DayResult   `json:"day,omitempty"`
}

// Resolve runs night or council resolution depending on the current status
func (c *Controller) Resolve(ctx context.Context, code model.GameCode, actor model.PlayerID, force bool) (*ResolveResult, error) {
	game, err := c.storage.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}

	switch game.Status {
	case model.StatusNight:
		night, err := c.ResolveNight(ctx, code, actor, force)
		if err != nil {
			return nil, err
		}
		return &ResolveResult{Night: night}, nil
	case model.StatusCouncil:
		day, err := c.ResolveDay(ctx, code, actor)
		if err != nil {
			return nil, err
		}
		return &ResolveResult{Day: day}, nil
	case model.StatusEnded:
		return nil, model.ErrGameEnded
	default:
		return nil, model.ErrWrongPhase
	}
}
