package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/moonfall/internal/dependencies/clock"
	"github.com/mcoot/moonfall/internal/dependencies/random"
	"github.com/mcoot/moonfall/internal/metrics"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/storage"
)

// EventSink receives the events of a mutation once it has committed
type EventSink interface {
	Publish(ctx context.Context, code model.GameCode, events []model.Event)
}

// Controller owns the game rules: phase transitions, votes, powers,
// resolution and victory. Every mutation runs as one optimistic update of
// the game aggregate.
type Controller struct {
	storage storage.Storage
	events  EventSink
	metrics *metrics.Metrics
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new game Controller. events and m may be nil.
func NewController(
	storage storage.Storage,
	events EventSink,
	m *metrics.Metrics,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		events:  events,
		metrics: m,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "game")),
	}
}

// GetGame retrieves a game by code
func (c *Controller) GetGame(ctx context.Context, code model.GameCode) (*model.Game, error) {
	return c.storage.GetGame(ctx, code)
}

// mutate applies fn to a game that has not ended
func (c *Controller) mutate(ctx context.Context, code model.GameCode, fn func(g *model.Game, now time.Time) error) (*model.Game, error) {
	return c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if g.Status == model.StatusEnded {
			return model.ErrGameEnded
		}
		return fn(g, now)
	})
}

// update applies fn through storage.Update and publishes the recorded events
// after the commit. fn may run more than once if the save races another
// writer, so it must only touch the game it is given.
func (c *Controller) update(ctx context.Context, code model.GameCode, fn func(g *model.Game, now time.Time) error) (*model.Game, error) {
	game, err := storage.Update(ctx, c.storage, code, func(g *model.Game) error {
		now := c.clock.Now()
		if err := fn(g, now); err != nil {
			return err
		}
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.events != nil {
		c.events.Publish(ctx, game.Code, game.DrainEvents())
	} else {
		game.DrainEvents()
	}
	return game, nil
}

// requireModerator returns the acting player if they are the moderator
func requireModerator(g *model.Game, actor model.PlayerID) (*model.Player, error) {
	p := g.Player(actor)
	if p == nil {
		return nil, model.ErrPlayerNotFound
	}
	if !p.IsModerator {
		return nil, model.ErrNotModerator
	}
	return p, nil
}

// requireResolver allows the moderator, or any participant in auto mode
func requireResolver(g *model.Game, actor model.PlayerID) (*model.Player, error) {
	p := g.Player(actor)
	if p == nil {
		return nil, model.ErrPlayerNotFound
	}
	if p.IsModerator || (g.Settings.AutoMode && g.Participates(p)) {
		return p, nil
	}
	return nil, model.ErrNotModerator
}

// requireLivingParticipant returns the acting player if they can play
func requireLivingParticipant(g *model.Game, actor model.PlayerID) (*model.Player, error) {
	p := g.Player(actor)
	if p == nil {
		return nil, model.ErrPlayerNotFound
	}
	if !g.Participates(p) {
		return nil, model.ErrNotParticipating
	}
	if !p.Alive {
		return nil, model.ErrPlayerDead
	}
	return p, nil
}
