// Package journal writes committed game events to the event log and fans
// them out to live subscribers.
package journal

import (
	"context"
	"log/slog"

	"github.com/mcoot/moonfall/internal/metrics"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/storage"
)

// Broadcaster delivers events to connected clients
type Broadcaster interface {
	Broadcast(code model.GameCode, events []model.Event)
}

// Service appends events after the game mutation that produced them has
// committed. Append failures are logged and counted but never returned: the
// game state is already saved and is the source of truth.
type Service struct {
	storage     storage.Storage
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates a journal. broadcaster and m may be nil.
func New(storage storage.Storage, broadcaster Broadcaster, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		storage:     storage,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger.With(slog.String("component", "journal")),
	}
}

var deathReasons = map[model.EventType]model.DeathReason{
	model.EventWolfKill:         model.DeathDevoured,
	model.EventPlayerPoisoned:   model.DeathPoisoned,
	model.EventPlayerHeartbreak: model.DeathHeartbreak,
	model.EventPlayerEliminated: model.DeathVote,
	model.EventPlayerShot:       model.DeathShot,
}

// Publish records and broadcasts events
func (s *Service) Publish(ctx context.Context, code model.GameCode, events []model.Event) {
	if len(events) == 0 {
		return
	}

	if err := s.storage.AppendEvents(ctx, code, events); err != nil {
		s.metrics.EventAppendFailed()
		s.logger.Warn("failed to append events",
			slog.String("game_code", string(code)),
			slog.Int64("first_seq", events[0].Seq),
			slog.Int("count", len(events)),
			slog.String("error", err.Error()),
		)
	} else {
		s.metrics.EventsWritten(len(events))
	}

	s.observe(events)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(code, events)
	}
}

func (s *Service) observe(events []model.Event) {
	for _, e := range events {
		switch e.Type {
		case model.EventGameCreated:
			s.metrics.GameCreated()
		case model.EventPhaseChanged:
			from, _ := e.Payload["from"].(model.Status)
			to, _ := e.Payload["to"].(model.Status)
			s.metrics.PhaseTransition(from, to)
		case model.EventPowerUsed:
			power, _ := e.Payload["power"].(model.PowerID)
			s.metrics.PowerUsed(power)
		default:
			if reason, ok := deathReasons[e.Type]; ok {
				s.metrics.Death(reason)
			}
		}
	}
}

// List returns events after the given sequence number that the viewer may see
func (s *Service) List(ctx context.Context, game *model.Game, viewer *model.Player, afterSeq int64, limit int) ([]model.Event, error) {
	events, err := s.storage.ListEvents(ctx, game.Code, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	visible := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.VisibleTo(viewer, game.Settings.AutoMode) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}
