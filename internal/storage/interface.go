package storage

import (
	"context"

	"github.com/mcoot/moonfall/internal/model"
)

// Storage defines the interface for data persistence.
//
// Games are stored as whole aggregates. SaveGame is an optimistic claim: it
// succeeds only if the stored version still equals game.Version, and on
// success it bumps game.Version. A stale save fails with
// model.ErrVersionConflict.
type Storage interface {
	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, code model.GameCode) (*model.Game, error)
	SaveGame(ctx context.Context, game *model.Game) error
	DeleteGame(ctx context.Context, code model.GameCode) error
	GameExists(ctx context.Context, code model.GameCode) (bool, error)

	// Event log operations. Appends are idempotent per sequence number.
	AppendEvents(ctx context.Context, code model.GameCode, events []model.Event) error
	ListEvents(ctx context.Context, code model.GameCode, afterSeq int64, limit int) ([]model.Event, error)
}
