package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/storage"
)

// Supported database kinds
const (
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

// Config holds SQL connection settings
type Config struct {
	// Kind is "postgres" or "sqlite"
	Kind string
	// DSN is a postgres connection URL or a sqlite file path
	DSN string

	MaxOpenConns int
}

// Storage is a SQL implementation of the storage interface. Game aggregates
// are stored as JSON documents next to an indexed version column.
type Storage struct {
	db *sqlx.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open connects to the database and applies migrations
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	var driver, dialect string
	switch cfg.Kind {
	case KindPostgres:
		driver, dialect = "pgx", "postgres"
	case KindSQLite:
		driver, dialect = "sqlite3", "sqlite3"
	default:
		return nil, fmt.Errorf("unknown sql storage kind %q", cfg.Kind)
	}

	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Kind, err)
	}

	switch {
	case cfg.Kind == KindSQLite:
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := Migrate(ctx, db.DB, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

type gameRow struct {
	Code    string `db:"code"`
	Version int64  `db:"version"`
	State   string `db:"state"`
}

type eventRow struct {
	Seq  int64  `db:"seq"`
	Data string `db:"data"`
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	saved := *game
	saved.Version = 1
	state, err := json.Marshal(&saved)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO games (code, id, name, status, version, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code) DO NOTHING`),
		string(game.Code), game.ID, game.Name, string(game.Status), saved.Version, string(state),
		game.CreatedAt.UTC(), game.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrGameCodeTaken
	}
	game.Version = 1
	return nil
}

func (s *Storage) GetGame(ctx context.Context, code model.GameCode) (*model.Game, error) {
	var row gameRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT code, version, state FROM games WHERE code = ?`), string(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		return nil, fmt.Errorf("select game: %w", err)
	}

	var game model.Game
	if err := json.Unmarshal([]byte(row.State), &game); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", row.Code, err)
	}
	game.Version = row.Version
	return &game, nil
}

// SaveGame is a conditional update on the version column. Zero affected rows
// means the game is gone or another writer got there first.
func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	expected := game.Version
	saved := *game
	saved.Version = expected + 1
	state, err := json.Marshal(&saved)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE games
		SET name = ?, status = ?, version = ?, state = ?, updated_at = ?
		WHERE code = ? AND version = ?`),
		game.Name, string(game.Status), saved.Version, string(state), game.UpdatedAt.UTC(),
		string(game.Code), expected,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists, err := s.GameExists(ctx, game.Code)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrGameNotFound
		}
		return model.ErrVersionConflict
	}

	game.Version = expected + 1
	return nil
}

func (s *Storage) DeleteGame(ctx context.Context, code model.GameCode) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM game_events WHERE game_code = ?`), string(code)); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM games WHERE code = ?`), string(code)); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return tx.Commit()
}

func (s *Storage) GameExists(ctx context.Context, code model.GameCode) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM games WHERE code = ?`), string(code))
	if err != nil {
		return false, fmt.Errorf("count games: %w", err)
	}
	return n > 0, nil
}

// Event log operations

func (s *Storage) AppendEvents(ctx context.Context, code model.GameCode, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`
		INSERT INTO game_events (game_code, seq, type, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (game_code, seq) DO NOTHING`)
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, string(code), e.Seq, string(e.Type), string(data), e.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) ListEvents(ctx context.Context, code model.GameCode, afterSeq int64, limit int) ([]model.Event, error) {
	query := `SELECT seq, data FROM game_events WHERE game_code = ? AND seq > ? ORDER BY seq`
	args := []any{string(code), afterSeq}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}

	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		var e model.Event
		if err := json.Unmarshal([]byte(row.Data), &e); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", row.Seq, err)
		}
		events = append(events, e)
	}
	return events, nil
}
