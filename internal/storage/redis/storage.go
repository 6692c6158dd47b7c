package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	saved := *game
	saved.Version = 1
	data, err := json.Marshal(&saved)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, gameKey(game.Code), data, s.cfg.GameTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrGameCodeTaken
	}
	game.Version = 1
	return nil
}

func (s *Storage) GetGame(ctx context.Context, code model.GameCode) (*model.Game, error) {
	data, err := s.client.Get(ctx, gameKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// SaveGame watches the game key, compares versions and writes inside
// MULTI/EXEC. A concurrent write to the key aborts the transaction.
func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	key := gameKey(game.Code)
	expected := game.Version

	saved := *game
	saved.Version = expected + 1
	data, err := json.Marshal(&saved)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrGameNotFound
			}
			return err
		}

		var stored struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(current, &stored); err != nil {
			return err
		}
		if stored.Version != expected {
			return model.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.cfg.GameTTL)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrVersionConflict
	}
	if err != nil {
		return err
	}

	game.Version = expected + 1
	return nil
}

func (s *Storage) DeleteGame(ctx context.Context, code model.GameCode) error {
	return s.client.Del(ctx, gameKey(code), eventIndexKey(code), eventDataKey(code)).Err()
}

func (s *Storage) GameExists(ctx context.Context, code model.GameCode) (bool, error) {
	n, err := s.client.Exists(ctx, gameKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Event log operations

func (s *Storage) AppendEvents(ctx context.Context, code model.GameCode, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	indexKey := eventIndexKey(code)
	dataKey := eventDataKey(code)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			field := strconv.FormatInt(e.Seq, 10)
			pipe.HSetNX(ctx, dataKey, field, data)
			pipe.ZAddNX(ctx, indexKey, redis.Z{Score: float64(e.Seq), Member: field})
		}
		if s.cfg.EventTTL > 0 {
			pipe.Expire(ctx, dataKey, s.cfg.EventTTL)
			pipe.Expire(ctx, indexKey, s.cfg.EventTTL)
		}
		return nil
	})
	return err
}

func (s *Storage) ListEvents(ctx context.Context, code model.GameCode, afterSeq int64, limit int) ([]model.Event, error) {
	rangeBy := &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", afterSeq),
		Max: "+inf",
	}
	if limit > 0 {
		rangeBy.Count = int64(limit)
	}

	seqs, err := s.client.ZRangeByScore(ctx, eventIndexKey(code), rangeBy).Result()
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, nil
	}

	values, err := s.client.HMGet(ctx, eventDataKey(code), seqs...).Result()
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var e model.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
