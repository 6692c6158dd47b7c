package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	games  map[model.GameCode]*model.Game
	events map[model.GameCode][]model.Event
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games:  make(map[model.GameCode]*model.Game),
		events: make(map[model.GameCode][]model.Event),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[game.Code]; ok {
		return model.ErrGameCodeTaken
	}
	game.Version = 1
	s.games[game.Code] = game.Clone()
	return nil
}

func (s *Storage) GetGame(ctx context.Context, code model.GameCode) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[code]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.games[game.Code]
	if !ok {
		return model.ErrGameNotFound
	}
	if stored.Version != game.Version {
		return model.ErrVersionConflict
	}
	game.Version++
	s.games[game.Code] = game.Clone()
	return nil
}

func (s *Storage) DeleteGame(ctx context.Context, code model.GameCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, code)
	delete(s.events, code)
	return nil
}

func (s *Storage) GameExists(ctx context.Context, code model.GameCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.games[code]
	return ok, nil
}

// Event log operations

func (s *Storage) AppendEvents(ctx context.Context, code model.GameCode, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.events[code]
	seen := make(map[int64]struct{}, len(log))
	for _, e := range log {
		seen[e.Seq] = struct{}{}
	}
	for _, e := range events {
		if _, ok := seen[e.Seq]; ok {
			continue
		}
		seen[e.Seq] = struct{}{}
		log = append(log, e)
	}
	sort.Slice(log, func(i, j int) bool { return log[i].Seq < log[j].Seq })
	s.events[code] = log
	return nil
}

func (s *Storage) ListEvents(ctx context.Context, code model.GameCode, afterSeq int64, limit int) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Event
	for _, e := range s.events[code] {
		if e.Seq <= afterSeq {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
