// Package storagetest holds a behavioural test suite shared by every storage
// backend.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/storage"
)

// Suite exercises the storage.Storage contract. Backends embed it and set
// Storage in their SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

func newGame(code model.GameCode) *model.Game {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &model.Game{
		ID:     "game-" + string(code),
		Code:   code,
		Name:   "Full Moon",
		Status: model.StatusLobby,
		Players: []model.Player{
			{ID: "p1", DisplayName: "Alice", IsModerator: true, Alive: true, JoinedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Context returns the suite context, defaulting to Background
func (s *Suite) Context() context.Context {
	if s.Ctx == nil {
		return context.Background()
	}
	return s.Ctx
}

func (s *Suite) TestCreateAndGetGame() {
	game := newGame("ABC234")
	s.Require().NoError(s.Storage.CreateGame(s.Context(), game))
	s.Equal(int64(1), game.Version)

	got, err := s.Storage.GetGame(s.Context(), "ABC234")
	s.Require().NoError(err)
	s.Equal(game.ID, got.ID)
	s.Equal(model.StatusLobby, got.Status)
	s.Equal(int64(1), got.Version)
	s.Require().Len(got.Players, 1)
	s.Equal("Alice", got.Players[0].DisplayName)
}

func (s *Suite) TestCreateGameCodeTaken() {
	s.Require().NoError(s.Storage.CreateGame(s.Context(), newGame("ABC234")))
	err := s.Storage.CreateGame(s.Context(), newGame("ABC234"))
	s.ErrorIs(err, model.ErrGameCodeTaken)
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Context(), "NOPE22")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestSaveGameBumpsVersion() {
	game := newGame("ABC234")
	s.Require().NoError(s.Storage.CreateGame(s.Context(), game))

	loaded, err := s.Storage.GetGame(s.Context(), "ABC234")
	s.Require().NoError(err)
	loaded.Status = model.StatusNight
	loaded.Phase = 1
	s.Require().NoError(s.Storage.SaveGame(s.Context(), loaded))
	s.Equal(int64(2), loaded.Version)

	got, err := s.Storage.GetGame(s.Context(), "ABC234")
	s.Require().NoError(err)
	s.Equal(model.StatusNight, got.Status)
	s.Equal(1, got.Phase)
	s.Equal(int64(2), got.Version)
}

func (s *Suite) TestSaveGameStaleVersion() {
	s.Require().NoError(s.Storage.CreateGame(s.Context(), newGame("ABC234")))

	first, err := s.Storage.GetGame(s.Context(), "ABC234")
	s.Require().NoError(err)
	second, err := s.Storage.GetGame(s.Context(), "ABC234")
	s.Require().NoError(err)

	first.Name = "first"
	s.Require().NoError(s.Storage.SaveGame(s.Context(), first))

	second.Name = "second"
	err = s.Storage.SaveGame(s.Context(), second)
	s.ErrorIs(err, model.ErrVersionConflict)
	s.Equal(int64(1), second.Version)

	got, err := s.Storage.GetGame(s.Context(), "ABC234")
	s.Require().NoError(err)
	s.Equal("first", got.Name)
}

func (s *Suite) TestSaveGameNotFound() {
	game := newGame("ABC234")
	game.Version = 1
	err := s.Storage.SaveGame(s.Context(), game)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestDeleteGame() {
	s.Require().NoError(s.Storage.CreateGame(s.Context(), newGame("ABC234")))
	s.Require().NoError(s.Storage.AppendEvents(s.Context(), "ABC234", []model.Event{{Seq: 1, Type: model.EventGameCreated}}))

	exists, err := s.Storage.GameExists(s.Context(), "ABC234")
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.Storage.DeleteGame(s.Context(), "ABC234"))

	exists, err = s.Storage.GameExists(s.Context(), "ABC234")
	s.Require().NoError(err)
	s.False(exists)

	events, err := s.Storage.ListEvents(s.Context(), "ABC234", 0, 0)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *Suite) TestAppendAndListEvents() {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []model.Event{
		{Seq: 1, GameCode: "ABC234", Type: model.EventGameCreated, Visibility: model.VisibilityPublic, CreatedAt: at},
		{Seq: 2, GameCode: "ABC234", Type: model.EventPlayerJoined, Visibility: model.VisibilityPublic, Actor: "p2", CreatedAt: at},
		{Seq: 3, GameCode: "ABC234", Type: model.EventRoleAssigned, Visibility: model.VisibilityActor, Actor: "p2",
			Payload: map[string]any{"role": "seer"}, CreatedAt: at},
	}
	s.Require().NoError(s.Storage.AppendEvents(s.Context(), "ABC234", events))

	all, err := s.Storage.ListEvents(s.Context(), "ABC234", 0, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(int64(1), all[0].Seq)
	s.Equal(model.EventRoleAssigned, all[2].Type)
	s.Equal("seer", all[2].Payload["role"])

	after, err := s.Storage.ListEvents(s.Context(), "ABC234", 1, 0)
	s.Require().NoError(err)
	s.Require().Len(after, 2)
	s.Equal(int64(2), after[0].Seq)

	limited, err := s.Storage.ListEvents(s.Context(), "ABC234", 0, 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *Suite) TestAppendEventsIdempotent() {
	event := model.Event{Seq: 1, GameCode: "ABC234", Type: model.EventGameCreated, Visibility: model.VisibilityPublic}
	s.Require().NoError(s.Storage.AppendEvents(s.Context(), "ABC234", []model.Event{event}))
	s.Require().NoError(s.Storage.AppendEvents(s.Context(), "ABC234", []model.Event{event, {Seq: 2, Type: model.EventPlayerJoined}}))

	all, err := s.Storage.ListEvents(s.Context(), "ABC234", 0, 0)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *Suite) TestUpdateRetriesOnConflict() {
	s.Require().NoError(s.Storage.CreateGame(s.Context(), newGame("ABC234")))

	calls := 0
	game, err := storage.Update(s.Context(), s.Storage, "ABC234", func(g *model.Game) error {
		calls++
		if calls == 1 {
			// A competing writer commits between our load and save
			other, err := s.Storage.GetGame(s.Context(), "ABC234")
			s.Require().NoError(err)
			other.Name = "competitor"
			s.Require().NoError(s.Storage.SaveGame(s.Context(), other))
		}
		g.Phase++
		return nil
	})
	s.Require().NoError(err)
	s.Equal(2, calls)
	s.Equal(1, game.Phase)
	s.Equal("competitor", game.Name)
	s.Equal(int64(3), game.Version)
}
