package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/game"
	"github.com/mcoot/moonfall/internal/services/journal"
	"github.com/mcoot/moonfall/internal/stream"
)

// StreamHandler serves live event streams over SSE and WebSocket
type StreamHandler struct {
	gameController *game.Controller
	journal        *journal.Service
	streams        *stream.Manager
	logger         *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(gameController *game.Controller, journal *journal.Service, streams *stream.Manager, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		gameController: gameController,
		journal:        journal,
		streams:        streams,
		logger:         logger,
	}
}

// SSE handles GET /api/v1/games/{code}/stream
func (h *StreamHandler) SSE(w http.ResponseWriter, r *http.Request) {
	hub, playerID, backlog, err := h.prepare(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	stream.ServeSSE(w, r, hub, playerID, backlog)
}

// WS handles GET /api/v1/games/{code}/ws
func (h *StreamHandler) WS(w http.ResponseWriter, r *http.Request) {
	hub, playerID, backlog, err := h.prepare(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	stream.ServeWS(w, r, hub, playerID, backlog, h.logger)
}

// prepare loads the events the client missed since its resume point
func (h *StreamHandler) prepare(r *http.Request) (*stream.Hub, model.PlayerID, []model.Event, error) {
	code := gameCode(r)
	g, err := h.gameController.GetGame(r.Context(), code)
	if err != nil {
		return nil, "", nil, err
	}
	p, err := viewer(r, g)
	if err != nil {
		return nil, "", nil, err
	}

	backlog, err := h.journal.List(r.Context(), g, p, stream.LastEventID(r), 0)
	if err != nil {
		return nil, "", nil, err
	}

	h.logger.Debug("stream client connecting",
		slog.String("game_code", string(code)),
		slog.String("player_id", string(p.ID)),
		slog.Int("backlog", len(backlog)),
	)
	return h.streams.GetOrCreateHub(code), p.ID, backlog, nil
}
