package handler

import (
	"net/http"

	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/game"
)

// PlayerHandler handles endpoints about the calling player
type PlayerHandler struct {
	gameController *game.Controller
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(gameController *game.Controller) *PlayerHandler {
	return &PlayerHandler{
		gameController: gameController,
	}
}

// Me handles GET /api/v1/games/{code}/players/me
func (h *PlayerHandler) Me(w http.ResponseWriter, r *http.Request) {
	g, err := h.gameController.GetGame(r.Context(), gameCode(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	p, err := viewer(r, g)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.MeResponse{
		Success:     true,
		Player:      response.PlayerFromModel(g, p, p),
		VoteTargets: map[model.VoteType][]model.PlayerID{},
	}

	switch {
	case g.Status == model.StatusNight && p.Team() == model.FactionWolves && p.Alive:
		resp.VoteTargets[model.VoteNightWolf] = game.ValidVoteTargets(g, p, model.VoteNightWolf)
	case (g.Status == model.StatusDay || g.Status == model.StatusCouncil) && p.Alive && g.Participates(p):
		resp.VoteTargets[model.VoteDay] = game.ValidVoteTargets(g, p, model.VoteDay)
	}

	if p.IsModerator {
		resp.AllowedTransitions = game.AllowedTransitions(g.Status)
	}

	response.JSON(w, http.StatusOK, resp)
}
