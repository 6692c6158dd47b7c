package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mcoot/moonfall/internal/api/apierr"
	"github.com/mcoot/moonfall/internal/api/request"
	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/bot"
	"github.com/mcoot/moonfall/internal/services/game"
	"github.com/mcoot/moonfall/internal/services/journal"
)

// maxEventsPage bounds one page of the event log
const maxEventsPage = 500

// GameHandler handles endpoints of a running game
type GameHandler struct {
	gameController *game.Controller
	journal        *journal.Service
	botService     *bot.Service
	logger         *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller, journal *journal.Service, botService *bot.Service, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		journal:        journal,
		botService:     botService,
		logger:         logger,
	}
}

// Get handles GET /api/v1/games/{code}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	response.JSON(w, http.StatusOK, response.NewGameResponse(g, p))
}

// ChangePhase handles POST /api/v1/games/{code}/phase
func (h *GameHandler) ChangePhase(w http.ResponseWriter, r *http.Request) {
	var req request.ChangePhaseRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	code := gameCode(r)
	g, err := h.gameController.ChangePhase(r.Context(), code, caller(r), req.Target)
	if err != nil {
		WriteError(w, err)
		return
	}

	if actions := runBots(r.Context(), h.botService, code, h.logger); len(actions) > 0 {
		if refreshed, err := h.gameController.GetGame(r.Context(), code); err == nil {
			g = refreshed
		}
	}

	response.JSON(w, http.StatusOK, response.NewGameResponse(g, g.Player(caller(r))))
}

// CastVote handles POST /api/v1/games/{code}/votes
func (h *GameHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req request.CastVoteRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Type == "" {
		req.Type = model.VoteDay
	}

	g, err := h.gameController.CastVote(r.Context(), gameCode(r), caller(r), req.TargetID, req.Type)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.VoteResponse{
		Success: true,
		Game:    response.GameFromModel(g, g.Player(caller(r))),
	})
}

// Resolve handles POST /api/v1/games/{code}/resolve. Night resolution needs
// every wolf's vote unless force is set.
func (h *GameHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req request.ResolveRequest
	if err := decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	code := gameCode(r)
	result, err := h.gameController.Resolve(r.Context(), code, caller(r), req.Force)
	if err != nil {
		WriteError(w, err)
		return
	}

	var g *model.Game
	switch {
	case result.Night != nil:
		g = result.Night.Game
	case result.Day != nil:
		g = result.Day.Game
	}
	resolver := g.Player(caller(r))

	night := result.Night
	if night != nil && !(resolver.IsModerator && !g.Settings.AutoMode) {
		night = redactNight(night)
	}

	actions := runBots(r.Context(), h.botService, code, h.logger)
	if len(actions) > 0 {
		if refreshed, err := h.gameController.GetGame(r.Context(), code); err == nil {
			g = refreshed
		}
	}

	response.JSON(w, http.StatusOK, response.ResolveResponse{
		Success:    true,
		Night:      night,
		Day:        result.Day,
		Game:       response.GameFromModel(g, resolver),
		BotActions: actions,
	})
}

// UsePower handles POST /api/v1/games/{code}/powers
func (h *GameHandler) UsePower(w http.ResponseWriter, r *http.Request) {
	var req request.UsePowerRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Power == "" {
		WriteError(w, apierr.NewInvalidRequestError("power is required"))
		return
	}

	result, err := h.gameController.UsePower(r.Context(), gameCode(r), caller(r), req.Power, req.Targets)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewPowerResponse(result))
}

// AwardPoints handles POST /api/v1/games/{code}/points
func (h *GameHandler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	var req request.AwardPointsRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.AwardPoints(r.Context(), gameCode(r), caller(r), req.PlayerID, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewGameResponse(g, g.Player(caller(r))))
}

// Purchase handles POST /api/v1/games/{code}/purchases
func (h *GameHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req request.PurchaseRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	purchase, err := h.gameController.Purchase(r.Context(), gameCode(r), caller(r), req.Item)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PurchaseResponse{Success: true, Purchase: *purchase})
}

// Events handles GET /api/v1/games/{code}/events?after=N&limit=M
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	after, limit, err := pageParams(r)
	if err != nil {
		WriteError(w, err)
		return
	}

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

	events, err := h.journal.List(r.Context(), g, p, after, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewEventsResponse(events, after))
}

// Catalog handles GET /api/v1/catalog
func (h *GameHandler) Catalog(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.CatalogResponse{
		Success: true,
		Roles:   model.Roles(),
		Items:   model.Items(),
	})
}

func pageParams(r *http.Request) (after int64, limit int, err error) {
	q := r.URL.Query()
	if v := q.Get("after"); v != "" {
		after, err = strconv.ParseInt(v, 10, 64)
		if err != nil || after < 0 {
			return 0, 0, apierr.NewInvalidRequestError("after must be a non-negative integer")
		}
	}
	limit = maxEventsPage
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, apierr.NewInvalidRequestError("limit must be a positive integer")
		}
		limit = min(limit, maxEventsPage)
	}
	return after, limit, nil
}

// redactNight strips what only the moderator may learn from a night: the
// wolves' tally, whether they split, and a target that was saved. A victim
// who actually died is public anyway.
func redactNight(night *game.NightResult) *game.NightResult {
	redacted := *night
	redacted.Tally = nil
	redacted.Tie = false
	redacted.Saved = false
	if night.Victim == nil || !devoured(night.Deaths, *night.Victim) {
		redacted.Victim = nil
	}
	return &redacted
}

func devoured(deaths []game.Death, id model.PlayerID) bool {
	for _, d := range deaths {
		if d.PlayerID == id && d.Reason == model.DeathDevoured {
			return true
		}
	}
	return false
}
