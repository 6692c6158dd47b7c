package handler

import (
	"log/slog"
	"net/http"

	"github.com/skip2/go-qrcode"

	"github.com/mcoot/moonfall/internal/api/middleware"
	"github.com/mcoot/moonfall/internal/api/request"
	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/auth"
	"github.com/mcoot/moonfall/internal/services/bot"
	"github.com/mcoot/moonfall/internal/services/lobby"
)

// qrSize is the edge length in pixels of join QR codes
const qrSize = 256

// LobbyHandler handles game setup endpoints
type LobbyHandler struct {
	lobbyController *lobby.Controller
	authService     *auth.Service
	botService      *bot.Service
	publicURL       string
	logger          *slog.Logger
}

// NewLobbyHandler creates a new lobby handler. publicURL is the base of the
// join links encoded in QR codes.
func NewLobbyHandler(lobbyController *lobby.Controller, authService *auth.Service, botService *bot.Service, publicURL string, logger *slog.Logger) *LobbyHandler {
	return &LobbyHandler{
		lobbyController: lobbyController,
		authService:     authService,
		botService:      botService,
		publicURL:       publicURL,
		logger:          logger,
	}
}

// Create handles POST /api/v1/games
func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	m, err := h.lobbyController.CreateGame(r.Context(), lobby.CreateGameParams{
		Name:          req.Name,
		ModeratorName: req.ModeratorName,
		Password:      req.Password,
		Settings:      req.Settings,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.NewSessionResponse(m.Game, &m.Player, m.Session))
}

// Join handles POST /api/v1/games/{code}/players
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinGameRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	m, err := h.lobbyController.JoinGame(r.Context(), gameCode(r), req.DisplayName, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.NewSessionResponse(m.Game, &m.Player, m.Session))
}

// Leave handles DELETE /api/v1/games/{code}/players/me
func (h *LobbyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if _, err := h.lobbyController.LeaveGame(r.Context(), gameCode(r), caller(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.OK(w)
}

// Logout handles DELETE /api/v1/games/{code}/session
func (h *LobbyHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.InvalidateSession(middleware.MustGetSession(r.Context()).Token)
	response.OK(w)
}

// UpdateSettings handles PATCH /api/v1/games/{code}/settings
func (h *LobbyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	code := gameCode(r)
	current, err := h.lobbyController.GetGame(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Fields missing from the body keep their current values
	settings := current.Settings
	if err := decode(r, &settings, false); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.lobbyController.UpdateSettings(r.Context(), code, caller(r), settings)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewGameResponse(g, g.Player(caller(r))))
}

// AddBot handles POST /api/v1/games/{code}/bots
func (h *LobbyHandler) AddBot(w http.ResponseWriter, r *http.Request) {
	var req request.AddBotRequest
	if err := decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	code := gameCode(r)
	p, err := h.lobbyController.AddBot(r.Context(), code, caller(r), req.Strategy)
	if err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.lobbyController.GetGame(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.BotResponse{
		Success: true,
		Bot:     response.PlayerFromModel(g, g.Player(caller(r)), p),
	})
}

// RemoveBots handles DELETE /api/v1/games/{code}/bots
func (h *LobbyHandler) RemoveBots(w http.ResponseWriter, r *http.Request) {
	removed, err := h.lobbyController.RemoveBots(r.Context(), gameCode(r), caller(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RemovedResponse{Success: true, Removed: removed})
}

// RemoveBot handles DELETE /api/v1/games/{code}/bots/{player_id}
func (h *LobbyHandler) RemoveBot(w http.ResponseWriter, r *http.Request) {
	botID := model.PlayerID(muxVar(r, "player_id"))
	if err := h.lobbyController.RemoveBot(r.Context(), gameCode(r), caller(r), botID); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RemovedResponse{Success: true, Removed: 1})
}

// Start handles POST /api/v1/games/{code}/start
func (h *LobbyHandler) Start(w http.ResponseWriter, r *http.Request) {
	code := gameCode(r)
	g, err := h.lobbyController.StartGame(r.Context(), code, caller(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	if actions := runBots(r.Context(), h.botService, code, h.logger); len(actions) > 0 {
		if refreshed, err := h.lobbyController.GetGame(r.Context(), code); err == nil {
			g = refreshed
		}
	}

	response.JSON(w, http.StatusOK, response.NewGameResponse(g, g.Player(caller(r))))
}

// QR handles GET /api/v1/games/{code}/qr
func (h *LobbyHandler) QR(w http.ResponseWriter, r *http.Request) {
	code := gameCode(r)
	if _, err := h.lobbyController.GetGame(r.Context(), code); err != nil {
		WriteError(w, err)
		return
	}

	png, err := qrcode.Encode(h.publicURL+"/join/"+string(code), qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("qr encoding failed",
			slog.String("game_code", string(code)),
			slog.String("error", err.Error()),
		)
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
