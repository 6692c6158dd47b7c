package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/mcoot/moonfall/internal/api/handler"
	"github.com/mcoot/moonfall/internal/api/middleware"
	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/metrics"
	basemiddleware "github.com/mcoot/moonfall/internal/middleware"
	"github.com/mcoot/moonfall/internal/services/auth"
	"github.com/mcoot/moonfall/internal/services/bot"
	"github.com/mcoot/moonfall/internal/services/game"
	"github.com/mcoot/moonfall/internal/services/journal"
	"github.com/mcoot/moonfall/internal/services/lobby"
	"github.com/mcoot/moonfall/internal/stream"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	LobbyController *lobby.Controller
	GameController  *game.Controller
	BotService      *bot.Service
	Journal         *journal.Service
	StreamManager   *stream.Manager
	Metrics         *metrics.Metrics

	// PublicURL is the base of join links in QR codes
	PublicURL string
	// CORSOrigins lists the origins allowed to call the API
	CORSOrigins []string
	// ServeMetrics exposes /metrics when Metrics is set
	ServeMetrics bool
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	lobbyHandler := handler.NewLobbyHandler(cfg.LobbyController, cfg.AuthService, cfg.BotService, cfg.PublicURL, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.Journal, cfg.BotService, cfg.Logger)
	playerHandler := handler.NewPlayerHandler(cfg.GameController)
	streamHandler := handler.NewStreamHandler(cfg.GameController, cfg.Journal, cfg.StreamManager, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := basemiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(cfg.Metrics.Middleware)

	// Public routes
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/catalog", gameHandler.Catalog).Methods(http.MethodGet)
	api.HandleFunc("/games", lobbyHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games/{code}/players", lobbyHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/games/{code}/qr", lobbyHandler.QR).Methods(http.MethodGet)

	// Routes requiring a session for the game in the path
	games := api.PathPrefix("/games/{code}").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/players/me", playerHandler.Me).Methods(http.MethodGet)
	games.HandleFunc("/players/me", lobbyHandler.Leave).Methods(http.MethodDelete)
	games.HandleFunc("/session", lobbyHandler.Logout).Methods(http.MethodDelete)
	games.HandleFunc("/settings", lobbyHandler.UpdateSettings).Methods(http.MethodPatch)
	games.HandleFunc("/bots", lobbyHandler.AddBot).Methods(http.MethodPost)
	games.HandleFunc("/bots", lobbyHandler.RemoveBots).Methods(http.MethodDelete)
	games.HandleFunc("/bots/{player_id}", lobbyHandler.RemoveBot).Methods(http.MethodDelete)
	games.HandleFunc("/start", lobbyHandler.Start).Methods(http.MethodPost)

	games.HandleFunc("/phase", gameHandler.ChangePhase).Methods(http.MethodPost)
	games.HandleFunc("/votes", gameHandler.CastVote).Methods(http.MethodPost)
	games.HandleFunc("/resolve", gameHandler.Resolve).Methods(http.MethodPost)
	games.HandleFunc("/powers", gameHandler.UsePower).Methods(http.MethodPost)
	games.HandleFunc("/points", gameHandler.AwardPoints).Methods(http.MethodPost)
	games.HandleFunc("/purchases", gameHandler.Purchase).Methods(http.MethodPost)
	games.HandleFunc("/events", gameHandler.Events).Methods(http.MethodGet)

	games.HandleFunc("/stream", streamHandler.SSE).Methods(http.MethodGet)
	games.HandleFunc("/ws", streamHandler.WS).Methods(http.MethodGet)

	if cfg.ServeMetrics && cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// CORS wraps the router so preflight requests never need a route
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID", basemiddleware.RequestIDHeader},
		ExposedHeaders: []string{basemiddleware.RequestIDHeader},
		MaxAge:         300,
	})(r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
