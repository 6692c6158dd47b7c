package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/moonfall/internal/dependencies/clock"
	"github.com/mcoot/moonfall/internal/dependencies/random"
	"github.com/mcoot/moonfall/internal/metrics"
	"github.com/mcoot/moonfall/internal/services/auth"
	"github.com/mcoot/moonfall/internal/services/bot"
	"github.com/mcoot/moonfall/internal/services/game"
	"github.com/mcoot/moonfall/internal/services/journal"
	"github.com/mcoot/moonfall/internal/services/lobby"
	"github.com/mcoot/moonfall/internal/storage"
	"github.com/mcoot/moonfall/internal/storage/memory"
	redisstorage "github.com/mcoot/moonfall/internal/storage/redis"
	"github.com/mcoot/moonfall/internal/storage/sqlstore"
	"github.com/mcoot/moonfall/internal/stream"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Observability
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Services
	Journal         *journal.Service
	GameController  *game.Controller
	LobbyController *lobby.Controller
	AuthService     *auth.Service
	BotService      *bot.Service
	StreamManager   *stream.Manager

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend (memory, redis, postgres or sqlite)
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds the database DSN (required for postgres and sqlite)
	SQLConfig *sqlstore.Config
	// Seed makes game randomness reproducible when non-zero
	Seed uint64
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var rnd random.Random = random.New()
	if cfg.Seed != 0 {
		rnd = random.NewSeeded(cfg.Seed)
		logger.Warn("using seeded randomness", slog.Uint64("seed", cfg.Seed))
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(store, clock.New(), rnd, metrics.New(), authCfg, logger)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, io.Closer, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case StorageTypePostgres, StorageTypeSQLite:
		if cfg.SQLConfig == nil {
			return nil, nil, fmt.Errorf("SQLConfig required when StorageType is %s", storageType)
		}
		sqlCfg := *cfg.SQLConfig
		sqlCfg.Kind = storageType
		store, err := sqlstore.Open(ctx, sqlCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, postgres or sqlite", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	m *metrics.Metrics,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	streamManager := stream.NewManager(store, m, logger)
	journalService := journal.New(store, streamManager, m, logger)
	authService := auth.New(clk, authCfg)
	gameController := game.NewController(store, journalService, m, clk, rnd, logger)
	lobbyController := lobby.NewController(store, gameController, journalService, authService, clk, rnd, logger)
	botService := bot.NewService(gameController, bot.DefaultStrategies(rnd), logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Metrics:         m,
		Logger:          logger,
		Journal:         journalService,
		GameController:  gameController,
		LobbyController: lobbyController,
		AuthService:     authService,
		BotService:      botService,
		StreamManager:   streamManager,
	}
}

// Close stops streams and releases storage connections
func (a *App) Close() error {
	a.StreamManager.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
