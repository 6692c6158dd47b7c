package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/moonfall/internal/api"
	"github.com/mcoot/moonfall/internal/config"
	"github.com/mcoot/moonfall/internal/factory"
	"github.com/mcoot/moonfall/internal/services/auth"
	redisstorage "github.com/mcoot/moonfall/internal/storage/redis"
	"github.com/mcoot/moonfall/internal/storage/sqlstore"
)

const cleanupInterval = 5 * time.Minute

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	envFile := flag.String("env", ".env", "Path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate has already checked the level
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing application", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		LobbyController: app.LobbyController,
		GameController:  app.GameController,
		BotService:      app.BotService,
		Journal:         app.Journal,
		StreamManager:   app.StreamManager,
		Metrics:         app.Metrics,
		PublicURL:       cfg.Server.PublicURL,
		CORSOrigins:     cfg.Server.CORSOrigins,
		ServeMetrics:    cfg.Server.Metrics,
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)
	// Open streams would otherwise hold Shutdown until its timeout
	server.OnShutdown(app.StreamManager.Close)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		return server.Shutdown(context.Background())
	})

	g.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				sessions := app.AuthService.CleanExpiredSessions()
				hubs := app.StreamManager.CleanupEmptyHubs()
				logger.Debug("periodic cleanup",
					slog.Int("expired_sessions", sessions),
					slog.Int("empty_hubs", hubs))
			}
		}
	})

	logger.Info("moonfall server configured",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
		slog.String("public_url", cfg.Server.PublicURL))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		AuthConfig:  auth.Config{SessionDuration: cfg.Auth.SessionTTL},
		Logger:      logger,
		StorageType: cfg.Storage.Type,
		Seed:        cfg.Game.Seed,
	}

	switch cfg.Storage.Type {
	case factory.StorageTypeRedis:
		fc.RedisConfig = &redisstorage.Config{
			URL:          cfg.Storage.Redis.URL,
			PoolSize:     cfg.Storage.Redis.PoolSize,
			MinIdleConns: cfg.Storage.Redis.MinIdleConns,
			GameTTL:      cfg.Storage.Redis.GameTTL,
			EventTTL:     cfg.Storage.Redis.EventTTL,
		}
	case factory.StorageTypePostgres, factory.StorageTypeSQLite:
		fc.SQLConfig = &sqlstore.Config{
			Kind:         cfg.Storage.Type,
			DSN:          cfg.Storage.SQL.DSN,
			MaxOpenConns: cfg.Storage.SQL.MaxOpenConns,
		}
	}
	return fc
}
