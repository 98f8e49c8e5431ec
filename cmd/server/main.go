package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/importme/internal/config"
	"github.com/JonMunkholm/importme/internal/core"
	_ "github.com/JonMunkholm/importme/internal/core/schemas" // Register built-in schemas
	"github.com/JonMunkholm/importme/internal/logging"
	"github.com/JonMunkholm/importme/internal/store"
	"github.com/JonMunkholm/importme/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists; real environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_enabled", cfg.Database.Enabled(),
		"parse_max_concurrent", cfg.Parse.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("configuration", "config", cfg.String())

	ctx := context.Background()

	svcCfg := core.ServiceConfig{
		Limiter: core.NewParseLimiter(cfg.Parse.MaxConcurrent, cfg.Parse.MaxWaitTime),
		Timeout: cfg.Parse.Timeout,
		Logger:  logger,
	}

	if cfg.Database.Enabled() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runs := store.New(pool)
		if err := runs.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		svcCfg.Runs = runs
	} else {
		logger.Info("DATABASE_URL not set, parse runs will not be stored")
	}

	service := core.NewService(svcCfg)

	logger.Info("schemas registered",
		"count", core.SchemaCount(),
		"groups", len(core.Groups()),
	)
	for _, schema := range core.All() {
		logger.Debug("schema", "group", schema.Group, "key", schema.Key, "columns", len(schema.Config.Columns))
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests, then wait for in-flight parses.
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}

		if status := service.Limiter().Status(); status.Active > 0 {
			logger.Info("waiting for parses to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				logger.Warn("parses did not complete in time", "error", err)
			} else {
				logger.Info("all parses completed")
			}
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	logger.Info("server stopped")
}

// connect opens and verifies the connection pool.
func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	return pool, nil
}
