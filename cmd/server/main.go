// server exposes the personal-data pattern analysis engine over HTTP:
// batch analysis, feedback, stored results, rendered reports, and a
// WebSocket feed of completed analyses.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"personal-insights/internal/analysis"
	"personal-insights/internal/api"
	"personal-insights/internal/config"
	"personal-insights/internal/learning"
	"personal-insights/internal/logging"
	"personal-insights/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level)).WithComponent("server")

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var source storage.EventSource
	if cfg.Storage.Postgres.Enabled {
		pg, err := storage.NewPostgresEventSource(cfg.Storage.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect event source: %w", err)
		}
		defer func() { _ = pg.Close() }()
		source = pg
	}

	orchestrator, err := analysis.NewOrchestrator(analysis.Options{
		ClusterSeed:       cfg.Analysis.ClusterSeed,
		ClusterK:          cfg.Analysis.ClusterK,
		PredictionHorizon: cfg.Analysis.PredictionHorizon,
		Workers:           cfg.Analysis.Workers,
		Logger:            logger.WithComponent("analysis"),
	})
	if err != nil {
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}

	profiles := learning.NewStore()
	server := api.NewServer(cfg, orchestrator, profiles, store, source, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.Hub().Run(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// buildStore assembles the result store, wrapping it in the Redis
// cache when configured.
func buildStore(cfg *config.Config) (storage.AnalysisStore, error) {
	sqlite, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}

	if !cfg.Storage.Redis.Enabled {
		return sqlite, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	ttl := time.Duration(cfg.Storage.Redis.TTLMinutes) * time.Minute
	return storage.NewCachedStore(sqlite, client, ttl), nil
}
