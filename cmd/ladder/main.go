package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/rating-ladder/internal/api"
	"github.com/terra-clan/rating-ladder/internal/config"
	"github.com/terra-clan/rating-ladder/internal/refresh"
	"github.com/terra-clan/rating-ladder/internal/storage"
	"github.com/terra-clan/rating-ladder/pkg/client"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting rating-ladder",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"catalog", cfg.Catalog.BaseURL,
		"storage", cfg.Storage.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Open progress storage (runs migrations for postgres)
	store, err := storage.Open(initCtx, storage.Config{
		Backend:       cfg.Storage.Backend,
		Path:          cfg.Storage.Path,
		RedisAddress:  cfg.Storage.RedisAddress,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		DSN:           cfg.Storage.DSN,
		MigrationsDir: cfg.Storage.MigrationsDir,
	})
	if err != nil {
		slog.Error("failed to open storage", "error", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	slog.Info("storage opened", "backend", cfg.Storage.Backend)

	catalog := client.NewClient(cfg.Catalog.BaseURL, client.WithTimeout(cfg.Catalog.Timeout))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start distribution refresher
	refresher := refresh.NewRefresher(catalog, cfg.Refresh.Interval)
	if err := refresher.Start(ctx); err != nil {
		slog.Error("failed to start distribution refresher", "error", err)
		os.Exit(1)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Storage:        store,
		Catalog:        catalog,
		Distribution:   refresher,
		SearchDebounce: cfg.Browser.SearchDebounce,
	})
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	httpServer.RegisterOnShutdown(server.CloseSessions)

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// sessions still write progress until their cleanup is done
	if err := server.WaitSessions(shutdownCtx); err != nil {
		slog.Error("view sessions did not drain", "error", err)
	}

	if err := refresher.Stop(); err != nil {
		slog.Error("refresher stop error", "error", err)
	}

	if err := store.Close(); err != nil {
		slog.Error("storage close error", "error", err)
	}

	slog.Info("rating-ladder stopped")
}
