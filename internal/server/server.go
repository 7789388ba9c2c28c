// Package server собирает HTTP сервер документов live_data:
// маршруты, middleware, ленту изменений и метрики.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/healthsync/internal/config"
	"github.com/iudanet/healthsync/internal/server/feed"
	"github.com/iudanet/healthsync/internal/server/handlers"
	"github.com/iudanet/healthsync/internal/server/middleware"
	"github.com/iudanet/healthsync/internal/server/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Store хранилище, которое нужно серверу
type Store interface {
	handlers.LiveStorage
}

// NewHandler строит корневой http.Handler
func NewHandler(cfg config.Server, store Store, broker *feed.Broker, logger *slog.Logger) http.Handler {
	health := handlers.NewHealthHandler(logger, store)
	live := handlers.NewLiveHandler(logger, store, broker)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", health.Health)
	mux.HandleFunc("GET /api/v1/users/{userID}/live_data", live.Get)
	mux.HandleFunc("PATCH /api/v1/users/{userID}/live_data", live.Update)
	mux.HandleFunc("GET /api/v1/users/{userID}/live_data/feed", live.Feed)
	mux.HandleFunc("GET /api/v1/users/{userID}/heart_rate", live.HeartRate)
	mux.Handle("GET /metrics", promhttp.Handler())

	// recovery -> logging -> rate limits -> mux
	var h http.Handler = mux
	h = middleware.WriteRateLimitMiddleware(cfg.WriteRate, cfg.WriteWindow, logger)(h)
	h = middleware.RateLimitMiddleware(cfg.RequestRate, time.Minute, logger)(h)
	h = middleware.LoggingWithSkip(logger, []string{"/metrics", "/api/v1/health"})(h)
	h = middleware.RecoveryMiddleware(logger)(h)
	return h
}

// Run открывает базу, запускает сервер и блокируется до отмены ctx
func Run(ctx context.Context, cfg config.Server, logger *slog.Logger) error {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	broker := feed.NewBroker(logger)
	defer broker.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, store, broker, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", cfg.Addr, "db_path", cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	// Закрываем ленты, иначе Shutdown ждёт websocket соединения
	broker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
