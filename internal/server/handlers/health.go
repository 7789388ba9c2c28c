package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/healthsync/pkg/api"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger *slog.Logger
	db     Pinger
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, db Pinger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		db:     db,
	}
}

// Health обрабатывает GET /api/v1/health
// Возвращает 503, если база данных недоступна
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := api.HealthResponse{
		Status:   "ok",
		Database: "ok",
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("Database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	sendJSON(h.logger, w, resp, status)
}
