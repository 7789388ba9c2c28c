package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/healthsync/internal/models"
	"github.com/iudanet/healthsync/internal/server/storage"
	"github.com/iudanet/healthsync/internal/validation"
	"github.com/iudanet/healthsync/pkg/api"
)

const (
	maxUpdateBody     = 4 << 10
	feedBuffer        = 16
	feedWriteTimeout  = 10 * time.Second
	defaultHeartLimit = 50
	maxHeartRateLimit = 1000
)

// LiveStorage хранилище документов live_data и истории пульса
type LiveStorage interface {
	storage.LiveDataStorage
	storage.HeartRateStorage
}

// FeedBroker рассылает закоммиченные документы подписчикам ленты
type FeedBroker interface {
	Publish(userID string, rec models.LiveHealthRecord)
	Subscribe(userID string, buffer int) (<-chan models.LiveHealthRecord, func())
}

// LiveHandler обслуживает users/{userID}/live_data
type LiveHandler struct {
	logger   *slog.Logger
	storage  LiveStorage
	feed     FeedBroker
	upgrader websocket.Upgrader
}

// NewLiveHandler создает handler документов live_data
func NewLiveHandler(logger *slog.Logger, storage LiveStorage, feed FeedBroker) *LiveHandler {
	return &LiveHandler{
		logger:  logger,
		storage: storage,
		feed:    feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Агент не браузер, Origin не проверяем
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// userID извлекает и проверяет {userID} из пути запроса
func (h *LiveHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.PathValue("userID")
	if err := validation.ValidateUserID(userID); err != nil {
		h.logger.Warn("Invalid user id", "user_id", userID, "error", err)
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

// Get обрабатывает GET /api/v1/users/{userID}/live_data
func (h *LiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rec, err := h.storage.GetLiveData(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrLiveDataNotFound) {
			sendError(h.logger, w, "live data not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get live data", "error", err, "user_id", userID)
		sendError(h.logger, w, "failed to get live data", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.FromRecord(*rec), http.StatusOK)
}

// Update обрабатывает PATCH /api/v1/users/{userID}/live_data
// Отсутствующие в теле поля сохраняют текущее значение документа.
func (h *LiveHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var upd api.LiveDataUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		h.logger.Warn("Failed to decode live data update", "error", err, "user_id", userID)
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := upd.Validate(); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.storage.UpdateLiveData(r.Context(), userID, upd.Patch())
	if err != nil {
		h.logger.Error("Failed to update live data", "error", err, "user_id", userID)
		sendError(h.logger, w, "failed to update live data", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Live data updated",
		"user_id", userID,
		"revision", rec.Revision,
		"steps", rec.Steps,
		"source", rec.Source,
	)

	h.feed.Publish(userID, *rec)
	sendJSON(h.logger, w, api.FromRecord(*rec), http.StatusOK)
}

// HeartRate обрабатывает GET /api/v1/users/{userID}/heart_rate?limit=N
func (h *LiveHandler) HeartRate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	limit := defaultHeartLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > maxHeartRateLimit {
			sendError(h.logger, w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	samples, err := h.storage.HeartRateHistory(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to get heart rate history", "error", err, "user_id", userID)
		sendError(h.logger, w, "failed to get heart rate history", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.FromHeartRateSamples(samples), http.StatusOK)
}

// Feed обрабатывает GET /api/v1/users/{userID}/live_data/feed (websocket).
// Сначала отправляется текущий документ, затем каждый новый в порядке ревизий.
func (h *LiveHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	// Подписываемся до чтения документа, чтобы не потерять запись между ними
	updates, cancelSub := h.feed.Subscribe(userID, feedBuffer)
	defer cancelSub()

	current, err := h.storage.GetLiveData(r.Context(), userID)
	if err != nil && !errors.Is(err, storage.ErrLiveDataNotFound) {
		h.logger.Error("Failed to get live data for feed", "error", err, "user_id", userID)
		sendError(h.logger, w, "failed to get live data", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже отправил ответ клиенту
		h.logger.Warn("Feed upgrade failed", "error", err, "user_id", userID)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Читаем входящие кадры только для обнаружения закрытия соединения
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info("Feed subscriber connected", "user_id", userID, "remote_addr", r.RemoteAddr)

	var lastRevision int64
	if current != nil {
		if err := h.writeDoc(conn, *current); err != nil {
			h.logger.Debug("Feed write failed", "error", err, "user_id", userID)
			return
		}
		lastRevision = current.Revision
	}

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Feed subscriber disconnected", "user_id", userID)
			return
		case rec, ok := <-updates:
			if !ok {
				// Брокер отключил медленного подписчика
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "feed overflow"),
					time.Now().Add(time.Second))
				return
			}
			if rec.Revision <= lastRevision {
				continue
			}
			if err := h.writeDoc(conn, rec); err != nil {
				h.logger.Debug("Feed write failed", "error", err, "user_id", userID)
				return
			}
			lastRevision = rec.Revision
		}
	}
}

func (h *LiveHandler) writeDoc(conn *websocket.Conn, rec models.LiveHealthRecord) error {
	if err := conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(api.FromRecord(rec))
}
