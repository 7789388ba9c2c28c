package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/healthsync/internal/client/pairing"
	"github.com/iudanet/healthsync/internal/server/middleware"
	"github.com/iudanet/healthsync/internal/validation"
	"github.com/iudanet/healthsync/pkg/api"
)

const (
	maxControlBody = 1 << 10
	eventsBuffer   = 32
)

// controlHandler локальный API агента для CLI: статус, вход, сопряжение,
// тренировки и поток событий хоста.
type controlHandler struct {
	s        *Session
	upgrader websocket.Upgrader
}

func newControlHandler(s *Session) http.Handler {
	h := &controlHandler{s: s}

	mux := http.NewServeMux()
	mux.Handle("GET /wear", s.hub)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /agent/status", h.status)
	mux.HandleFunc("POST /agent/login", h.login)
	mux.HandleFunc("POST /agent/pair", h.pair)
	mux.HandleFunc("POST /agent/unpair", h.unpair)
	mux.HandleFunc("POST /agent/session/start", h.startSession)
	mux.HandleFunc("POST /agent/session/stop", h.stopSession)
	mux.HandleFunc("GET /agent/events", h.events)

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(s.logger, []string{"/metrics", "/agent/status"})(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)
	return handler
}

func (h *controlHandler) status(w http.ResponseWriter, r *http.Request) {
	conn := h.s.arbiter.ConnectionState()

	resp := api.AgentStatus{
		State:               h.s.arbiter.State().String(),
		Present:             conn.Present,
		PairedActive:        conn.PairedActive,
		AuthoritativeSource: string(h.s.arbiter.AuthoritativeSource()),
		Sampling:            h.s.arbiter.SamplingEnabled(),
		SensorAvailable:     h.s.counter.Available(),
		UserID:              h.s.protocol.UserID(),
		PendingSessions:     len(h.s.protocol.PendingSessions()),
		Nodes:               []api.AgentNode{},
	}

	nodes, err := h.s.hub.ConnectedNodes(r.Context())
	if err == nil {
		for _, n := range nodes {
			resp.Nodes = append(resp.Nodes, api.AgentNode{ID: n.ID, DisplayName: n.DisplayName})
		}
	}
	if rec, ok := h.s.guard.Baseline(); ok {
		doc := api.FromRecord(rec)
		resp.Baseline = &doc
	}

	h.sendJSON(w, resp, http.StatusOK)
}

func (h *controlHandler) decodeLogin(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req api.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxControlBody)).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	if err := validation.ValidateUserID(req.UserID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return req.UserID, true
}

func (h *controlHandler) login(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}
	if err := h.s.Login(r.Context(), userID); err != nil {
		h.s.logger.Error("Login failed", "error", err)
		h.sendError(w, "failed to save user id", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *controlHandler) pair(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}
	res, err := h.s.Pair(r.Context(), userID)
	h.sendBroadcast(w, res, err)
}

func (h *controlHandler) unpair(w http.ResponseWriter, r *http.Request) {
	if err := h.s.Unpair(r.Context()); err != nil {
		h.s.logger.Error("Unpair failed", "error", err)
		h.sendError(w, "failed to unpair", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *controlHandler) startSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.s.StartSession(r.Context())
	h.sendBroadcast(w, res, err)
}

func (h *controlHandler) stopSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.s.StopSession(r.Context())
	h.sendBroadcast(w, res, err)
}

// sendBroadcast отвечает результатами по узлам. Недоставка ни одному
// узлу - 502 с тем же телом, чтобы CLI показал ошибки по узлам.
func (h *controlHandler) sendBroadcast(w http.ResponseWriter, res pairing.PairResult, err error) {
	resp := api.BroadcastResponse{
		Nodes:     make([]api.NodeOutcome, 0, len(res.Nodes)),
		Delivered: res.Delivered(),
	}
	for _, n := range res.Nodes {
		out := api.NodeOutcome{NodeID: n.NodeID, Attempts: n.Attempts}
		if n.Err != nil {
			out.Error = n.Err.Error()
		}
		resp.Nodes = append(resp.Nodes, out)
	}

	switch {
	case err == nil:
		h.sendJSON(w, resp, http.StatusOK)
	case errors.Is(err, pairing.ErrSendFailed):
		h.sendJSON(w, resp, http.StatusBadGateway)
	default:
		h.s.logger.Error("Broadcast failed", "error", err)
		h.sendError(w, err.Error(), http.StatusInternalServerError)
	}
}

// events отдаёт события хоста через websocket
func (h *controlHandler) events(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.s.logger.Warn("Events upgrade failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ch, cancel := h.s.bus.Subscribe(eventsBuffer)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func (h *controlHandler) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *controlHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Error: http.StatusText(statusCode), Message: message}, statusCode)
}
