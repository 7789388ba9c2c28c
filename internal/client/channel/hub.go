package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iudanet/healthsync/internal/models"
	"github.com/iudanet/healthsync/internal/validation"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthsync_channel_frames_total",
		Help: "Message channel frames by direction and path",
	}, []string{"direction", "path"})

	connectedNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "healthsync_channel_connected_nodes",
		Help: "Number of companion nodes connected to the hub",
	})
)

const (
	// defaultWriteTimeout используется, если у контекста нет дедлайна
	defaultWriteTimeout = 5 * time.Second
	maxFrameSize        = 64 * 1024
)

// Handler обрабатывает входящее сообщение узла
type Handler func(ctx context.Context, msg Message)

// PresenceHook вызывается при подключении и отключении узла
type PresenceHook func(ctx context.Context, node models.Node, connected bool)

type nodeConn struct {
	ws      *websocket.Conn
	node    models.Node
	writeMu sync.Mutex
}

func (c *nodeConn) write(ctx context.Context, frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	return c.ws.WriteJSON(frame)
}

// Hub принимает websocket подключения часов и реализует Channel.
// Один узел - одно подключение; повторное подключение вытесняет старое.
type Hub struct {
	logger   *slog.Logger
	handler  Handler
	presence PresenceHook
	upgrader websocket.Upgrader
	nodes    map[string]*nodeConn
	closed   bool
	mu       sync.RWMutex
}

// NewHub создает хаб без обработчиков
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		nodes: make(map[string]*nodeConn),
	}
}

// SetHandler устанавливает обработчик входящих сообщений
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// SetPresenceHook устанавливает обработчик подключения/отключения узлов
func (h *Hub) SetPresenceHook(hook PresenceHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.presence = hook
}

// ServeHTTP обрабатывает GET /wear?node=<id>&name=<display>
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("node")
	if nodeID == "" {
		nodeID = uuid.New().String()
	}
	if err := validation.ValidateNodeID(nodeID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if err := validation.ValidateDisplayName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ с ошибкой
		h.logger.Warn("Failed to upgrade companion connection", "node_id", nodeID, "error", err)
		return
	}
	ws.SetReadLimit(maxFrameSize)

	conn := &nodeConn{ws: ws, node: models.Node{ID: nodeID, DisplayName: name}}
	h.register(r.Context(), conn)
	defer h.unregister(r.Context(), conn)

	h.readLoop(r.Context(), conn)
}

func (h *Hub) register(ctx context.Context, conn *nodeConn) {
	h.mu.Lock()
	prev := h.nodes[conn.node.ID]
	h.nodes[conn.node.ID] = conn
	hook := h.presence
	connectedNodes.Set(float64(len(h.nodes)))
	h.mu.Unlock()

	if prev != nil {
		h.logger.Info("Companion reconnected, closing previous connection", "node_id", conn.node.ID)
		_ = prev.ws.Close()
	}

	h.logger.Info("Companion connected", "node_id", conn.node.ID, "name", conn.node.DisplayName)
	if hook != nil {
		hook(ctx, conn.node, true)
	}
}

func (h *Hub) unregister(ctx context.Context, conn *nodeConn) {
	h.mu.Lock()
	// Соединение могло быть уже вытеснено новым
	current := h.nodes[conn.node.ID] == conn
	if current {
		delete(h.nodes, conn.node.ID)
	}
	hook := h.presence
	connectedNodes.Set(float64(len(h.nodes)))
	h.mu.Unlock()

	_ = conn.ws.Close()

	if !current {
		return
	}
	h.logger.Info("Companion disconnected", "node_id", conn.node.ID)
	if hook != nil {
		// Контекст запроса уже может быть отменён
		hook(context.WithoutCancel(ctx), conn.node, false)
	}
}

func (h *Hub) readLoop(ctx context.Context, conn *nodeConn) {
	for {
		var frame Frame
		if err := conn.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("Companion connection error", "node_id", conn.node.ID, "error", err)
			}
			return
		}

		msg := Message{
			// Идентификатор узла берём из подключения, а не из кадра
			NodeID: conn.node.ID,
			Path:   NormalizePath(frame.Path),
			Data:   frame.Data,
		}
		framesTotal.WithLabelValues("in", pathLabel(msg.Path)).Inc()

		h.mu.RLock()
		handler := h.handler
		h.mu.RUnlock()

		if handler == nil {
			h.logger.Debug("No handler for companion message", "node_id", msg.NodeID, "path", msg.Path)
			continue
		}
		handler(ctx, msg)
	}
}

// ConnectedNodes возвращает подключённые узлы, отсортированные по id
func (h *Hub) ConnectedNodes(_ context.Context) ([]models.Node, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil, ErrClosed
	}

	nodes := make([]models.Node, 0, len(h.nodes))
	for _, c := range h.nodes {
		nodes = append(nodes, c.node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return nodes, nil
}

// Send отправляет сообщение одному узлу
func (h *Hub) Send(ctx context.Context, nodeID, path string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	conn, ok := h.nodes[nodeID]
	closed := h.closed
	h.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotConnected, nodeID)
	}

	if err := conn.write(ctx, Frame{Path: path, Data: payload}); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", path, nodeID, err)
	}
	framesTotal.WithLabelValues("out", pathLabel(path)).Inc()

	return nil
}

// Close закрывает все подключения. Новые подключения отклоняются.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	conns := make([]*nodeConn, 0, len(h.nodes))
	for _, c := range h.nodes {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "agent shutting down"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	}

	return nil
}

// pathLabel ограничивает кардинальность метрик известными путями
func pathLabel(path string) string {
	switch path {
	case PathRequestPair, PathPair, PathHealthData, PathStartSession, PathStopSession,
		PathStatusUpdate, PathRequestSync, PathPairSuccess, PathRequestBattery:
		return path
	default:
		return "other"
	}
}
