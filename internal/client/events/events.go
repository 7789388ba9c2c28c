// Package events delivers host-facing events (need-login, health-update,
// pass-through companion messages) to whoever runs the agent.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

//go:generate moq -out sink_mock.go . Sink

// Имена событий
const (
	NeedLogin    = "need-login"
	HealthUpdate = "health-update"
	PairEcho     = "pair"
	PairSuccess  = "pair-success"
	StatusUpdate = "status-update"
	RequestSync  = "request-sync"
	Battery      = "request-battery"
	StopSession  = "stop-session"
	SensorLost   = "sensor-unavailable"
)

// Event событие для хоста
type Event struct {
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
	Name    string    `json:"name"`
	NodeID  string    `json:"node_id,omitempty"`
}

// Sink принимает события. Emit не должен блокироваться надолго.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// LogSink пишет события в лог
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создает LogSink
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit implements Sink
func (s *LogSink) Emit(ctx context.Context, event Event) {
	s.logger.InfoContext(ctx, "Host event",
		"event", event.Name,
		"node_id", event.NodeID,
		"payload", event.Payload)
}

// Bus раздаёт события подписчикам. Медленный подписчик теряет события,
// отправитель никогда не блокируется.
type Bus struct {
	logger *slog.Logger
	subs   map[chan Event]struct{}
	mu     sync.RWMutex
}

// NewBus создает шину событий
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[chan Event]struct{}),
	}
}

// Subscribe возвращает канал событий и функцию отписки
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Emit implements Sink
func (b *Bus) Emit(_ context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Event subscriber is slow, dropping event", "event", event.Name)
		}
	}
}

// Multi отправляет событие в несколько Sink по очереди
type Multi []Sink

// Emit implements Sink
func (m Multi) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		s.Emit(ctx, event)
	}
}
