// Package feed fans committed live_data documents out to change-feed
// subscribers, per user, in revision order.
package feed

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iudanet/healthsync/internal/models"
)

var subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "healthsync_feed_subscribers",
	Help: "Number of active live data feed subscribers",
})

type subscriber struct {
	ch   chan models.LiveHealthRecord
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.ch)
	})
}

// Broker раздаёт документы подписчикам. Подписчик, не успевающий читать,
// отключается: пропуск ревизии в ленте недопустим, клиент переподключится
// и получит актуальный документ.
type Broker struct {
	logger *slog.Logger
	subs   map[string]map[*subscriber]struct{}
	// lastRevision последняя опубликованная ревизия по пользователю
	lastRevision map[string]int64
	mu           sync.Mutex
}

// NewBroker создает брокер
func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		logger:       logger,
		subs:         make(map[string]map[*subscriber]struct{}),
		lastRevision: make(map[string]int64),
	}
}

// Subscribe подписывается на документы пользователя. Канал закрывается
// при отписке или при переполнении буфера.
func (b *Broker) Subscribe(userID string, buffer int) (<-chan models.LiveHealthRecord, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{ch: make(chan models.LiveHealthRecord, buffer)}

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*subscriber]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	subscribersGauge.Inc()
	b.mu.Unlock()

	return sub.ch, func() {
		b.mu.Lock()
		b.removeLocked(userID, sub)
		b.mu.Unlock()
	}
}

func (b *Broker) removeLocked(userID string, sub *subscriber) {
	users, ok := b.subs[userID]
	if !ok {
		return
	}
	if _, ok := users[sub]; !ok {
		return
	}
	delete(users, sub)
	if len(users) == 0 {
		delete(b.subs, userID)
	}
	subscribersGauge.Dec()
	sub.close()
}

// Publish отправляет документ всем подписчикам пользователя.
// Документы с ревизией не новее уже опубликованной пропускаются.
func (b *Broker) Publish(userID string, rec models.LiveHealthRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec.Revision <= b.lastRevision[userID] {
		return
	}
	b.lastRevision[userID] = rec.Revision

	for sub := range b.subs[userID] {
		select {
		case sub.ch <- rec:
		default:
			b.logger.Warn("Feed subscriber is too slow, disconnecting", "user_id", userID, "revision", rec.Revision)
			b.removeLocked(userID, sub)
		}
	}
}

// Subscribers возвращает количество подписчиков пользователя
func (b *Broker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// Close отключает всех подписчиков
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for userID, users := range b.subs {
		for sub := range users {
			b.removeLocked(userID, sub)
		}
	}
}
