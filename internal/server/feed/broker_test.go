package feed

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/healthsync/internal/models"
)

func newTestBroker() *Broker {
	return NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroker_PublishInRevisionOrder(t *testing.T) {
	b := newTestBroker()

	ch, cancel := b.Subscribe("u1", 4)
	defer cancel()

	b.Publish("u1", models.LiveHealthRecord{Steps: 10, Revision: 1})
	b.Publish("u1", models.LiveHealthRecord{Steps: 20, Revision: 2})
	// Устаревшая ревизия не публикуется
	b.Publish("u1", models.LiveHealthRecord{Steps: 5, Revision: 1})

	require.Len(t, ch, 2)
	assert.Equal(t, int64(1), (<-ch).Revision)
	assert.Equal(t, int64(2), (<-ch).Revision)
}

func TestBroker_UsersIsolated(t *testing.T) {
	b := newTestBroker()

	ch1, cancel1 := b.Subscribe("u1", 4)
	defer cancel1()
	ch2, cancel2 := b.Subscribe("u2", 4)
	defer cancel2()

	b.Publish("u1", models.LiveHealthRecord{Revision: 1})

	assert.Len(t, ch1, 1)
	assert.Len(t, ch2, 0)
}

func TestBroker_SlowSubscriberDisconnected(t *testing.T) {
	b := newTestBroker()

	ch, cancel := b.Subscribe("u1", 1)
	defer cancel()

	b.Publish("u1", models.LiveHealthRecord{Revision: 1})
	b.Publish("u1", models.LiveHealthRecord{Revision: 2})

	assert.Equal(t, 0, b.Subscribers("u1"))

	rec, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, int64(1), rec.Revision)
	_, ok = <-ch
	assert.False(t, ok)
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := newTestBroker()

	ch, cancel := b.Subscribe("u1", 1)
	assert.Equal(t, 1, b.Subscribers("u1"))

	cancel()
	cancel()

	assert.Equal(t, 0, b.Subscribers("u1"))
	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroker_Close(t *testing.T) {
	b := newTestBroker()

	ch, _ := b.Subscribe("u1", 1)
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
}
