package channel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/healthsync/internal/models"
)

type recorder struct {
	messages []Message
	presence []bool
	mu       sync.Mutex
}

func (r *recorder) handle(_ context.Context, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) hook(_ context.Context, _ models.Node, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence = append(r.presence, connected)
}

func (r *recorder) snapshot() ([]Message, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...), append([]bool(nil), r.presence...)
}

func setupHub(t *testing.T) (*Hub, *recorder, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)
	rec := &recorder{}
	hub.SetHandler(rec.handle)
	hub.SetPresenceHook(rec.hook)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})

	return hub, rec, "ws" + strings.TrimPrefix(srv.URL, "http") + "/wear"
}

func waitNodes(t *testing.T, hub *Hub, n int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		nodes, err := hub.ConnectedNodes(context.Background())
		return err == nil && len(nodes) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "pair", NormalizePath("pair"))
	assert.Equal(t, "pair", NormalizePath("/pair"))
	assert.Equal(t, "health-data", NormalizePath(" /health-data "))
	assert.Equal(t, "", NormalizePath("/"))
}

func TestHub_ConnectAndReceive(t *testing.T) {
	hub, rec, url := setupHub(t)
	ctx := context.Background()

	client, err := Dial(ctx, url, "watch-1", "Galaxy Watch")
	require.NoError(t, err)
	defer client.Close()

	waitNodes(t, hub, 1)
	nodes, err := hub.ConnectedNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Node{ID: "watch-1", DisplayName: "Galaxy Watch"}, nodes[0])

	require.NoError(t, client.Send(ctx, "/request-pair", nil))
	require.NoError(t, client.Send(ctx, PathHealthData, []byte(`{"steps":120}`)))

	assert.Eventually(t, func() bool {
		msgs, _ := rec.snapshot()
		return len(msgs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	msgs, presence := rec.snapshot()
	assert.Equal(t, Message{NodeID: "watch-1", Path: PathRequestPair}, msgs[0])
	assert.Equal(t, PathHealthData, msgs[1].Path)
	assert.JSONEq(t, `{"steps":120}`, string(msgs[1].Data))
	assert.Equal(t, []bool{true}, presence)
}

func TestHub_Send(t *testing.T) {
	hub, _, url := setupHub(t)
	ctx := context.Background()

	client, err := Dial(ctx, url, "watch-1", "")
	require.NoError(t, err)
	defer client.Close()
	waitNodes(t, hub, 1)

	require.NoError(t, hub.Send(ctx, "watch-1", PathPair, []byte("uid-42")))

	msg, err := client.Receive()
	require.NoError(t, err)
	assert.Equal(t, PathPair, msg.Path)
	assert.Equal(t, []byte("uid-42"), msg.Data)
}

func TestHub_SendUnknownNode(t *testing.T) {
	hub, _, _ := setupHub(t)

	err := hub.Send(context.Background(), "missing", PathPair, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNodeNotConnected))
}

func TestHub_SendCanceledContext(t *testing.T) {
	hub, _, _ := setupHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := hub.Send(ctx, "watch-1", PathPair, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHub_Disconnect(t *testing.T) {
	hub, rec, url := setupHub(t)

	client, err := Dial(context.Background(), url, "watch-1", "")
	require.NoError(t, err)
	waitNodes(t, hub, 1)

	require.NoError(t, client.Close())
	waitNodes(t, hub, 0)

	assert.Eventually(t, func() bool {
		_, presence := rec.snapshot()
		return len(presence) == 2
	}, 2*time.Second, 10*time.Millisecond)
	_, presence := rec.snapshot()
	assert.Equal(t, []bool{true, false}, presence)
}

func TestHub_ReconnectReplaces(t *testing.T) {
	hub, _, url := setupHub(t)
	ctx := context.Background()

	first, err := Dial(ctx, url, "watch-1", "old")
	require.NoError(t, err)
	defer first.Close()
	waitNodes(t, hub, 1)

	second, err := Dial(ctx, url, "watch-1", "new")
	require.NoError(t, err)
	defer second.Close()

	assert.Eventually(t, func() bool {
		nodes, _ := hub.ConnectedNodes(ctx)
		return len(nodes) == 1 && nodes[0].DisplayName == "new"
	}, 2*time.Second, 10*time.Millisecond)

	// Старое подключение закрыто хабом
	_, err = first.Receive()
	assert.Error(t, err)

	require.NoError(t, hub.Send(ctx, "watch-1", PathStartSession, []byte("GO")))
	msg, err := second.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte("GO"), msg.Data)
}

func TestHub_MultipleNodesSorted(t *testing.T) {
	hub, _, url := setupHub(t)
	ctx := context.Background()

	for _, id := range []string{"b-node", "a-node"} {
		c, err := Dial(ctx, url, id, "")
		require.NoError(t, err)
		defer c.Close()
	}
	waitNodes(t, hub, 2)

	nodes, err := hub.ConnectedNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-node", nodes[0].ID)
	assert.Equal(t, "b-node", nodes[1].ID)
}

func TestHub_InvalidNodeID(t *testing.T) {
	_, _, url := setupHub(t)

	_, err := Dial(context.Background(), url, "bad/node", "")
	assert.Error(t, err)
}

func TestHub_Closed(t *testing.T) {
	hub, _, url := setupHub(t)
	require.NoError(t, hub.Close())

	_, err := hub.ConnectedNodes(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = Dial(context.Background(), url, "watch-1", "")
	assert.Error(t, err)
}
