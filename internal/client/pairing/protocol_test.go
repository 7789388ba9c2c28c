package pairing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/healthsync/internal/client/channel"
	"github.com/iudanet/healthsync/internal/client/events"
	"github.com/iudanet/healthsync/internal/client/storage"
	guard "github.com/iudanet/healthsync/internal/client/sync"
	"github.com/iudanet/healthsync/internal/models"
)

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.Local)

type protoFixture struct {
	ch       *channel.ChannelMock
	arbiter  *ArbiterMock
	samples  *SampleSinkMock
	identity *storage.IdentityStorageMock
	sink     *events.SinkMock
	events   []events.Event
	nodes    []models.Node
	userID   string
	now      time.Time
	mu       sync.Mutex
}

func newProtoFixture(userID string, nodeIDs ...string) *protoFixture {
	f := &protoFixture{userID: userID, now: fixedNow}
	for _, id := range nodeIDs {
		f.nodes = append(f.nodes, models.Node{ID: id})
	}

	f.ch = &channel.ChannelMock{
		ConnectedNodesFunc: func(ctx context.Context) ([]models.Node, error) {
			return f.nodes, nil
		},
		SendFunc: func(ctx context.Context, nodeID, path string, payload []byte) error {
			return nil
		},
	}
	f.arbiter = &ArbiterMock{
		ObserveMessageFunc: func(ctx context.Context, nodeID string) {},
		MarkPairedFunc:     func(ctx context.Context) error { return nil },
	}
	f.samples = &SampleSinkMock{
		TrySyncFunc: func(ctx context.Context, sample models.CandidateHealthSample) (guard.Result, error) {
			return guard.Result{Committed: true}, nil
		},
		ReloadFunc: func() {},
	}
	f.identity = &storage.IdentityStorageMock{
		GetUserIDFunc: func(ctx context.Context) (string, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.userID == "" {
				return "", storage.ErrUserIDNotFound
			}
			return f.userID, nil
		},
		SaveUserIDFunc: func(ctx context.Context, userID string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.userID = userID
			return nil
		},
	}
	f.sink = &events.SinkMock{
		EmitFunc: func(ctx context.Context, event events.Event) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.events = append(f.events, event)
		},
	}
	return f
}

func (f *protoFixture) protocol(t *testing.T) *Protocol {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := New(context.Background(), f.ch, f.arbiter, f.samples, f.identity, f.sink, Options{
		SendTimeout: 50 * time.Millisecond,
		Backoff:     time.Millisecond,
		Retries:     3,
		SessionTTL:  time.Minute,
		Now: func() time.Time {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.now
		},
	}, logger)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func (f *protoFixture) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.events))
	for _, e := range f.events {
		names = append(names, e.Name)
	}
	return names
}

func msg(nodeID, path, data string) channel.Message {
	m := channel.Message{NodeID: nodeID, Path: path}
	if data != "" {
		m.Data = []byte(data)
	}
	return m
}

func TestProtocol_RequestPairRepliesToRequesterOnly(t *testing.T) {
	f := newProtoFixture("u1", "node-a", "node-b")
	p := f.protocol(t)

	p.HandleMessage(context.Background(), msg("node-a", "/request-pair", ""))
	p.Wait()

	calls := f.ch.SendCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "node-a", calls[0].NodeID)
	assert.Equal(t, channel.PathPair, calls[0].Path)
	assert.JSONEq(t, `{"userId":"u1"}`, string(calls[0].Payload))

	// Рассылки нет
	assert.Empty(t, f.ch.ConnectedNodesCalls())
	// Сессия закрыта после ответа
	assert.Empty(t, p.PendingSessions())
	// Сообщение считается доказательством присутствия
	require.Len(t, f.arbiter.ObserveMessageCalls(), 1)
	assert.Equal(t, "node-a", f.arbiter.ObserveMessageCalls()[0].NodeID)
}

func TestProtocol_RequestPairWithoutUser(t *testing.T) {
	f := newProtoFixture("", "node-a")
	p := f.protocol(t)
	ctx := context.Background()

	p.HandleMessage(ctx, msg("node-a", channel.PathRequestPair, ""))
	p.Wait()

	assert.Empty(t, f.ch.SendCalls())
	assert.Equal(t, []string{events.NeedLogin}, f.eventNames())
	require.Len(t, p.PendingSessions(), 1)
	sessionID := p.PendingSessions()[0].ID
	assert.NotEmpty(t, sessionID)

	// Повторный запрос не создаёт новую сессию
	p.HandleMessage(ctx, msg("node-a", channel.PathRequestPair, ""))
	require.Len(t, p.PendingSessions(), 1)
	assert.Equal(t, sessionID, p.PendingSessions()[0].ID)

	// После входа ожидающий узел получает ответ
	require.NoError(t, p.SetUserID(ctx, "u9"))
	p.Wait()

	calls := f.ch.SendCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "node-a", calls[0].NodeID)
	assert.JSONEq(t, `{"userId":"u9"}`, string(calls[0].Payload))
	assert.Len(t, f.samples.ReloadCalls(), 1)
	assert.Empty(t, p.PendingSessions())
}

func TestProtocol_SessionExpires(t *testing.T) {
	f := newProtoFixture("", "node-a")
	p := f.protocol(t)
	ctx := context.Background()

	p.HandleMessage(ctx, msg("node-a", channel.PathRequestPair, ""))
	require.Len(t, p.PendingSessions(), 1)

	f.mu.Lock()
	f.now = f.now.Add(2 * time.Minute)
	f.mu.Unlock()

	assert.Empty(t, p.PendingSessions())

	require.NoError(t, p.SetUserID(ctx, "u1"))
	p.Wait()
	assert.Empty(t, f.ch.SendCalls())
}

func TestProtocol_ReplyRetries(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	var (
		mu       sync.Mutex
		failures = 2
	)
	f.ch.SendFunc = func(ctx context.Context, nodeID, path string, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return errors.New("transient")
		}
		return nil
	}
	p := f.protocol(t)

	p.HandleMessage(context.Background(), msg("node-a", channel.PathRequestPair, ""))
	p.Wait()

	assert.Len(t, f.ch.SendCalls(), 3)
}

func TestProtocol_SendGivesUp(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	f.ch.SendFunc = func(ctx context.Context, nodeID, path string, payload []byte) error {
		return errors.New("broken pipe")
	}
	p := f.protocol(t)

	attempts, err := p.send(context.Background(), "node-a", channel.PathPair, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.NotErrorIs(t, err, ErrPairTimeout)
	// Первая попытка и три повтора
	assert.Equal(t, 4, attempts)
}

func TestProtocol_SendTimeout(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	f.ch.SendFunc = func(ctx context.Context, nodeID, path string, payload []byte) error {
		<-ctx.Done()
		return ctx.Err()
	}
	p := f.protocol(t)

	attempts, err := p.send(context.Background(), "node-a", channel.PathPair, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, ErrPairTimeout)
	assert.Equal(t, 4, attempts)
}

func TestProtocol_SendNodeGoneNotRetried(t *testing.T) {
	f := newProtoFixture("u1")
	f.ch.SendFunc = func(ctx context.Context, nodeID, path string, payload []byte) error {
		return channel.ErrNodeNotConnected
	}
	p := f.protocol(t)

	attempts, err := p.send(context.Background(), "node-a", channel.PathPair, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, channel.ErrNodeNotConnected)
	assert.Equal(t, 1, attempts)
}

func TestProtocol_HealthData(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	p := f.protocol(t)

	p.HandleMessage(context.Background(), msg("node-a", channel.PathHealthData, `{"steps": 2100, "heart_rate": 81}`))
	p.Wait()

	calls := f.samples.TrySyncCalls()
	require.Len(t, calls, 1)
	s := calls[0].Sample
	assert.Equal(t, models.SourceWatch, s.Source)
	assert.Equal(t, uint64(2100), s.Steps)
	require.NotNil(t, s.HeartRate)
	assert.Equal(t, uint32(81), *s.HeartRate)
	assert.Equal(t, models.DayOf(fixedNow), s.Date)
	assert.False(t, s.HeartRateOnly)
}

func TestProtocol_HealthDataDayFromAgentClock(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	p := f.protocol(t)

	// Часы с неверным временем не должны переносить сэмпл в другой день
	p.HandleMessage(context.Background(), msg("node-a", channel.PathHealthData, `{"steps": 50, "timestamp": 1}`))
	p.Wait()

	calls := f.samples.TrySyncCalls()
	require.Len(t, calls, 1)
	s := calls[0].Sample
	assert.Equal(t, models.DayOf(fixedNow), s.Date)
	assert.Equal(t, time.UnixMilli(1), s.ObservedAt)
	assert.Equal(t, uint64(50), s.Steps)
}

func TestProtocol_HealthDataNullStepsKeepsHeartRate(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	p := f.protocol(t)

	p.HandleMessage(context.Background(), msg("node-a", channel.PathHealthData, `{"steps": null, "heart_rate": 70}`))
	p.Wait()

	calls := f.samples.TrySyncCalls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Sample.HeartRateOnly)
	require.NotNil(t, calls[0].Sample.HeartRate)
	assert.Equal(t, uint32(70), *calls[0].Sample.HeartRate)
}

func TestProtocol_HealthDataHeartRateOnly(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	p := f.protocol(t)

	p.HandleMessage(context.Background(), msg("node-a", channel.PathHealthData, `{"type":"heart_rate","value":"64.0"}`))
	p.Wait()

	calls := f.samples.TrySyncCalls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Sample.HeartRateOnly)
	assert.Equal(t, uint32(64), *calls[0].Sample.HeartRate)
}

func TestProtocol_MalformedHealthDataDropped(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	p := f.protocol(t)

	p.HandleMessage(context.Background(), msg("node-a", channel.PathHealthData, `not json`))
	p.Wait()

	assert.Empty(t, f.samples.TrySyncCalls())
	assert.Empty(t, f.eventNames())
	// Но часы всё равно считаются активными
	assert.Len(t, f.arbiter.ObserveMessageCalls(), 1)
}

func TestProtocol_SyncErrorIsContained(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	f.samples.TrySyncFunc = func(ctx context.Context, sample models.CandidateHealthSample) (guard.Result, error) {
		return guard.Result{}, guard.ErrStoreWrite
	}
	p := f.protocol(t)

	assert.NotPanics(t, func() {
		p.HandleMessage(context.Background(), msg("node-a", channel.PathHealthData, `{"steps": 1}`))
		p.Wait()
	})
}

func TestProtocol_PairEchoDoesNotOverwriteIdentity(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	p := f.protocol(t)

	p.HandleMessage(context.Background(), msg("node-a", "/pair", `{"userId":"someone-else"}`))

	assert.Equal(t, "u1", p.UserID())
	assert.Empty(t, f.identity.SaveUserIDCalls())

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.events, 1)
	assert.Equal(t, events.PairEcho, f.events[0].Name)
	assert.Equal(t, PairPayload{UserID: "someone-else"}, f.events[0].Payload)
}

func TestProtocol_PassThroughPaths(t *testing.T) {
	f := newProtoFixture("u1", "node-a")
	p := f.protocol(t)
	ctx := context.Background()

	p.HandleMessage(ctx, msg("node-a", "/status-update", `{"battery":80}`))
	p.HandleMessage(ctx, msg("node-a", channel.PathRequestSync, ""))
	p.HandleMessage(ctx, msg("node-a", channel.PathPairSuccess, "ok"))
	p.HandleMessage(ctx, msg("node-a", channel.PathRequestBattery, ""))
	p.HandleMessage(ctx, msg("node-a", "/stop-session", ""))
	p.HandleMessage(ctx, msg("node-a", "/unknown", ""))

	assert.Equal(t, []string{
		events.StatusUpdate,
		events.RequestSync,
		events.PairSuccess,
		events.Battery,
		events.StopSession,
	}, f.eventNames())
	// Хук присутствия срабатывает для каждого сообщения, включая неизвестные
	assert.Len(t, f.arbiter.ObserveMessageCalls(), 6)

	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.events[0].Payload.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"battery":80}`, string(raw))
	assert.Equal(t, "ok", f.events[2].Payload)
}

func TestProtocol_PairAll(t *testing.T) {
	f := newProtoFixture("", "node-a", "node-b", "node-c")
	f.ch.SendFunc = func(ctx context.Context, nodeID, path string, payload []byte) error {
		if nodeID == "node-b" {
			return channel.ErrNodeNotConnected
		}
		return nil
	}
	p := f.protocol(t)

	res, err := p.PairAll(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Delivered())
	require.Len(t, res.Nodes, 3)
	assert.Equal(t, "node-b", res.Nodes[1].NodeID)
	assert.ErrorIs(t, res.Nodes[1].Err, ErrSendFailed)

	assert.Len(t, f.arbiter.MarkPairedCalls(), 1)
	assert.Equal(t, "u1", p.UserID())
	require.Len(t, f.identity.SaveUserIDCalls(), 1)
	assert.Equal(t, "u1", f.identity.SaveUserIDCalls()[0].UserID)

	for _, c := range f.ch.SendCalls() {
		assert.Equal(t, channel.PathPair, c.Path)
		assert.JSONEq(t, `{"userId":"u1"}`, string(c.Payload))
	}
}

func TestProtocol_PairAllEveryNodeFails(t *testing.T) {
	f := newProtoFixture("", "node-a", "node-b")
	f.ch.SendFunc = func(ctx context.Context, nodeID, path string, payload []byte) error {
		return channel.ErrNodeNotConnected
	}
	p := f.protocol(t)

	res, err := p.PairAll(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Equal(t, 0, res.Delivered())
	// Флаг сопряжения выставлен до рассылки
	assert.Len(t, f.arbiter.MarkPairedCalls(), 1)
}

func TestProtocol_PairAllNoNodes(t *testing.T) {
	f := newProtoFixture("")
	p := f.protocol(t)

	res, err := p.PairAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, res.Nodes)
}

func TestProtocol_PairAllListError(t *testing.T) {
	f := newProtoFixture("", "node-a")
	f.ch.ConnectedNodesFunc = func(ctx context.Context) ([]models.Node, error) {
		return nil, channel.ErrClosed
	}
	p := f.protocol(t)

	_, err := p.PairAll(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestProtocol_PairAllInvalidUser(t *testing.T) {
	f := newProtoFixture("", "node-a")
	p := f.protocol(t)

	_, err := p.PairAll(context.Background(), "bad/user")
	require.Error(t, err)
	assert.Empty(t, f.arbiter.MarkPairedCalls())
	assert.Empty(t, f.ch.SendCalls())
}

func TestProtocol_StartSession(t *testing.T) {
	f := newProtoFixture("u1", "node-a", "node-b")
	p := f.protocol(t)

	res, err := p.StartSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Delivered())

	for _, c := range f.ch.SendCalls() {
		assert.Equal(t, channel.PathStartSession, c.Path)
		assert.Equal(t, []byte("GO"), c.Payload)
	}
}

func TestProtocol_LoadsCachedUser(t *testing.T) {
	f := newProtoFixture("cached")
	p := f.protocol(t)
	assert.Equal(t, "cached", p.UserID())
}

func TestProtocol_IdentityLoadError(t *testing.T) {
	f := newProtoFixture("")
	f.identity.GetUserIDFunc = func(ctx context.Context) (string, error) {
		return "", storage.ErrStorageClosed
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(context.Background(), f.ch, f.arbiter, f.samples, f.identity, f.sink, Options{}, logger)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
