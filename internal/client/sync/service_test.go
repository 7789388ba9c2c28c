package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/iudanet/healthsync/internal/client/api"
	"github.com/iudanet/healthsync/internal/client/events"
	"github.com/iudanet/healthsync/internal/client/storage"
	"github.com/iudanet/healthsync/internal/models"
	"github.com/iudanet/healthsync/pkg/api"
)

const today = models.CalendarDay("2026-03-10")

// remoteDoc эмулирует серверный merge с ревизиями
type remoteDoc struct {
	doc    *api.LiveData
	feed   chan api.LiveData
	writes []api.LiveDataUpdate
	mu     gosync.Mutex
}

func (r *remoteDoc) mock() *httpClient.ClientAPIMock {
	return &httpClient.ClientAPIMock{
		GetLiveDataFunc: func(ctx context.Context, userID string) (*api.LiveData, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.doc == nil {
				return nil, &httpClient.StatusError{Code: 404, Message: "live data not found"}
			}
			doc := *r.doc
			return &doc, nil
		},
		UpdateLiveDataFunc: func(ctx context.Context, userID string, u api.LiveDataUpdate) (*api.LiveData, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.writes = append(r.writes, u)
			if r.doc == nil {
				r.doc = &api.LiveData{}
			}
			if u.Steps != nil {
				r.doc.Steps = *u.Steps
			}
			if u.HeartRate != nil {
				r.doc.HeartRate = *u.HeartRate
			}
			if u.Source != nil {
				r.doc.Source = *u.Source
			}
			if u.Date != nil {
				r.doc.Date = *u.Date
			}
			if u.LastUpdate != nil {
				r.doc.LastUpdate = *u.LastUpdate
			}
			r.doc.Revision++
			doc := *r.doc
			return &doc, nil
		},
		SubscribeLiveDataFunc: func(ctx context.Context, userID string) (<-chan api.LiveData, error) {
			return r.feed, nil
		},
	}
}

func (r *remoteDoc) committedSteps() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint64
	for _, w := range r.writes {
		if w.Steps != nil {
			out = append(out, *w.Steps)
		}
	}
	return out
}

type guardFixture struct {
	remote    *remoteDoc
	store     *httpClient.ClientAPIMock
	authority *SourceAuthorityMock
	identity  *storage.IdentityStorageMock
	sink      *events.SinkMock
	source    models.Source
	mu        gosync.Mutex
}

func newGuardFixture() *guardFixture {
	f := &guardFixture{
		remote: &remoteDoc{feed: make(chan api.LiveData, 8)},
		source: models.SourcePhone,
	}
	f.store = f.remote.mock()
	f.authority = &SourceAuthorityMock{
		AuthoritativeSourceFunc: func() models.Source {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.source
		},
	}
	f.identity = &storage.IdentityStorageMock{
		GetUserIDFunc: func(ctx context.Context) (string, error) { return "u1", nil },
	}
	f.sink = &events.SinkMock{EmitFunc: func(ctx context.Context, event events.Event) {}}
	return f
}

func (f *guardFixture) setSource(s models.Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source = s
}

func (f *guardFixture) guard(tolerance uint64) *Guard {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGuard(f.store, f.authority, f.identity, f.sink, Options{
		Tolerance:     tolerance,
		ReconnectBase: 5 * time.Millisecond,
		ReconnectMax:  20 * time.Millisecond,
		Now:           func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local) },
	}, logger)
}

func sample(source models.Source, steps uint64) models.CandidateHealthSample {
	return models.CandidateHealthSample{
		Steps:      steps,
		Source:     source,
		Date:       today,
		ObservedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestGuard_RegressionScenario(t *testing.T) {
	f := newGuardFixture()
	g := f.guard(0)
	ctx := context.Background()

	var committed []bool
	for _, steps := range []uint64{100, 95, 130} {
		res, err := g.TrySync(ctx, sample(models.SourcePhone, steps))
		require.NoError(t, err)
		committed = append(committed, res.Committed)
		if !res.Committed {
			assert.Equal(t, ReasonRegression, res.Reason)
		}
	}

	assert.Equal(t, []bool{true, false, true}, committed)
	assert.Equal(t, []uint64{100, 130}, f.remote.committedSteps())

	base, ok := g.Baseline()
	require.True(t, ok)
	assert.Equal(t, uint64(130), base.Steps)
	assert.Equal(t, int64(2), base.Revision)
}

func TestGuard_EqualValueIsRegression(t *testing.T) {
	f := newGuardFixture()
	g := f.guard(500)
	ctx := context.Background()

	_, err := g.TrySync(ctx, sample(models.SourcePhone, 100))
	require.NoError(t, err)

	res, err := g.TrySync(ctx, sample(models.SourcePhone, 100))
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, ReasonRegression, res.Reason)
}

func TestGuard_Tolerance(t *testing.T) {
	tests := []struct {
		name       string
		tolerance  uint64
		next       uint64
		wantCommit bool
	}{
		{name: "zero tolerance rejects any decrease", tolerance: 0, next: 999, wantCommit: false},
		{name: "within band is a correction", tolerance: 100, next: 950, wantCommit: true},
		{name: "band edge is a correction", tolerance: 100, next: 900, wantCommit: true},
		{name: "beyond band is rejected", tolerance: 100, next: 899, wantCommit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGuardFixture()
			g := f.guard(tt.tolerance)
			ctx := context.Background()

			_, err := g.TrySync(ctx, sample(models.SourcePhone, 1000))
			require.NoError(t, err)

			res, err := g.TrySync(ctx, sample(models.SourcePhone, tt.next))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCommit, res.Committed)
			assert.Equal(t, tt.wantCommit, res.Correction)
		})
	}
}

func TestGuard_StaleSourceInEveryState(t *testing.T) {
	for _, authoritative := range []models.Source{models.SourcePhone, models.SourceWatch} {
		t.Run(string(authoritative), func(t *testing.T) {
			f := newGuardFixture()
			f.setSource(authoritative)
			g := f.guard(0)

			other := models.SourceWatch
			if authoritative == models.SourceWatch {
				other = models.SourcePhone
			}

			res, err := g.TrySync(context.Background(), sample(other, 100))
			require.NoError(t, err)
			assert.False(t, res.Committed)
			assert.Equal(t, ReasonStaleSource, res.Reason)
			assert.Empty(t, f.store.UpdateLiveDataCalls())
		})
	}
}

func TestGuard_SourceAliases(t *testing.T) {
	f := newGuardFixture()
	f.setSource(models.SourceWatch)
	g := f.guard(0)

	res, err := g.TrySync(context.Background(), sample(models.SourceWatchBackground, 10))
	require.NoError(t, err)
	assert.True(t, res.Committed)
}

func TestGuard_MonotonicCommits(t *testing.T) {
	f := newGuardFixture()
	g := f.guard(0)
	ctx := context.Background()

	// Неубывающая последовательность с повторами
	seq := []uint64{0, 0, 5, 5, 5, 12, 40, 40, 41, 100, 100, 250}
	for _, s := range seq {
		_, err := g.TrySync(ctx, sample(models.SourcePhone, s))
		require.NoError(t, err)
	}

	commits := f.remote.committedSteps()
	require.NotEmpty(t, commits)
	for i := 1; i < len(commits); i++ {
		assert.GreaterOrEqual(t, commits[i], commits[i-1])
	}
	assert.Equal(t, uint64(250), commits[len(commits)-1])
}

func TestGuard_NewDayAcceptsLowerValue(t *testing.T) {
	f := newGuardFixture()
	f.remote.doc = &api.LiveData{Steps: 9000, Date: "2026-03-09", Source: "phone", Revision: 10}
	g := f.guard(0)

	res, err := g.TrySync(context.Background(), sample(models.SourcePhone, 15))
	require.NoError(t, err)
	assert.True(t, res.Committed)
	require.NotNil(t, res.Record)
	assert.Equal(t, today, res.Record.Date)
	assert.Equal(t, int64(11), res.Record.Revision)
}

func TestGuard_HeartRateOnlyOnRegression(t *testing.T) {
	f := newGuardFixture()
	f.setSource(models.SourceWatch)
	g := f.guard(0)
	ctx := context.Background()

	_, err := g.TrySync(ctx, sample(models.SourceWatch, 500))
	require.NoError(t, err)

	s := sample(models.SourceWatch, 480)
	s.HeartRate = models.Uint32(88)
	res, err := g.TrySync(ctx, s)
	require.NoError(t, err)

	assert.True(t, res.Committed)
	assert.True(t, res.HeartRateOnly)
	assert.Equal(t, ReasonRegression, res.Reason)
	assert.Equal(t, uint64(500), res.Record.Steps)
	assert.Equal(t, uint32(88), res.Record.HeartRate)
	assert.Equal(t, []uint64{500}, f.remote.committedSteps())
}

func TestGuard_PhoneSampleLeavesHeartRate(t *testing.T) {
	f := newGuardFixture()
	f.remote.doc = &api.LiveData{Steps: 10, HeartRate: 61, Date: string(today), Source: "phone", Revision: 1}
	g := f.guard(0)

	res, err := g.TrySync(context.Background(), sample(models.SourcePhone, 20))
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Equal(t, uint32(61), res.Record.HeartRate)

	calls := f.store.UpdateLiveDataCalls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Update.HeartRate)
}

func TestGuard_NoUser(t *testing.T) {
	f := newGuardFixture()
	f.identity.GetUserIDFunc = func(ctx context.Context) (string, error) {
		return "", storage.ErrUserIDNotFound
	}
	g := f.guard(0)

	res, err := g.TrySync(context.Background(), sample(models.SourcePhone, 10))
	require.NoError(t, err)
	assert.Equal(t, ReasonNoUser, res.Reason)
	assert.Empty(t, f.store.GetLiveDataCalls())
}

func TestGuard_NilStore(t *testing.T) {
	f := newGuardFixture()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := NewGuard(nil, f.authority, f.identity, f.sink, Options{}, logger)

	res, err := g.TrySync(context.Background(), sample(models.SourcePhone, 10))
	require.NoError(t, err)
	assert.Equal(t, ReasonStoreUnavailable, res.Reason)
	assert.ErrorIs(t, g.Refresh(context.Background()), ErrStoreUnavailable)
}

func TestGuard_BaselineReadFails(t *testing.T) {
	f := newGuardFixture()
	f.store.GetLiveDataFunc = func(ctx context.Context, userID string) (*api.LiveData, error) {
		return nil, errors.New("connection refused")
	}
	g := f.guard(0)

	res, err := g.TrySync(context.Background(), sample(models.SourcePhone, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, ReasonStoreUnavailable, res.Reason)
	assert.Empty(t, f.store.UpdateLiveDataCalls())
}

func TestGuard_WriteFailureKeepsBaseline(t *testing.T) {
	f := newGuardFixture()
	g := f.guard(0)
	ctx := context.Background()

	_, err := g.TrySync(ctx, sample(models.SourcePhone, 100))
	require.NoError(t, err)

	f.store.UpdateLiveDataFunc = func(ctx context.Context, userID string, u api.LiveDataUpdate) (*api.LiveData, error) {
		return nil, errors.New("timeout")
	}

	res, err := g.TrySync(ctx, sample(models.SourcePhone, 200))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.False(t, res.Committed)

	base, ok := g.Baseline()
	require.True(t, ok)
	// Оптимистичного обновления нет
	assert.Equal(t, uint64(100), base.Steps)
}

func TestGuard_ObserveIgnoresOlderRevisions(t *testing.T) {
	f := newGuardFixture()
	g := f.guard(0)

	assert.True(t, g.observe("u1", models.LiveHealthRecord{Steps: 300, Date: today, Revision: 5}, false))
	assert.False(t, g.observe("u1", models.LiveHealthRecord{Steps: 100, Date: today, Revision: 4}, false))
	assert.False(t, g.observe("u1", models.LiveHealthRecord{Steps: 100, Date: today, Revision: 5}, false))

	base, _ := g.Baseline()
	assert.Equal(t, uint64(300), base.Steps)

	// Другой пользователь заменяет базовую линию
	assert.True(t, g.observe("u2", models.LiveHealthRecord{Steps: 1, Revision: 1}, false))
	_, ok := g.baselineFor("u1")
	assert.False(t, ok)
}

func TestGuard_RunConsumesFeed(t *testing.T) {
	f := newGuardFixture()
	g := f.guard(0)

	var (
		mu      gosync.Mutex
		updates []HealthUpdate
	)
	f.sink.EmitFunc = func(ctx context.Context, event events.Event) {
		if event.Name != events.HealthUpdate {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, event.Payload.(HealthUpdate))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	// Запись с часов приходит через ленту
	f.remote.feed <- api.LiveData{Steps: 700, Date: string(today), Source: "watch_background", Revision: 3}
	f.remote.feed <- api.LiveData{Steps: 650, Date: "2026-03-09", Source: "watch", Revision: 2}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) == 2
	}, 2*time.Second, 10*time.Millisecond)

	base, ok := g.Baseline()
	require.True(t, ok)
	// Устаревшая ревизия не откатывает базовую линию
	assert.Equal(t, uint64(700), base.Steps)

	mu.Lock()
	assert.Equal(t, models.SourceWatch, updates[0].Source)
	assert.Equal(t, uint64(700), updates[0].Steps)
	// Документ за другой день показывается как 0 шагов
	assert.Equal(t, uint64(0), updates[1].Steps)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestGuard_RunResubscribes(t *testing.T) {
	f := newGuardFixture()
	g := f.guard(0)

	var (
		mu    gosync.Mutex
		calls int
	)
	f.store.SubscribeLiveDataFunc = func(ctx context.Context, userID string) (<-chan api.LiveData, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return nil, errors.New("dial failed")
		}
		ch := make(chan api.LiveData)
		if calls == 2 {
			// Лента сразу закрывается - нужно переподключиться
			close(ch)
		}
		return ch, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = g.Run(ctx) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestGuard_HeartRateOnlySample(t *testing.T) {
	f := newGuardFixture()
	f.setSource(models.SourceWatch)
	f.remote.doc = &api.LiveData{Steps: 4000, Date: string(today), Source: "watch", Revision: 7}
	g := f.guard(10000)

	s := sample(models.SourceWatch, 0)
	s.HeartRateOnly = true
	s.HeartRate = models.Uint32(75)

	res, err := g.TrySync(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.True(t, res.HeartRateOnly)
	// Большой допуск не превращает отсутствие шагов в коррекцию до 0
	assert.Equal(t, uint64(4000), res.Record.Steps)
	assert.Empty(t, f.remote.committedSteps())

	s.HeartRate = nil
	res, err = g.TrySync(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, ReasonEmpty, res.Reason)
}
