package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/healthsync/internal/models"
	"github.com/iudanet/healthsync/internal/server/storage"
)

func ptr[T any](v T) *T {
	return &v
}

func TestLiveData_GetNotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	rec, err := s.GetLiveData(context.Background(), "u1")
	assert.ErrorIs(t, err, storage.ErrLiveDataNotFound)
	assert.Nil(t, rec)
}

func TestLiveData_UpdateCreatesDocument(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ts := time.UnixMilli(1767225600000)
	rec, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{
		Steps:      ptr(uint64(120)),
		Source:     ptr(models.SourcePhone),
		Date:       ptr(models.CalendarDay("2026-01-01")),
		LastUpdate: &ts,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Revision)
	assert.Equal(t, uint64(120), rec.Steps)

	got, err := s.GetLiveData(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, uint64(120), got.Steps)
	assert.Equal(t, uint32(0), got.HeartRate)
	assert.Equal(t, models.SourcePhone, got.Source)
	assert.Equal(t, models.CalendarDay("2026-01-01"), got.Date)
	assert.Equal(t, ts.UnixMilli(), got.LastUpdate.UnixMilli())
	assert.Equal(t, int64(1), got.Revision)
}

func TestLiveData_PartialUpdatePreservesFields(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{
		Steps:     ptr(uint64(500)),
		HeartRate: ptr(uint32(64)),
		Source:    ptr(models.SourceWatch),
		Date:      ptr(models.CalendarDay("2026-01-01")),
	})
	require.NoError(t, err)

	// Телефон не передаёт пульс - он должен сохраниться
	rec, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{
		Steps:  ptr(uint64(510)),
		Source: ptr(models.SourcePhone),
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(510), rec.Steps)
	assert.Equal(t, uint32(64), rec.HeartRate)
	assert.Equal(t, models.SourcePhone, rec.Source)
	assert.Equal(t, models.CalendarDay("2026-01-01"), rec.Date)
	assert.Equal(t, int64(2), rec.Revision)
}

func TestLiveData_StoreDoesNotGuardRegressions(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{Steps: ptr(uint64(900))})
	require.NoError(t, err)

	// Сервер - last-writer-wins; защита от регрессий на стороне клиента
	rec, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{Steps: ptr(uint64(10))})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), rec.Steps)
}

func TestLiveData_EmptyPatch(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.UpdateLiveData(context.Background(), "u1", models.LiveHealthPatch{})
	assert.ErrorIs(t, err, storage.ErrEmptyPatch)
}

func TestLiveData_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{Steps: ptr(uint64(1))})
	require.NoError(t, err)
	_, err = s.UpdateLiveData(ctx, "u2", models.LiveHealthPatch{Steps: ptr(uint64(2))})
	require.NoError(t, err)

	u1, err := s.GetLiveData(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u1.Steps)
	assert.Equal(t, int64(1), u1.Revision)
}

func TestLiveData_ConcurrentUpdatesGetDistinctRevisions(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	const writers = 20
	var wg sync.WaitGroup
	revisions := make([]int64, writers)

	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{Steps: ptr(uint64(i))})
			if assert.NoError(t, err) {
				revisions[i] = rec.Revision
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, r := range revisions {
		assert.False(t, seen[r], fmt.Sprintf("revision %d assigned twice", r))
		seen[r] = true
	}

	got, err := s.GetLiveData(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(writers), got.Revision)
}

func TestHeartRateHistory(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.UnixMilli(1767225600000)
	for i, hr := range []uint32{60, 0, 72, 80} {
		ts := base.Add(time.Duration(i) * time.Second)
		_, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{
			HeartRate:  ptr(hr),
			Source:     ptr(models.SourceWatch),
			LastUpdate: &ts,
		})
		require.NoError(t, err)
	}
	// Запись без пульса не попадает в историю
	_, err := s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{Steps: ptr(uint64(5))})
	require.NoError(t, err)

	samples, err := s.HeartRateHistory(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, uint32(80), samples[0].HeartRate)
	assert.Equal(t, uint32(72), samples[1].HeartRate)

	all, err := s.HeartRateHistory(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.HeartRateHistory(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStorage_FileDatabaseReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "healthsync.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	_, err = s.UpdateLiveData(ctx, "u1", models.LiveHealthPatch{Steps: ptr(uint64(77))})
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	// Миграции идемпотентны при повторном открытии
	s, err = New(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	rec, err := s.GetLiveData(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, uint64(77), rec.Steps)
}

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}
