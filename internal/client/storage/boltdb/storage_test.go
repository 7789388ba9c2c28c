package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/healthsync/internal/client/storage"
)

// createTestStorage создает временное BoltDB хранилище
func createTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "agent_test.db")
	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestNew_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "testdb.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() {
		require.NoError(t, store.Close())
	}()

	// Проверяем что файл БД действительно создан
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketPhoneSteps) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	// Каталог вместо файла открыть как БД нельзя
	store, err := New(context.Background(), t.TempDir())
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.Nil(t, store.db)

	// Второй вызов Close не должен падать
	assert.NoError(t, store.Close())
}

func TestReopen_KeepsState(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SetPairedActive(ctx, true))
	require.NoError(t, store.SaveUserID(ctx, "u1"))
	require.NoError(t, store.Close())

	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	active, err := store.GetPairedActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	userID, err := store.GetUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestNew_LockedByAnotherProcess(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "agent.db")

	first, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	// Вторая блокировка того же файла не дождётся освобождения
	second, err := New(context.Background(), dbPath)
	assert.ErrorIs(t, err, storage.ErrStorageLocked)
	assert.Nil(t, second)
}

func TestNew_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store, err := New(ctx, filepath.Join(t.TempDir(), "agent.db"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, store)
}
