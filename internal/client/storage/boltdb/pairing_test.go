package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/healthsync/internal/client/storage"
)

func TestPairedActive(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	// По умолчанию флаг не установлен
	active, err := store.GetPairedActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, store.SetPairedActive(ctx, true))
	active, err = store.GetPairedActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	// Явный unpair
	require.NoError(t, store.SetPairedActive(ctx, false))
	active, err = store.GetPairedActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestUserID(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.GetUserID(ctx)
	assert.ErrorIs(t, err, storage.ErrUserIDNotFound)

	require.NoError(t, store.SaveUserID(ctx, "u1"))
	userID, err := store.GetUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	// Повторная запись перезаписывает значение
	require.NoError(t, store.SaveUserID(ctx, "u2"))
	userID, err = store.GetUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u2", userID)
}

func TestPairing_Closed(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	db := store.db
	store.db = nil
	defer func() { store.db = db }()

	_, err := store.GetPairedActive(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.SetPairedActive(ctx, true), storage.ErrStorageClosed)
	_, err = store.GetUserID(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.SaveUserID(ctx, "u1"), storage.ErrStorageClosed)
}
