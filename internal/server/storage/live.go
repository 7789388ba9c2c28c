package storage

import (
	"context"

	"github.com/iudanet/healthsync/internal/models"
)

// LiveDataStorage defines interface for users/{userId}/live_data persistence
type LiveDataStorage interface {
	// GetLiveData retrieves the document of a user
	// Returns ErrLiveDataNotFound if the document was never written
	GetLiveData(ctx context.Context, userID string) (*models.LiveHealthRecord, error)

	// UpdateLiveData merges patch into the document (absent fields are preserved),
	// creating it if needed, and increments its revision.
	// Returns the merged document.
	UpdateLiveData(ctx context.Context, userID string, patch models.LiveHealthPatch) (*models.LiveHealthRecord, error)

	// Ping checks that the storage is reachable
	Ping(ctx context.Context) error
}

// HeartRateStorage defines interface for heart rate history
type HeartRateStorage interface {
	// HeartRateHistory returns the latest samples of a user, newest first
	// Returns empty slice if no samples found
	HeartRateHistory(ctx context.Context, userID string, limit int) ([]models.HeartRateSample, error)
}
