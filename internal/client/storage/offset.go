package storage

import (
	"context"

	"github.com/iudanet/healthsync/internal/models"
)

//go:generate moq -out offset_mock.go . OffsetStorage

// OffsetStorage defines interface for persisting the daily step offset.
// The record is owned by the step accountant; nothing else writes it.
type OffsetStorage interface {
	// GetDailyOffset returns the persisted offset record
	// Returns ErrOffsetNotFound on first run
	GetDailyOffset(ctx context.Context) (*models.DailyOffsetRecord, error)

	// SaveDailyOffset replaces the persisted offset record
	SaveDailyOffset(ctx context.Context, record models.DailyOffsetRecord) error
}
