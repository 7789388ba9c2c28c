package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/healthsync/internal/client/storage"
	"github.com/iudanet/healthsync/internal/models"
)

const (
	keyLastStepDate   = "last_step_date"
	keyDayOffsetSteps = "day_offset_steps"
)

// GetDailyOffset returns the persisted daily offset record.
// Returns storage.ErrOffsetNotFound if either key is missing.
func (s *Storage) GetDailyOffset(ctx context.Context) (*models.DailyOffsetRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var record *models.DailyOffsetRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPhoneSteps)
		if bucket == nil {
			return fmt.Errorf("phone_steps bucket not found")
		}

		dateBytes := bucket.Get([]byte(keyLastStepDate))
		offsetBytes := bucket.Get([]byte(keyDayOffsetSteps))
		if dateBytes == nil || offsetBytes == nil {
			return storage.ErrOffsetNotFound
		}
		if len(offsetBytes) != 8 {
			return fmt.Errorf("corrupted %s value: %d bytes", keyDayOffsetSteps, len(offsetBytes))
		}

		record = &models.DailyOffsetRecord{
			Date:   models.CalendarDay(dateBytes),
			Offset: binary.BigEndian.Uint64(offsetBytes),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// SaveDailyOffset persists date and offset in one transaction,
// so a reader never observes a new date with an old offset.
func (s *Storage) SaveDailyOffset(ctx context.Context, record models.DailyOffsetRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	offsetBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(offsetBytes, record.Offset)

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPhoneSteps)
		if bucket == nil {
			return fmt.Errorf("phone_steps bucket not found")
		}

		if err := bucket.Put([]byte(keyLastStepDate), []byte(record.Date)); err != nil {
			return fmt.Errorf("failed to save %s: %w", keyLastStepDate, err)
		}
		if err := bucket.Put([]byte(keyDayOffsetSteps), offsetBytes); err != nil {
			return fmt.Errorf("failed to save %s: %w", keyDayOffsetSteps, err)
		}

		return nil
	})
}
