package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/healthsync/internal/models"
	"github.com/iudanet/healthsync/internal/server/storage"
)

var (
	_ storage.LiveDataStorage  = (*Storage)(nil)
	_ storage.HeartRateStorage = (*Storage)(nil)
)

// GetLiveData retrieves the live_data document of a user
func (s *Storage) GetLiveData(ctx context.Context, userID string) (*models.LiveHealthRecord, error) {
	return getLiveData(ctx, s.db, userID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getLiveData(ctx context.Context, q querier, userID string) (*models.LiveHealthRecord, error) {
	query := `
		SELECT steps, heart_rate, source, date, last_update, revision
		FROM live_data
		WHERE user_id = ?
	`

	var (
		rec        models.LiveHealthRecord
		steps      int64
		heartRate  int64
		source     string
		date       string
		lastUpdate int64
	)

	err := q.QueryRowContext(ctx, query, userID).Scan(
		&steps,
		&heartRate,
		&source,
		&date,
		&lastUpdate,
		&rec.Revision,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrLiveDataNotFound
		}
		return nil, fmt.Errorf("failed to get live data: %w", err)
	}

	rec.Steps = uint64(steps)
	rec.HeartRate = uint32(heartRate)
	rec.Source = models.Source(source)
	rec.Date = models.CalendarDay(date)
	if lastUpdate > 0 {
		rec.LastUpdate = time.UnixMilli(lastUpdate)
	}

	return &rec, nil
}

// UpdateLiveData merges patch into the document in a single transaction
// and increments the revision
func (s *Storage) UpdateLiveData(ctx context.Context, userID string, patch models.LiveHealthPatch) (*models.LiveHealthRecord, error) {
	if patch.Empty() {
		return nil, storage.ErrEmptyPatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := getLiveData(ctx, tx, userID)
	if err != nil && !errors.Is(err, storage.ErrLiveDataNotFound) {
		return nil, err
	}
	if current == nil {
		current = &models.LiveHealthRecord{}
	}

	merged := patch.Apply(*current)
	merged.Revision = current.Revision + 1

	var lastUpdate int64
	if !merged.LastUpdate.IsZero() {
		lastUpdate = merged.LastUpdate.UnixMilli()
	}

	query := `
		INSERT INTO live_data (
			user_id, steps, heart_rate, source, date,
			last_update, revision, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			steps = excluded.steps,
			heart_rate = excluded.heart_rate,
			source = excluded.source,
			date = excluded.date,
			last_update = excluded.last_update,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`

	_, err = tx.ExecContext(ctx, query,
		userID,
		int64(merged.Steps),
		int64(merged.HeartRate),
		string(merged.Source),
		string(merged.Date),
		lastUpdate,
		merged.Revision,
		time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert live data: %w", err)
	}

	// История пульса пополняется каждой записью с пульсом
	if patch.HeartRate != nil && *patch.HeartRate > 0 {
		recordedAt := lastUpdate
		if recordedAt == 0 {
			recordedAt = time.Now().UnixMilli()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO heart_rate_history (user_id, heart_rate, source, recorded_at) VALUES (?, ?, ?, ?)`,
			userID,
			int64(*patch.HeartRate),
			string(merged.Source),
			recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to append heart rate history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &merged, nil
}

// HeartRateHistory returns the latest heart rate samples of a user, newest first
func (s *Storage) HeartRateHistory(ctx context.Context, userID string, limit int) ([]models.HeartRateSample, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT heart_rate, source, recorded_at
		FROM heart_rate_history
		WHERE user_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query heart rate history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	samples := make([]models.HeartRateSample, 0)
	for rows.Next() {
		var (
			hr         int64
			source     string
			recordedAt int64
		)
		if err := rows.Scan(&hr, &source, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan heart rate sample: %w", err)
		}
		samples = append(samples, models.HeartRateSample{
			HeartRate:  uint32(hr),
			Source:     models.Source(source),
			RecordedAt: time.UnixMilli(recordedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate heart rate history: %w", err)
	}

	return samples, nil
}
