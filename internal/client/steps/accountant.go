// Package steps converts the hardware cumulative step counter into
// "steps since local midnight".
package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/healthsync/internal/client/storage"
	"github.com/iudanet/healthsync/internal/models"
)

// Accountant owns the persisted DailyOffsetRecord.
// Calls are serialized: the record is read, compared and written under one lock.
type Accountant struct {
	store  storage.OffsetStorage
	logger *slog.Logger
	mu     sync.Mutex
}

// NewAccountant creates a new step accountant
func NewAccountant(store storage.OffsetStorage, logger *slog.Logger) *Accountant {
	return &Accountant{
		store:  store,
		logger: logger,
	}
}

// ComputeDailySteps returns the steps taken on today for a raw counter value.
//
// A new day (or the first run) anchors the offset at the current counter and
// returns 0; steps taken before the first reading of the day are not counted.
// A counter below the offset means the device rebooted: the offset is moved
// down to the counter and 0 is returned.
func (a *Accountant) ComputeDailySteps(ctx context.Context, rawCumulative uint64, today models.CalendarDay) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	record, err := a.store.GetDailyOffset(ctx)
	if err != nil && !errors.Is(err, storage.ErrOffsetNotFound) {
		return 0, fmt.Errorf("failed to load daily offset: %w", err)
	}

	// Новый день или первый запуск
	if record == nil || record.Date != today {
		if err := a.store.SaveDailyOffset(ctx, models.DailyOffsetRecord{Date: today, Offset: rawCumulative}); err != nil {
			return 0, fmt.Errorf("failed to save daily offset: %w", err)
		}
		a.logger.Debug("Daily offset anchored", "date", today, "offset", rawCumulative)
		return 0, nil
	}

	// Счётчик меньше offset - устройство перезагрузилось
	if rawCumulative < record.Offset {
		if err := a.store.SaveDailyOffset(ctx, models.DailyOffsetRecord{Date: today, Offset: rawCumulative}); err != nil {
			return 0, fmt.Errorf("failed to save daily offset: %w", err)
		}
		a.logger.Info("Step counter reset detected",
			"date", today,
			"old_offset", record.Offset,
			"new_offset", rawCumulative)
		return 0, nil
	}

	return rawCumulative - record.Offset, nil
}
