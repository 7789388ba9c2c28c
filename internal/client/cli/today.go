package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/healthsync/internal/client/api"
	"github.com/iudanet/healthsync/internal/models"
)

// RunToday печатает сегодняшние шаги из общего документа на сервере.
// Документ за другой день показывается как 0 шагов.
func (c *Cli) RunToday(ctx context.Context, userID string) error {
	if userID == "" {
		st, err := c.agent.AgentStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to get agent status: %w", err)
		}
		if st.UserID == "" {
			return ErrNotLoggedIn
		}
		userID = st.UserID
	}

	today := models.DayOf(c.now())

	data, err := c.remote.GetLiveData(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			c.io.Printf("%s: 0 steps (no data yet)\n", today)
			return nil
		}
		return fmt.Errorf("failed to get live data: %w", err)
	}

	rec := data.Record()
	c.io.Printf("%s: %d steps\n", today, rec.StepsFor(today))
	if rec.HeartRate > 0 {
		c.io.Printf("Heart rate: %d bpm (%s)\n", rec.HeartRate, rec.Source.Authority())
	}
	return nil
}
