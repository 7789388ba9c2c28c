package cli

import (
	"context"
	"fmt"
	"time"
)

// RunStatus печатает состояние агента
func (c *Cli) RunStatus(ctx context.Context) error {
	st, err := c.agent.AgentStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get agent status: %w", err)
	}

	c.io.Println("=== Agent Status ===")
	c.io.Println()

	if st.UserID == "" {
		c.io.Println("User: not logged in")
		c.io.Println("Run 'healthsync-agent login <user-id>' to log in.")
	} else {
		c.io.Printf("User: %s\n", st.UserID)
	}

	c.io.Printf("State: %s\n", st.State)
	c.io.Printf("Authoritative source: %s\n", st.AuthoritativeSource)
	c.io.Printf("Watch present: %t, paired: %t\n", st.Present, st.PairedActive)
	c.io.Printf("Phone sampling: %t (sensor available: %t)\n", st.Sampling, st.SensorAvailable)

	if st.PendingSessions > 0 {
		c.io.Printf("Pending pairing sessions: %d\n", st.PendingSessions)
	}

	c.io.Println()
	if len(st.Nodes) == 0 {
		c.io.Println("No watches connected.")
	} else {
		c.io.Printf("Connected watches (%d):\n", len(st.Nodes))
		for _, n := range st.Nodes {
			name := n.DisplayName
			if name == "" {
				name = "-"
			}
			c.io.Printf("  %s  %s\n", n.ID, name)
		}
	}

	c.io.Println()
	if st.Baseline == nil {
		c.io.Println("Baseline: none")
		return nil
	}
	b := st.Baseline
	c.io.Printf("Baseline: %d steps on %s, heart rate %d, source %s (revision %d)\n",
		b.Steps, b.Date, b.HeartRate, b.Source, b.Revision)
	if b.LastUpdate > 0 {
		c.io.Printf("Last update: %s\n", time.UnixMilli(b.LastUpdate).Format(time.RFC3339))
	}

	return nil
}
