package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/healthsync/internal/client/events"
)

// RunEvents печатает события агента до отмены ctx или разрыва соединения
func (c *Cli) RunEvents(ctx context.Context) error {
	ch, err := c.agent.SubscribeEvents(ctx)
	if err != nil {
		return err
	}

	c.io.Println("Listening for agent events (Ctrl+C to stop)...")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("event stream closed by agent")
			}
			c.printEvent(ev)
		}
	}
}

func (c *Cli) printEvent(ev events.Event) {
	line := fmt.Sprintf("%s  %-18s", ev.At.Local().Format(time.TimeOnly), ev.Name)
	if ev.NodeID != "" {
		line += "  node=" + ev.NodeID
	}
	if ev.Payload != nil {
		if raw, err := json.Marshal(ev.Payload); err == nil {
			line += "  " + string(raw)
		}
	}
	c.io.Println(line)
}
