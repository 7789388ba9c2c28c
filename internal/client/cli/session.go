package cli

import (
	"context"
)

// RunSessionStart просит часы начать тренировку
func (c *Cli) RunSessionStart(ctx context.Context) error {
	resp, err := c.agent.StartSession(ctx)
	if err != nil {
		return err
	}
	c.io.Println("Session start sent:")
	c.printOutcomes(resp)
	return nil
}

// RunSessionStop просит часы закончить тренировку
func (c *Cli) RunSessionStop(ctx context.Context) error {
	resp, err := c.agent.StopSession(ctx)
	if err != nil {
		return err
	}
	c.io.Println("Session stop sent:")
	c.printOutcomes(resp)
	return nil
}
