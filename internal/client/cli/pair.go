package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/healthsync/internal/validation"
)

// RunLogin сохраняет userID в агенте
func (c *Cli) RunLogin(ctx context.Context, userID string) error {
	if err := validation.ValidateUserID(userID); err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	if err := c.agent.Login(ctx, userID); err != nil {
		return err
	}
	c.io.Printf("✓ Logged in as %s\n", userID)
	return nil
}

// RunPair сопрягает подключённые часы. Пустой userID означает
// пользователя, под которым залогинен агент.
func (c *Cli) RunPair(ctx context.Context, userID string) error {
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

	c.io.Printf("Pairing watches with %s...\n", userID)
	resp, err := c.agent.Pair(ctx, userID)
	if err != nil {
		return err
	}
	c.printOutcomes(resp)
	return nil
}

// RunUnpair снимает сопряжение. Без force спрашивает подтверждение.
func (c *Cli) RunUnpair(ctx context.Context, force bool) error {
	if !force {
		answer, err := c.io.ReadInput("Unpair the watch? Steps will be counted by the phone. [y/N]: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
		default:
			return ErrAborted
		}
	}

	if err := c.agent.Unpair(ctx); err != nil {
		return err
	}
	c.io.Println("✓ Watch unpaired")
	return nil
}
