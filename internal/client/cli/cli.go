// Package cli реализует команды управления запущенным агентом.
package cli

import (
	"errors"
	"time"

	"github.com/iudanet/healthsync/internal/client/api"
	"github.com/iudanet/healthsync/internal/client/iocli"
	pkgapi "github.com/iudanet/healthsync/pkg/api"
)

// ErrNotLoggedIn агент ещё не знает идентификатор пользователя
var ErrNotLoggedIn = errors.New("agent is not logged in")

// ErrAborted пользователь отказался от операции
var ErrAborted = errors.New("aborted by user")

type Cli struct {
	agent  api.AgentAPI
	remote api.ClientAPI
	io     iocli.IO
	now    func() time.Time
}

// New создаёт Cli. agent - локальный API агента, remote - API сервера live_data.
func New(agent api.AgentAPI, remote api.ClientAPI, io iocli.IO) *Cli {
	return &Cli{
		agent:  agent,
		remote: remote,
		io:     io,
		now:    time.Now,
	}
}

// printOutcomes печатает результат рассылки по узлам
func (c *Cli) printOutcomes(resp *pkgapi.BroadcastResponse) {
	for _, n := range resp.Nodes {
		if n.Error != "" {
			c.io.Printf("  ✗ %s: %s (attempts: %d)\n", n.NodeID, n.Error, n.Attempts)
			continue
		}
		c.io.Printf("  ✓ %s (attempts: %d)\n", n.NodeID, n.Attempts)
	}
	c.io.Printf("Delivered: %d/%d\n", resp.Delivered, len(resp.Nodes))
}
