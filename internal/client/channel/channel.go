// Package channel implements the best-effort message channel between the
// agent and companion devices.
package channel

import (
	"context"
	"errors"
	"strings"

	"github.com/iudanet/healthsync/internal/models"
)

//go:generate moq -out channel_mock.go . Channel

// Пути сообщений протокола
const (
	PathRequestPair    = "request-pair"
	PathPair           = "pair"
	PathHealthData     = "health-data"
	PathStartSession   = "start-session"
	PathStopSession    = "stop-session"
	PathStatusUpdate   = "status-update"
	PathRequestSync    = "request-sync"
	PathPairSuccess    = "pair-success"
	PathRequestBattery = "request-battery"
)

var (
	// ErrNodeNotConnected узел не подключён к хабу
	ErrNodeNotConnected = errors.New("node not connected")
	// ErrClosed канал закрыт
	ErrClosed = errors.New("channel closed")
)

// Channel is the message channel seen by the protocol layer
type Channel interface {
	ConnectedNodes(ctx context.Context) ([]models.Node, error)
	Send(ctx context.Context, nodeID, path string, payload []byte) error
}

// Message входящее сообщение от узла
type Message struct {
	NodeID string
	Path   string
	Data   []byte
}

// Frame формат кадра на проводе. Data кодируется в base64 через encoding/json.
type Frame struct {
	Path   string `json:"path"`
	NodeID string `json:"node_id,omitempty"`
	Data   []byte `json:"data,omitempty"`
}

// NormalizePath убирает ведущий "/", так что "pair" и "/pair" эквивалентны
func NormalizePath(path string) string {
	return strings.TrimPrefix(strings.TrimSpace(path), "/")
}
