// Package arbiter decides which source is authoritative for step data and
// whether the phone's own step counter should be sampling.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/healthsync/internal/client/sensor"
	"github.com/iudanet/healthsync/internal/client/storage"
	"github.com/iudanet/healthsync/internal/models"
)

//go:generate moq -out nodelister_mock.go . NodeLister
//go:generate moq -out sensorcontroller_mock.go . SensorController

// NodeLister performs a presence check of companion devices
type NodeLister interface {
	ConnectedNodes(ctx context.Context) ([]models.Node, error)
}

// SensorController registers/unregisters the local step counter
type SensorController interface {
	Start() error
	Stop() error
}

// State is the arbiter state derived from models.ConnectionState
type State int

const (
	// NoCompanion - companion not present, phone is authoritative
	NoCompanion State = iota
	// CompanionPresentUnpaired - companion present but never paired, phone is authoritative
	CompanionPresentUnpaired
	// CompanionActive - companion present and paired, companion is authoritative
	CompanionActive
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case NoCompanion:
		return "no_companion"
	case CompanionPresentUnpaired:
		return "companion_present_unpaired"
	case CompanionActive:
		return "companion_active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateOf composes the two orthogonal booleans into a State
func StateOf(conn models.ConnectionState) State {
	switch {
	case !conn.Present:
		return NoCompanion
	case !conn.PairedActive:
		return CompanionPresentUnpaired
	default:
		return CompanionActive
	}
}

// Arbiter tracks companion presence and the persisted pairing flag.
// All state changes go through mu; the pairing flag is written only here.
type Arbiter struct {
	nodes  NodeLister
	store  storage.PairingStorage
	sensor SensorController
	logger *slog.Logger

	conn     models.ConnectionState
	sampling bool
	// sensorMissing не даёт логировать отсутствие датчика на каждой проверке
	sensorMissing bool
	// messageSeq растёт с каждым входящим сообщением; проверка присутствия,
	// начатая до сообщения, не может вернуть состояние NoCompanion
	messageSeq uint64
	// flagSeq растёт при явном MarkPaired/Unpair; флаг из хранилища,
	// прочитанный до такого изменения, устарел
	flagSeq uint64
	mu      sync.Mutex
}

// New creates an arbiter. The persisted pairing flag is loaded here;
// presence is unknown (treated as absent) until the first Check.
// sensor may be nil when the device has no step counter.
func New(ctx context.Context, nodes NodeLister, store storage.PairingStorage, sensorCtl SensorController, logger *slog.Logger) (*Arbiter, error) {
	paired, err := store.GetPairedActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairing flag: %w", err)
	}

	return &Arbiter{
		nodes:  nodes,
		store:  store,
		sensor: sensorCtl,
		logger: logger,
		conn:   models.ConnectionState{PairedActive: paired},
	}, nil
}

// Check runs a presence check, reloads the pairing flag and applies sampling
func (a *Arbiter) Check(ctx context.Context) (State, error) {
	a.mu.Lock()
	seq, flagSeq := a.messageSeq, a.flagSeq
	a.mu.Unlock()

	// Сетевой вызов выполняем без блокировки
	nodes, err := a.nodes.ConnectedNodes(ctx)
	if err != nil {
		return a.State(), fmt.Errorf("presence check failed: %w", err)
	}

	paired, err := a.store.GetPairedActive(ctx)
	if err != nil {
		return a.State(), fmt.Errorf("failed to load pairing flag: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	present := len(nodes) > 0
	if !present && a.messageSeq != seq {
		// Пока шла проверка, пришло сообщение от устройства - оно сильнее опроса
		present = true
	}

	// Флаг липкий: сохранённое значение только добавляется к памяти,
	// неудачная запись в ObserveMessage не сбрасывает сопряжение
	if a.flagSeq == flagSeq {
		paired = paired || a.conn.PairedActive
	} else {
		paired = a.conn.PairedActive
	}

	prev := StateOf(a.conn)
	a.conn = models.ConnectionState{Present: present, PairedActive: paired}
	state := StateOf(a.conn)

	a.logger.Debug("Presence check",
		"nodes", len(nodes),
		"paired_active", paired,
		"state", state.String())
	if prev != state {
		a.logger.Info("Connection state changed", "from", prev.String(), "to", state.String())
	}

	a.applySamplingLocked()

	return state, nil
}

// ObserveMessage is the liveness hook: any inbound companion message proves
// the companion is present and paired. The flag is persisted and sampling
// stops immediately.
func (a *Arbiter) ObserveMessage(ctx context.Context, nodeID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.messageSeq++

	if !a.conn.PairedActive {
		if err := a.store.SetPairedActive(ctx, true); err != nil {
			// Состояние в памяти всё равно переводим в active
			a.logger.Warn("Failed to persist pairing flag", "node_id", nodeID, "error", err)
		}
	}

	prev := StateOf(a.conn)
	a.conn = models.ConnectionState{Present: true, PairedActive: true}
	if prev != CompanionActive {
		a.logger.Info("Companion message received, switching to companion",
			"node_id", nodeID,
			"from", prev.String())
	}

	a.applySamplingLocked()
}

// MarkPaired records an explicit pairing initiated on the phone.
// Presence is left as is: only a presence check or an inbound message
// makes the companion authoritative.
func (a *Arbiter) MarkPaired(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.SetPairedActive(ctx, true); err != nil {
		return fmt.Errorf("failed to persist pairing flag: %w", err)
	}

	a.flagSeq++
	a.conn.PairedActive = true
	a.applySamplingLocked()

	return nil
}

// Unpair clears the pairing flag. The phone becomes authoritative and
// sampling resumes regardless of presence.
func (a *Arbiter) Unpair(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.SetPairedActive(ctx, false); err != nil {
		return fmt.Errorf("failed to clear pairing flag: %w", err)
	}

	a.flagSeq++
	a.conn.PairedActive = false
	a.logger.Info("Companion unpaired", "state", StateOf(a.conn).String())
	a.applySamplingLocked()

	return nil
}

// State returns the current arbiter state
func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return StateOf(a.conn)
}

// ConnectionState returns the current presence and pairing booleans
func (a *Arbiter) ConnectionState() models.ConnectionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn
}

// AuthoritativeSource returns the source allowed to write step data
func (a *Arbiter) AuthoritativeSource() models.Source {
	if a.State() == CompanionActive {
		return models.SourceWatch
	}
	return models.SourcePhone
}

// SamplingEnabled reports whether the phone counter should be sampling
func (a *Arbiter) SamplingEnabled() bool {
	return a.State() != CompanionActive
}

// Run performs a presence check every interval until ctx is done
func (a *Arbiter) Run(ctx context.Context, interval time.Duration) {
	if _, err := a.Check(ctx); err != nil {
		a.logger.Warn("Presence check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Check(ctx); err != nil {
				a.logger.Warn("Presence check failed", "error", err)
			}
		}
	}
}

// applySamplingLocked starts or stops the phone counter. mu must be held.
func (a *Arbiter) applySamplingLocked() {
	if a.sensor == nil {
		return
	}

	want := StateOf(a.conn) != CompanionActive

	switch {
	case want && !a.sampling:
		if err := a.sensor.Start(); err != nil {
			if errors.Is(err, sensor.ErrSensorUnavailable) {
				if !a.sensorMissing {
					a.logger.Warn("Step counter not available, phone steps disabled", "error", err)
					a.sensorMissing = true
				}
				return
			}
			a.logger.Error("Failed to start step counter", "error", err)
			return
		}
		a.sampling = true
		a.sensorMissing = false
		a.logger.Info("Phone step counting started")

	case !want && a.sampling:
		if err := a.sensor.Stop(); err != nil {
			a.logger.Warn("Failed to stop step counter", "error", err)
		}
		a.sampling = false
		a.logger.Info("Phone step counting stopped")
	}
}
