// Package companion симулирует часы: подключается к хабу агента,
// запрашивает сопряжение, кэширует идентификатор пользователя и
// отправляет шаги и пульс.
package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/healthsync/internal/client/channel"
	"github.com/iudanet/healthsync/internal/client/pairing"
	"github.com/iudanet/healthsync/internal/client/storage"
	"github.com/iudanet/healthsync/internal/config"
)

const (
	reconnectBase = 500 * time.Millisecond
	reconnectMax  = 15 * time.Second
	inboxSize     = 16
)

// sessionPayload payload health-data во время тренировки
type sessionPayload struct {
	Steps     uint64 `json:"steps"`
	HeartRate uint32 `json:"heart_rate"`
	Timestamp int64  `json:"timestamp"`
}

// passivePayload фоновое измерение пульса вне тренировки
type passivePayload struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

// Companion симулятор часов
type Companion struct {
	cfg      config.Companion
	identity storage.IdentityStorage
	logger   *slog.Logger
	now      func() time.Time
	rng      *rand.Rand
	steps    uint64
	session  bool
	mu       sync.Mutex
}

// New создает симулятор. Идентификатор пользователя кэшируется в identity.
func New(cfg config.Companion, identity storage.IdentityStorage, logger *slog.Logger) *Companion {
	return &Companion{
		cfg:      cfg,
		identity: identity,
		logger:   logger,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
}

// Run подключается к агенту и переподключается после разрывов до отмены ctx
func (c *Companion) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		// Задержка сбрасывается после каждого успешного подключения
		backoff := retry.NewExponential(reconnectBase)
		backoff = retry.WithCappedDuration(reconnectMax, backoff)
		backoff = retry.WithJitterPercent(10, backoff)

		var client *channel.Client
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			cl, err := channel.Dial(ctx, c.cfg.AgentURL, c.cfg.NodeID, c.cfg.DisplayName)
			if err != nil {
				c.logger.Warn("Failed to connect to agent", "url", c.cfg.AgentURL, "error", err)
				return retry.RetryableError(err)
			}
			client = cl
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to connect to agent: %w", err)
		}

		c.logger.Info("Connected to agent", "url", c.cfg.AgentURL, "node_id", c.cfg.NodeID)
		err = c.serve(ctx, client)
		_ = client.Close()
		if ctx.Err() == nil {
			c.logger.Warn("Agent connection lost", "error", err)
		}
	}
	return nil
}

// serve обслуживает одно подключение
func (c *Companion) serve(ctx context.Context, client *channel.Client) error {
	if err := c.hello(ctx, client); err != nil {
		return err
	}

	inbox := make(chan channel.Message, inboxSize)
	recvErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			msg, err := client.Receive()
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case inbox <- msg:
			case <-stop:
				return
			}
		}
	}()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-recvErr:
			return err
		case msg := <-inbox:
			if err := c.handle(ctx, client, msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.pushHealth(ctx, client); err != nil {
				return err
			}
		}
	}
}

// hello запрашивает сопряжение и сообщает закэшированного пользователя
func (c *Companion) hello(ctx context.Context, client *channel.Client) error {
	if err := client.Send(ctx, channel.PathRequestPair, nil); err != nil {
		return err
	}

	userID, err := c.identity.GetUserID(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrUserIDNotFound) {
			c.logger.Warn("Failed to load cached user id", "error", err)
		}
		return nil
	}
	payload, err := json.Marshal(pairing.PairPayload{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to encode pair payload: %w", err)
	}
	return client.Send(ctx, channel.PathPair, payload)
}

func (c *Companion) handle(ctx context.Context, client *channel.Client, msg channel.Message) error {
	switch msg.Path {
	case channel.PathPair:
		userID, err := pairing.ParsePair(msg.Data)
		if err != nil {
			c.logger.Debug("Ignoring malformed pair message", "error", err)
			return nil
		}
		// Каждое сообщение pair перезаписывает кэш
		if err := c.identity.SaveUserID(ctx, userID); err != nil {
			c.logger.Error("Failed to cache user id", "error", err)
			return nil
		}
		c.logger.Info("Paired with user", "user_id", userID)
		payload, err := json.Marshal(pairing.PairPayload{UserID: userID})
		if err != nil {
			return fmt.Errorf("failed to encode pair payload: %w", err)
		}
		return client.Send(ctx, channel.PathPairSuccess, payload)

	case channel.PathStartSession:
		c.setSession(true)
		c.logger.Info("Workout session started")
		return client.Send(ctx, channel.PathStatusUpdate, []byte(`{"status":"session_started"}`))

	case channel.PathStopSession:
		c.setSession(false)
		c.logger.Info("Workout session stopped")
		return client.Send(ctx, channel.PathStatusUpdate, []byte(`{"status":"session_stopped"}`))

	default:
		c.logger.Debug("Ignoring message", "path", msg.Path)
		return nil
	}
}

func (c *Companion) setSession(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = active
}

// InSession сообщает, идёт ли тренировка
func (c *Companion) InSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// pushHealth отправляет шаги и пульс во время тренировки,
// вне тренировки только фоновый пульс
func (c *Companion) pushHealth(ctx context.Context, client *channel.Client) error {
	c.mu.Lock()
	active := c.session
	hr := 60 + c.rng.Uint32N(40)
	if active {
		c.steps += c.cfg.StepsPerTick
	}
	steps := c.steps
	c.mu.Unlock()

	ts := c.now().UnixMilli()

	var (
		payload []byte
		err     error
	)
	if active {
		payload, err = json.Marshal(sessionPayload{Steps: steps, HeartRate: hr, Timestamp: ts})
	} else {
		payload, err = json.Marshal(passivePayload{
			Type:      "heart_rate",
			Value:     strconv.FormatFloat(float64(hr), 'f', 1, 64),
			Timestamp: ts,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to encode health data: %w", err)
	}
	return client.Send(ctx, channel.PathHealthData, payload)
}
