// Package agent собирает компоненты агента телефона в одну сессию:
// датчик шагов, арбитр подключения, защищённую синхронизацию,
// протокол сопряжения и хаб часов.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	httpClient "github.com/iudanet/healthsync/internal/client/api"
	"github.com/iudanet/healthsync/internal/client/arbiter"
	"github.com/iudanet/healthsync/internal/client/channel"
	"github.com/iudanet/healthsync/internal/client/events"
	"github.com/iudanet/healthsync/internal/client/pairing"
	"github.com/iudanet/healthsync/internal/client/sensor"
	"github.com/iudanet/healthsync/internal/client/steps"
	"github.com/iudanet/healthsync/internal/client/storage/boltdb"
	hsync "github.com/iudanet/healthsync/internal/client/sync"
	"github.com/iudanet/healthsync/internal/config"
	"github.com/iudanet/healthsync/internal/models"
)

const shutdownTimeout = 5 * time.Second

// Session явный объект сессии агента. Все компоненты создаются
// в NewSession и живут до Close.
type Session struct {
	cfg        config.Agent
	logger     *slog.Logger
	now        func() time.Time
	store      *boltdb.Storage
	accountant *steps.Accountant
	counter    *sensor.FileCounter
	hub        *channel.Hub
	arbiter    *arbiter.Arbiter
	guard      *hsync.Guard
	protocol   *pairing.Protocol
	bus        *events.Bus
	sink       events.Sink
	// readings последнее необработанное показание датчика
	readings chan models.RawSensorReading
}

// NewSession открывает локальное хранилище и связывает компоненты
func NewSession(ctx context.Context, cfg config.Agent, logger *slog.Logger) (*Session, error) {
	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	s := &Session{
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		store:      store,
		accountant: steps.NewAccountant(store, logger),
		hub:        channel.NewHub(logger),
		bus:        events.NewBus(logger),
		readings:   make(chan models.RawSensorReading, 1),
	}
	s.sink = events.Multi{events.NewLogSink(logger), s.bus}
	s.counter = sensor.NewFileCounter(cfg.StepCounterPath, s.onReading, logger)

	s.arbiter, err = arbiter.New(ctx, s.hub, store, s.counter, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create arbiter: %w", err)
	}

	s.guard = hsync.NewGuard(httpClient.NewClient(cfg.ServerURL), s.arbiter, store, s.sink, hsync.Options{
		Tolerance:     cfg.Sync.Tolerance,
		ReconnectBase: cfg.Sync.ReconnectBase,
		ReconnectMax:  cfg.Sync.ReconnectMax,
	}, logger)

	s.protocol, err = pairing.New(ctx, s.hub, s.arbiter, s.guard, store, s.sink, pairing.Options{
		SendTimeout: cfg.Pairing.SendTimeout,
		Backoff:     cfg.Pairing.Backoff,
		SessionTTL:  cfg.Pairing.SessionTTL,
		Retries:     cfg.Pairing.Retries,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create pairing protocol: %w", err)
	}

	// Единственная точка входа для сообщений часов
	s.hub.SetHandler(s.protocol.HandleMessage)
	s.hub.SetPresenceHook(s.onPresence)

	return s, nil
}

// onPresence перепроверяет присутствие при подключении и отключении часов
func (s *Session) onPresence(ctx context.Context, node models.Node, connected bool) {
	s.logger.Info("Companion presence changed", "node_id", node.ID, "name", node.DisplayName, "connected", connected)
	if _, err := s.arbiter.Check(ctx); err != nil {
		s.logger.Warn("Presence check failed", "error", err)
	}
}

// onReading вызывается из горутины датчика. Показания не копятся:
// необработанное старое показание заменяется новым.
func (s *Session) onReading(reading models.RawSensorReading) {
	for {
		select {
		case s.readings <- reading:
			return
		default:
		}
		select {
		case <-s.readings:
		default:
		}
	}
}

// processReadings переводит показания датчика в кандидатов телефона
func (s *Session) processReadings(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reading := <-s.readings:
			s.handleReading(ctx, reading)
		}
	}
}

func (s *Session) handleReading(ctx context.Context, reading models.RawSensorReading) {
	if !s.arbiter.SamplingEnabled() {
		return
	}

	today := models.DayOf(reading.Timestamp)
	stepsToday, err := s.accountant.ComputeDailySteps(ctx, reading.CumulativeCount, today)
	if err != nil {
		s.logger.Error("Failed to compute daily steps, reading dropped", "error", err)
		return
	}

	res, err := s.guard.TrySync(ctx, models.CandidateHealthSample{
		Steps:      stepsToday,
		Source:     models.SourcePhone,
		Date:       today,
		ObservedAt: reading.Timestamp,
	})
	if err != nil {
		s.logger.Warn("Phone steps sync failed", "steps", stepsToday, "error", err)
		return
	}
	s.logger.Debug("Phone steps processed",
		"steps", stepsToday,
		"committed", res.Committed,
		"reason", res.Reason)
}

// Handler возвращает HTTP обработчик агента: /wear, /metrics и /agent/*
func (s *Session) Handler() http.Handler {
	return newControlHandler(s)
}

// Run запускает все фоновые циклы и HTTP сервер и блокируется до отмены ctx
func (s *Session) Run(ctx context.Context) error {
	if !s.counter.Available() {
		s.sink.Emit(ctx, events.Event{Name: events.SensorLost, At: s.now()})
	}

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Agent listening", "addr", s.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("agent http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		// Хаб закрываем до Shutdown: websocket соединения не завершаются сами
		_ = s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.arbiter.Run(gCtx, s.cfg.PresenceInterval)
		return nil
	})
	g.Go(func() error {
		return s.guard.Run(gCtx)
	})
	g.Go(func() error {
		s.processReadings(gCtx)
		return nil
	})

	return g.Wait()
}

// Close останавливает датчик и протокол и закрывает хранилище
func (s *Session) Close() error {
	if err := s.counter.Stop(); err != nil {
		s.logger.Warn("Failed to stop step counter", "error", err)
	}
	s.protocol.Close()
	s.protocol.Wait()
	_ = s.hub.Close()
	return s.store.Close()
}

// Login сохраняет идентификатор пользователя (вход в приложение)
func (s *Session) Login(ctx context.Context, userID string) error {
	return s.protocol.SetUserID(ctx, userID)
}

// Pair сопрягает все подключённые часы с userID
func (s *Session) Pair(ctx context.Context, userID string) (pairing.PairResult, error) {
	return s.protocol.PairAll(ctx, userID)
}

// Unpair снимает флаг сопряжения и возобновляет подсчёт шагов телефоном
func (s *Session) Unpair(ctx context.Context) error {
	return s.arbiter.Unpair(ctx)
}

// StartSession отправляет часам сигнал начала тренировки
func (s *Session) StartSession(ctx context.Context) (pairing.PairResult, error) {
	return s.protocol.StartSession(ctx)
}

// StopSession отправляет часам сигнал окончания тренировки
func (s *Session) StopSession(ctx context.Context) (pairing.PairResult, error) {
	return s.protocol.StopSession(ctx)
}
