// Package sync commits health samples to the remote live_data document,
// guarding the shared record against regressions and stale sources.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sethvargo/go-retry"

	httpClient "github.com/iudanet/healthsync/internal/client/api"
	"github.com/iudanet/healthsync/internal/client/events"
	"github.com/iudanet/healthsync/internal/client/storage"
	"github.com/iudanet/healthsync/internal/models"
	"github.com/iudanet/healthsync/pkg/api"
)

var (
	// ErrStoreUnavailable удалённое хранилище не инициализировано или недоступно
	ErrStoreUnavailable = errors.New("remote store unavailable")
	// ErrStoreWrite запись в удалённое хранилище не подтверждена
	ErrStoreWrite = errors.New("remote store write failed")
)

var syncDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "healthsync_sync_decisions_total",
	Help: "Regression guard decisions by result",
}, []string{"result"})

//go:generate moq -out authority_mock.go . SourceAuthority

// SourceAuthority сообщает текущий авторитетный источник (arbiter.Arbiter)
type SourceAuthority interface {
	AuthoritativeSource() models.Source
}

// RejectReason причина отказа в записи кандидата
type RejectReason string

const (
	ReasonNone             RejectReason = ""
	ReasonStaleSource      RejectReason = "stale_source"
	ReasonRegression       RejectReason = "regression"
	ReasonStoreUnavailable RejectReason = "store_unavailable"
	ReasonNoUser           RejectReason = "no_user"
	ReasonEmpty            RejectReason = "empty_sample"
)

// Result результат TrySync
type Result struct {
	// Record подтверждённый сервером документ после записи
	Record *models.LiveHealthRecord
	Reason RejectReason
	// Committed true, если запись подтверждена сервером
	Committed bool
	// HeartRateOnly шаги отклонены как регрессия, записан только пульс
	HeartRateOnly bool
	// Correction записано меньшее значение в пределах допуска
	Correction bool
}

// HealthUpdate payload события health-update
type HealthUpdate struct {
	Source    models.Source      `json:"source"`
	Date      models.CalendarDay `json:"date"`
	Steps     uint64             `json:"steps"`
	Revision  int64              `json:"revision"`
	HeartRate uint32             `json:"heart_rate"`
}

// Options настройки Guard
type Options struct {
	// Now источник времени; по умолчанию time.Now
	Now func() time.Time
	// Tolerance допустимый откат шагов за тот же день (0 - любой откат отклоняется)
	Tolerance uint64
	// ReconnectBase начальная задержка переподключения к ленте
	ReconnectBase time.Duration
	// ReconnectMax максимальная задержка переподключения к ленте
	ReconnectMax time.Duration
}

type baseline struct {
	userID string
	record models.LiveHealthRecord
	known  bool
}

// Guard решает, записывать ли кандидата в users/{userId}/live_data.
// Базовая линия обновляется только подтверждёнными данными сервера:
// ответом на запись, лентой изменений или явным чтением.
type Guard struct {
	store     httpClient.ClientAPI
	authority SourceAuthority
	identity  storage.IdentityStorage
	sink      events.Sink
	logger    *slog.Logger
	now       func() time.Time
	reload    chan struct{}
	base      baseline
	opts      Options
	// syncMu сериализует решение и запись
	syncMu gosync.Mutex
	mu     gosync.RWMutex
}

// NewGuard создает Guard. store может быть nil, если хранилище не удалось
// инициализировать; тогда все попытки синхронизации ничего не делают.
func NewGuard(store httpClient.ClientAPI, authority SourceAuthority, identity storage.IdentityStorage, sink events.Sink, opts Options, logger *slog.Logger) *Guard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReconnectBase <= 0 {
		opts.ReconnectBase = time.Second
	}
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 30 * time.Second
	}

	return &Guard{
		store:     store,
		authority: authority,
		identity:  identity,
		sink:      sink,
		logger:    logger,
		now:       opts.Now,
		reload:    make(chan struct{}, 1),
		opts:      opts,
	}
}

// TrySync проверяет кандидата и при успехе записывает его частичным обновлением.
// Отказы StaleSource, Regression, StoreUnavailable и NoUser не являются ошибками.
// Ошибка возвращается, только если сервер не подтвердил запись.
func (g *Guard) TrySync(ctx context.Context, sample models.CandidateHealthSample) (Result, error) {
	if g.store == nil {
		return g.reject(ReasonStoreUnavailable, sample), nil
	}

	if sample.Source.Authority() != g.authority.AuthoritativeSource() {
		return g.reject(ReasonStaleSource, sample), nil
	}

	userID, err := g.identity.GetUserID(ctx)
	if errors.Is(err, storage.ErrUserIDNotFound) || (err == nil && userID == "") {
		return g.reject(ReasonNoUser, sample), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load user id: %w", err)
	}

	g.syncMu.Lock()
	defer g.syncMu.Unlock()

	base, ok := g.baselineFor(userID)
	if !ok {
		if err := g.refresh(ctx, userID); err != nil {
			g.logger.Warn("Failed to read live data baseline", "user_id", userID, "error", err)
			syncDecisions.WithLabelValues(string(ReasonStoreUnavailable)).Inc()
			return Result{Reason: ReasonStoreUnavailable}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		base, _ = g.baselineFor(userID)
	}

	if sample.HeartRateOnly {
		if sample.HeartRate == nil {
			return g.reject(ReasonEmpty, sample), nil
		}
		res, err := g.commit(ctx, userID, api.HeartRateUpdate(sample))
		if err != nil {
			return Result{}, err
		}
		res.HeartRateOnly = true
		syncDecisions.WithLabelValues("heart_rate_only").Inc()
		return res, nil
	}

	accept, correction := g.accepts(base, sample)
	if !accept {
		if sample.HeartRate == nil {
			return g.reject(ReasonRegression, sample), nil
		}
		// Шаги не прогрессируют, но пульс с часов не теряем
		res, err := g.commit(ctx, userID, api.HeartRateUpdate(sample))
		if err != nil {
			return Result{Reason: ReasonRegression}, err
		}
		res.Reason = ReasonRegression
		res.HeartRateOnly = true
		syncDecisions.WithLabelValues("heart_rate_only").Inc()
		return res, nil
	}

	res, err := g.commit(ctx, userID, api.UpdateFromSample(sample))
	if err != nil {
		return Result{}, err
	}
	res.Correction = correction
	if correction {
		g.logger.Info("Committed step correction within tolerance",
			"user_id", userID,
			"from", base.Steps,
			"to", sample.Steps)
		syncDecisions.WithLabelValues("correction").Inc()
	} else {
		syncDecisions.WithLabelValues("committed").Inc()
	}

	return res, nil
}

// accepts применяет правило регрессии к базовой линии
func (g *Guard) accepts(base models.LiveHealthRecord, sample models.CandidateHealthSample) (bool, bool) {
	// Новый день для документа - пишем без условий
	if sample.Date != base.Date {
		return true, false
	}
	if base.Steps == 0 || sample.Steps > base.Steps {
		return true, false
	}
	if sample.Steps < base.Steps && base.Steps-sample.Steps <= g.opts.Tolerance {
		return true, true
	}
	return false, false
}

func (g *Guard) commit(ctx context.Context, userID string, update api.LiveDataUpdate) (Result, error) {
	doc, err := g.store.UpdateLiveData(ctx, userID, update)
	if err != nil {
		// Базовую линию не трогаем
		g.logger.Warn("Failed to write live data", "user_id", userID, "error", err)
		syncDecisions.WithLabelValues("write_failed").Inc()
		return Result{}, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	rec := doc.Record()
	g.observe(userID, rec, false)

	g.logger.Debug("Live data committed",
		"user_id", userID,
		"steps", rec.Steps,
		"source", rec.Source,
		"revision", rec.Revision)

	return Result{Committed: true, Record: &rec}, nil
}

func (g *Guard) reject(reason RejectReason, sample models.CandidateHealthSample) Result {
	syncDecisions.WithLabelValues(string(reason)).Inc()
	g.logger.Debug("Candidate rejected",
		"reason", string(reason),
		"source", sample.Source,
		"date", sample.Date,
		"steps", sample.Steps)
	return Result{Reason: reason}
}

// Refresh перечитывает документ с сервера и заменяет базовую линию
func (g *Guard) Refresh(ctx context.Context) error {
	if g.store == nil {
		return ErrStoreUnavailable
	}
	userID, err := g.identity.GetUserID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load user id: %w", err)
	}
	return g.refresh(ctx, userID)
}

func (g *Guard) refresh(ctx context.Context, userID string) error {
	doc, err := g.store.GetLiveData(ctx, userID)
	if errors.Is(err, httpClient.ErrNotFound) {
		// Документа ещё нет - базовая линия пустая
		g.observe(userID, models.LiveHealthRecord{}, true)
		return nil
	}
	if err != nil {
		return err
	}
	g.observe(userID, doc.Record(), true)
	return nil
}

// Baseline возвращает текущую базовую линию
func (g *Guard) Baseline() (models.LiveHealthRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.base.record, g.base.known
}

func (g *Guard) baselineFor(userID string) (models.LiveHealthRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.base.known || g.base.userID != userID {
		return models.LiveHealthRecord{}, false
	}
	return g.base.record, true
}

// observe обновляет базовую линию. Без force записи с ревизией не новее
// текущей игнорируются.
func (g *Guard) observe(userID string, rec models.LiveHealthRecord, force bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !force && g.base.known && g.base.userID == userID && rec.Revision <= g.base.record.Revision {
		return false
	}
	g.base = baseline{userID: userID, record: rec, known: true}
	return true
}

// Reload переподключает ленту изменений (например, после смены пользователя)
func (g *Guard) Reload() {
	select {
	case g.reload <- struct{}{}:
	default:
	}
}

// Run читает ленту изменений до отмены ctx. Разрывы ленты переподключаются
// с экспоненциальной задержкой.
func (g *Guard) Run(ctx context.Context) error {
	if g.store == nil {
		g.logger.Warn("Remote store unavailable, live data feed disabled")
		<-ctx.Done()
		return nil
	}

	for ctx.Err() == nil {
		var (
			feed   <-chan api.LiveData
			userID string
		)

		backoff := retry.NewExponential(g.opts.ReconnectBase)
		backoff = retry.WithCappedDuration(g.opts.ReconnectMax, backoff)
		backoff = retry.WithJitterPercent(10, backoff)

		subCtx, cancel := context.WithCancel(ctx)
		err := retry.Do(subCtx, backoff, func(ctx context.Context) error {
			id, err := g.identity.GetUserID(ctx)
			if err != nil {
				// Пользователь появится после входа в приложение
				return retry.RetryableError(fmt.Errorf("failed to load user id: %w", err))
			}
			if id == "" {
				return retry.RetryableError(storage.ErrUserIDNotFound)
			}
			f, err := g.store.SubscribeLiveData(ctx, id)
			if err != nil {
				g.logger.Warn("Failed to subscribe to live data", "user_id", id, "error", err)
				return retry.RetryableError(err)
			}
			feed, userID = f, id
			return nil
		})
		if err != nil {
			cancel()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to subscribe to live data: %w", err)
		}

		g.logger.Info("Subscribed to live data feed", "user_id", userID)
		g.consume(subCtx, userID, feed)
		cancel()
	}

	return nil
}

func (g *Guard) consume(ctx context.Context, userID string, feed <-chan api.LiveData) {
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.reload:
			g.logger.Info("Reloading live data feed", "user_id", userID)
			return
		case doc, ok := <-feed:
			if !ok {
				g.logger.Warn("Live data feed closed", "user_id", userID)
				return
			}
			rec := doc.Record()
			// Первый документ после подписки заменяет базовую линию целиком
			g.observe(userID, rec, first)
			first = false
			g.emit(ctx, rec)
		}
	}
}

func (g *Guard) emit(ctx context.Context, rec models.LiveHealthRecord) {
	if g.sink == nil {
		return
	}
	today := models.DayOf(g.now())
	g.sink.Emit(ctx, events.Event{
		Name: events.HealthUpdate,
		At:   g.now(),
		Payload: HealthUpdate{
			Steps:     rec.StepsFor(today),
			HeartRate: rec.HeartRate,
			Source:    rec.Source.Authority(),
			Date:      rec.Date,
			Revision:  rec.Revision,
		},
	})
}
