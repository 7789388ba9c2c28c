// Package pairing implements the request/reply handshake with companion
// devices and dispatches every inbound companion message.
package pairing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/healthsync/internal/client/channel"
	"github.com/iudanet/healthsync/internal/client/events"
	"github.com/iudanet/healthsync/internal/client/storage"
	guard "github.com/iudanet/healthsync/internal/client/sync"
	"github.com/iudanet/healthsync/internal/models"
	"github.com/iudanet/healthsync/internal/validation"
)

var (
	// ErrSendFailed доставка сообщения не удалась
	ErrSendFailed = errors.New("send failed")
	// ErrPairTimeout последняя попытка отправки не уложилась в таймаут
	ErrPairTimeout = errors.New("send timed out")
)

var (
	inboundMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthsync_pairing_messages_total",
		Help: "Inbound companion messages by path and outcome",
	}, []string{"path", "outcome"})

	pairReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthsync_pairing_replies_total",
		Help: "Pair replies to request-pair by result",
	}, []string{"result"})
)

//go:generate moq -out arbiter_mock.go . Arbiter
//go:generate moq -out samplesink_mock.go . SampleSink

// Arbiter часть arbiter.Arbiter, нужная протоколу
type Arbiter interface {
	ObserveMessage(ctx context.Context, nodeID string)
	MarkPaired(ctx context.Context) error
}

// SampleSink принимает сэмплы часов (sync.Guard)
type SampleSink interface {
	TrySync(ctx context.Context, sample models.CandidateHealthSample) (guard.Result, error)
	Reload()
}

// Options настройки протокола
type Options struct {
	// Now источник времени; по умолчанию time.Now
	Now func() time.Time
	// SendTimeout таймаут одной попытки отправки
	SendTimeout time.Duration
	// Backoff начальная задержка между попытками
	Backoff time.Duration
	// SessionTTL время жизни неотвеченной сессии сопряжения
	SessionTTL time.Duration
	// Retries количество повторов после первой попытки
	Retries uint64
}

// DefaultOptions значения по умолчанию
func DefaultOptions() Options {
	return Options{
		SendTimeout: 5 * time.Second,
		Backoff:     200 * time.Millisecond,
		SessionTTL:  2 * time.Minute,
		Retries:     3,
	}
}

// NodeResult результат отправки одному узлу
type NodeResult struct {
	Err      error
	NodeID   string
	Attempts int
}

// PairResult результаты рассылки по всем подключённым узлам
type PairResult struct {
	Nodes []NodeResult
}

// Delivered возвращает количество узлов, получивших сообщение
func (r PairResult) Delivered() int {
	n := 0
	for _, node := range r.Nodes {
		if node.Err == nil {
			n++
		}
	}
	return n
}

// Protocol единая точка обработки сообщений часов
type Protocol struct {
	ch       channel.Channel
	arbiter  Arbiter
	samples  SampleSink
	identity storage.IdentityStorage
	sink     events.Sink
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	sessions map[string]models.PairingSession
	userID   string
	opts     Options
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// New создает протокол. Кэш идентификатора пользователя загружается здесь.
func New(ctx context.Context, ch channel.Channel, arb Arbiter, samples SampleSink, identity storage.IdentityStorage, sink events.Sink, opts Options, logger *slog.Logger) (*Protocol, error) {
	userID, err := identity.GetUserID(ctx)
	if err != nil && !errors.Is(err, storage.ErrUserIDNotFound) {
		return nil, fmt.Errorf("failed to load user id: %w", err)
	}

	def := DefaultOptions()
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = def.SendTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = def.Backoff
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = def.SessionTTL
	}

	workerCtx, cancel := context.WithCancel(context.Background())

	return &Protocol{
		ch:       ch,
		arbiter:  arb,
		samples:  samples,
		identity: identity,
		sink:     sink,
		logger:   logger,
		ctx:      workerCtx,
		cancel:   cancel,
		sessions: make(map[string]models.PairingSession),
		userID:   userID,
		opts:     opts,
	}, nil
}

// HandleMessage обрабатывает входящее сообщение. Любое сообщение сначала
// проходит через arbiter как доказательство присутствия часов.
func (p *Protocol) HandleMessage(ctx context.Context, msg channel.Message) {
	p.arbiter.ObserveMessage(ctx, msg.NodeID)

	path := channel.NormalizePath(msg.Path)
	switch path {
	case channel.PathRequestPair:
		p.handleRequestPair(ctx, msg.NodeID)
	case channel.PathHealthData:
		p.handleHealthData(msg)
	case channel.PathPair:
		p.handlePairEcho(ctx, msg)
	case channel.PathStatusUpdate, channel.PathRequestSync, channel.PathPairSuccess,
		channel.PathRequestBattery, channel.PathStopSession:
		inboundMessages.WithLabelValues(path, "event").Inc()
		p.emit(ctx, path, msg.NodeID, passThrough(msg.Data))
	default:
		inboundMessages.WithLabelValues("other", "ignored").Inc()
		p.logger.Debug("Ignoring message with unknown path", "node_id", msg.NodeID, "path", path)
	}
}

func (p *Protocol) handleRequestPair(ctx context.Context, nodeID string) {
	p.mu.Lock()
	p.pruneSessionsLocked()
	session, ok := p.sessions[nodeID]
	if !ok {
		session = models.PairingSession{
			ID:        uuid.New().String(),
			NodeID:    nodeID,
			CreatedAt: p.opts.Now(),
		}
		p.sessions[nodeID] = session
	}
	userID := p.userID
	p.mu.Unlock()

	if userID == "" {
		inboundMessages.WithLabelValues(channel.PathRequestPair, "need_login").Inc()
		p.logger.Info("Companion requested pairing, no user signed in",
			"node_id", nodeID,
			"session_id", session.ID)
		p.emit(ctx, events.NeedLogin, nodeID, nil)
		return
	}

	inboundMessages.WithLabelValues(channel.PathRequestPair, "reply").Inc()
	p.replyAsync(session, userID)
}

// replyAsync отвечает pair только запросившему узлу
func (p *Protocol) replyAsync(session models.PairingSession, userID string) {
	payload, err := json.Marshal(PairPayload{UserID: userID})
	if err != nil {
		p.logger.Error("Failed to encode pair payload", "error", err)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		attempts, err := p.send(p.ctx, session.NodeID, channel.PathPair, payload)

		p.mu.Lock()
		if current, ok := p.sessions[session.NodeID]; ok && current.ID == session.ID {
			delete(p.sessions, session.NodeID)
		}
		p.mu.Unlock()

		if err != nil {
			pairReplies.WithLabelValues("failed").Inc()
			p.logger.Warn("Failed to reply to pair request",
				"node_id", session.NodeID,
				"session_id", session.ID,
				"attempts", attempts,
				"error", err)
			return
		}

		pairReplies.WithLabelValues("delivered").Inc()
		p.logger.Info("Pair reply delivered",
			"node_id", session.NodeID,
			"session_id", session.ID,
			"attempts", attempts)
	}()
}

func (p *Protocol) handleHealthData(msg channel.Message) {
	reading, err := ParseHealthData(msg.Data)
	if err != nil {
		// Некорректные данные отбрасываем без события
		inboundMessages.WithLabelValues(channel.PathHealthData, "parse_error").Inc()
		p.logger.Debug("Dropping malformed health data", "node_id", msg.NodeID, "error", err)
		return
	}
	inboundMessages.WithLabelValues(channel.PathHealthData, "sample").Inc()

	// День считается по часам агента; время часов только для истории
	now := p.opts.Now()
	observedAt := now
	if reading.Timestamp > 0 {
		observedAt = time.UnixMilli(reading.Timestamp)
	}

	sample := models.CandidateHealthSample{
		Source:     models.SourceWatch,
		Date:       models.DayOf(now),
		ObservedAt: observedAt,
		HeartRate:  reading.HeartRate,
	}
	if reading.Steps != nil {
		sample.Steps = *reading.Steps
	} else {
		sample.HeartRateOnly = true
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		res, err := p.samples.TrySync(p.ctx, sample)
		if err != nil {
			p.logger.Warn("Failed to sync companion sample", "node_id", msg.NodeID, "error", err)
			return
		}
		p.logger.Debug("Companion sample processed",
			"node_id", msg.NodeID,
			"committed", res.Committed,
			"reason", string(res.Reason))
	}()
}

func (p *Protocol) handlePairEcho(ctx context.Context, msg channel.Message) {
	userID, err := ParsePair(msg.Data)
	if err != nil {
		inboundMessages.WithLabelValues(channel.PathPair, "parse_error").Inc()
		p.logger.Debug("Dropping malformed pair message", "node_id", msg.NodeID, "error", err)
		return
	}
	inboundMessages.WithLabelValues(channel.PathPair, "event").Inc()
	// Идентичность телефона не перезаписываем
	p.emit(ctx, events.PairEcho, msg.NodeID, PairPayload{UserID: userID})
}

// SetUserID сохраняет идентификатор пользователя, перезапускает ленту
// изменений и отвечает узлам, ожидающим сопряжения.
func (p *Protocol) SetUserID(ctx context.Context, userID string) error {
	if err := validation.ValidateUserID(userID); err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	if err := p.identity.SaveUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to save user id: %w", err)
	}

	p.mu.Lock()
	changed := p.userID != userID
	p.userID = userID
	p.pruneSessionsLocked()
	pending := make([]models.PairingSession, 0, len(p.sessions))
	for _, s := range p.sessions {
		pending = append(pending, s)
	}
	p.mu.Unlock()

	if changed {
		p.logger.Info("User id set", "user_id", userID, "pending_sessions", len(pending))
		p.samples.Reload()
	}

	for _, s := range pending {
		p.replyAsync(s, userID)
	}

	return nil
}

// UserID возвращает закэшированный идентификатор пользователя
func (p *Protocol) UserID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

// PairAll сопрягает все подключённые часы с userID. Возвращает ошибку,
// только если не удалось получить список узлов или не доставлено ни одно сообщение.
func (p *Protocol) PairAll(ctx context.Context, userID string) (PairResult, error) {
	if err := p.SetUserID(ctx, userID); err != nil {
		return PairResult{}, err
	}
	if err := p.arbiter.MarkPaired(ctx); err != nil {
		return PairResult{}, err
	}

	payload, err := json.Marshal(PairPayload{UserID: userID})
	if err != nil {
		return PairResult{}, fmt.Errorf("failed to encode pair payload: %w", err)
	}

	return p.Broadcast(ctx, channel.PathPair, payload)
}

// StartSession отправляет сигнал начала тренировки всем часам
func (p *Protocol) StartSession(ctx context.Context) (PairResult, error) {
	return p.Broadcast(ctx, channel.PathStartSession, []byte("GO"))
}

// StopSession отправляет сигнал окончания тренировки всем часам
func (p *Protocol) StopSession(ctx context.Context) (PairResult, error) {
	return p.Broadcast(ctx, channel.PathStopSession, nil)
}

// Broadcast отправляет payload всем подключённым узлам и дожидается всех отправок
func (p *Protocol) Broadcast(ctx context.Context, path string, payload []byte) (PairResult, error) {
	nodes, err := p.ch.ConnectedNodes(ctx)
	if err != nil {
		return PairResult{}, fmt.Errorf("failed to list connected nodes: %w", err)
	}

	result := PairResult{Nodes: make([]NodeResult, len(nodes))}
	if len(nodes) == 0 {
		p.logger.Info("No companion nodes connected", "path", path)
		return result, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i, node := range nodes {
		g.Go(func() error {
			attempts, err := p.send(gCtx, node.ID, path, payload)
			// Каждая ячейка пишется только своей горутиной
			result.Nodes[i] = NodeResult{NodeID: node.ID, Attempts: attempts, Err: err}
			// Ошибку не возвращаем: ждём все отправки
			return nil
		})
	}
	_ = g.Wait()

	delivered := result.Delivered()
	p.logger.Info("Broadcast finished",
		"path", path,
		"nodes", len(nodes),
		"delivered", delivered)

	if delivered == 0 {
		return result, fmt.Errorf("%w: no node received %s", ErrSendFailed, path)
	}
	return result, nil
}

// send отправляет сообщение с ограниченным числом повторов и таймаутом на попытку
func (p *Protocol) send(ctx context.Context, nodeID, path string, payload []byte) (int, error) {
	attempts := 0
	var lastErr error

	backoff := retry.WithMaxRetries(p.opts.Retries, retry.NewExponential(p.opts.Backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, p.opts.SendTimeout)
		defer cancel()

		err := p.ch.Send(attemptCtx, nodeID, path, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, channel.ErrNodeNotConnected) || errors.Is(err, channel.ErrClosed) {
			// Узел ушёл, повторять бессмысленно
			return err
		}
		p.logger.Debug("Send attempt failed",
			"node_id", nodeID,
			"path", path,
			"attempt", attempts,
			"error", err)
		return retry.RetryableError(err)
	})
	if err == nil {
		return attempts, nil
	}

	if lastErr != nil && errors.Is(lastErr, context.DeadlineExceeded) && ctx.Err() == nil {
		return attempts, fmt.Errorf("%w: %w: %w", ErrSendFailed, ErrPairTimeout, lastErr)
	}
	return attempts, fmt.Errorf("%w: %w", ErrSendFailed, err)
}

// Close отменяет фоновые отправки и ждёт их завершения
func (p *Protocol) Close() {
	p.cancel()
	p.wg.Wait()
}

// Wait ждёт завершения фоновых задач (используется в тестах и при остановке)
func (p *Protocol) Wait() {
	p.wg.Wait()
}

// PendingSessions возвращает неотвеченные сессии сопряжения
func (p *Protocol) PendingSessions() []models.PairingSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneSessionsLocked()

	out := make([]models.PairingSession, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, s)
	}
	return out
}

func (p *Protocol) pruneSessionsLocked() {
	now := p.opts.Now()
	for nodeID, s := range p.sessions {
		if now.Sub(s.CreatedAt) > p.opts.SessionTTL {
			p.logger.Debug("Pairing session expired", "node_id", nodeID, "session_id", s.ID)
			delete(p.sessions, nodeID)
		}
	}
}

func (p *Protocol) emit(ctx context.Context, name, nodeID string, payload any) {
	if p.sink == nil {
		return
	}
	p.sink.Emit(ctx, events.Event{
		Name:    name,
		NodeID:  nodeID,
		At:      p.opts.Now(),
		Payload: payload,
	})
}

// passThrough возвращает JSON как есть, иначе строку
func passThrough(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	return string(data)
}
