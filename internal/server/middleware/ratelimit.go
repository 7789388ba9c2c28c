package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/iudanet/healthsync/pkg/api"
)

var rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "healthsync_http_rate_limited_total",
	Help: "Total number of requests rejected by rate limiting",
}, []string{"scope"})

// RateLimiter ограничивает частоту запросов по ключу (IP или userID).
// На каждый ключ заводится свой rate.Limiter: requests токенов в окно
// с равномерным пополнением и всплеском до requests.
type RateLimiter struct {
	visitors map[string]*visitor
	logger   *slog.Logger
	stop     chan struct{}
	limit    rate.Limit
	burst    int
	idle     time.Duration
	stopOnce sync.Once
	mu       sync.Mutex
}

type visitor struct {
	lastSeen time.Time
	limiter  *rate.Limiter
}

// NewRateLimiter создает rate limiter на requests запросов за window
func NewRateLimiter(requests int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		logger:   logger,
		stop:     make(chan struct{}),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		idle:     2 * window,
	}

	go rl.evictLoop()

	return rl
}

// evictLoop периодически удаляет лимитеры неактивных ключей
func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.evictIdle(now)
		case <-rl.stop:
			return
		}
	}
}

// evictIdle удаляет ключи, не встречавшиеся дольше idle
func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
			evicted++
		}
	}
	if evicted > 0 {
		rl.logger.Debug("Evicted idle rate limiters", "count", evicted, "active", len(rl.visitors))
	}
}

// Stop останавливает фоновую очистку
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Allow сообщает, можно ли пропустить запрос с ключом key
func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.allowAt(key, time.Now())
	return ok
}

// allowAt резервирует токен. Если токена нет, резерв отменяется
// и возвращается время до появления следующего.
func (rl *RateLimiter) allowAt(key string, now time.Time) (bool, time.Duration) {
	r := rl.limiterFor(key, now).ReserveN(now, 1)
	if !r.OK() {
		return false, rl.idle
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimitMiddleware ограничивает частоту запросов с одного IP:
// requests запросов за window
func RateLimitMiddleware(requests int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requests, window, logger)
	return limitBy(limiter, "ip", func(r *http.Request) (string, bool) {
		return getClientIP(r), true
	}, logger)
}

// WriteRateLimitMiddleware ограничивает частоту записей в документ пользователя.
// Ключ - userID из пути /api/v1/users/{userID}/...; чтения и прочие пути не ограничиваются.
func WriteRateLimitMiddleware(requests int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requests, window, logger)
	return limitBy(limiter, "user", func(r *http.Request) (string, bool) {
		switch r.Method {
		case http.MethodPatch, http.MethodPost, http.MethodPut:
		default:
			return "", false
		}
		return userFromPath(r.URL.Path)
	}, logger)
}

func limitBy(limiter *RateLimiter, scope string, keyFn func(r *http.Request) (string, bool), logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := keyFn(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if allowed, retryAfter := limiter.allowAt(key, time.Now()); !allowed {
				rateLimitedTotal.WithLabelValues(scope).Inc()
				logger.Warn("Rate limit exceeded",
					"scope", scope,
					"remote_addr", r.RemoteAddr,
					"method", r.Method,
					"path", sanitizePath(r.URL.Path),
					"retry_after", retryAfter,
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{
					Error:   http.StatusText(http.StatusTooManyRequests),
					Message: "rate limit exceeded, please try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// userFromPath извлекает сегмент после /users/
func userFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/v1/users/")
	if !ok {
		return "", false
	}
	userID, _, _ := strings.Cut(rest, "/")
	if userID == "" {
		return "", false
	}
	return userID, true
}

// getClientIP возвращает адрес клиента без порта.
// Первый адрес из X-Forwarded-For, затем X-Real-IP, затем RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Порт у каждого соединения свой, ключом должен быть только хост
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
