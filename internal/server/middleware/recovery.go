package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iudanet/healthsync/pkg/api"
)

var panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "healthsync_http_panics_total",
	Help: "Total number of recovered handler panics",
})

// RecoveryMiddleware создает middleware для восстановления после паники.
// Перехватывает panic, логирует стек вызовов и возвращает 500 с JSON телом.
// http.ErrAbortHandler пробрасывается дальше: так сервер обрывает соединение.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				panicsTotal.Inc()
				logger.Error("Panic recovered",
					"error", err,
					"method", r.Method,
					"path", sanitizePath(r.URL.Path),
					"remote_addr", r.RemoteAddr,
					"stack", string(debug.Stack()),
				)

				// Не раскрываем детали клиенту
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{
					Error:   http.StatusText(http.StatusInternalServerError),
					Message: "internal server error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
