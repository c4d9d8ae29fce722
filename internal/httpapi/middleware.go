package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	servertiming "github.com/mitchellh/go-server-timing"

	"github.com/fomalhaut/cclogs/internal/observability"
)

type correlationIDKey struct{}

// CorrelationIDFromContext returns the request's correlation ID, or "" if
// none was attached.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// withCorrelationID stamps every request with a request-scoped UUID, used
// to tie together the log lines and spans produced while handling it.
func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), correlationIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withServerTiming enables the Server-Timing response header when
// configured, attaching a timing.Header to the request context so handlers
// can record metrics via observability.StartServerTiming.
func withServerTiming(cfg *observability.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.ServerTimingEnabled() {
			return next
		}
		return servertiming.Middleware(next, nil)
	}
}

// chain applies middlewares in order, so the first listed wraps outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
