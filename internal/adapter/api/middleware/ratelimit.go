package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/zerocrm/recordstore/internal/adapter/metrics"
)

// RateLimit is a middleware factory that enforces a per-tenant token bucket.
// It must run after Auth; requests without a resolved tenant pass through.
// A non-positive rps disables limiting entirely.
func RateLimit(rps float64, burst int, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	getLimiter := func(tenantID string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[tenantID]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[tenantID] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, ok := TenantFrom(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !getLimiter(tenant.ID).Allow() {
				if m != nil {
					m.RateLimitedTotal.Inc()
				}
				logger.Warn("tenant rate limited", "tenant_id", tenant.ID, "path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
