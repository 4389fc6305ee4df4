package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/pkg/apikey"
)

// APIKeyHeader carries the tenant's API key. Header names are
// case-insensitive on the wire, so clients sending x-api-key match too.
const APIKeyHeader = "X-API-Key"

type tenantKey struct{}

// WithTenant returns a copy of ctx carrying the tenant.
func WithTenant(ctx context.Context, t domain.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// TenantFrom returns the tenant the Auth middleware resolved for this
// request.
func TenantFrom(ctx context.Context) (domain.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(domain.Tenant)
	return t, ok
}

// Auth is a middleware factory that returns a new authentication middleware.
// It resolves the API key in the X-API-Key header to a tenant and attaches
// the tenant to the request context. Requests without a resolvable key never
// reach the next handler.
func Auth(ids domain.IdentityStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				logger.Warn("api key missing from request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "unauthorized", "API key required")
				return
			}

			tenant, err := ids.ResolveKey(r.Context(), key)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					logger.Warn("invalid api key", "remote_addr", r.RemoteAddr, "api_key", apikey.Mask(key))
					writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key")
					return
				}
				logger.Error("failed to resolve api key", "error", err)
				writeError(w, http.StatusInternalServerError, "internal", "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
