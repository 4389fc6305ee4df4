package api

import (
	"log/slog"
	"net/http"

	"github.com/zerocrm/recordstore/internal/adapter/api/handler"
	"github.com/zerocrm/recordstore/internal/adapter/api/middleware"
	"github.com/zerocrm/recordstore/internal/adapter/metrics"
	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/pkg/config"
	"github.com/zerocrm/recordstore/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the API service.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
	ids domain.IdentityStore,
	resources *usecase.ResourceService,
	ingestor *usecase.BulkIngestor,
	identity *usecase.IdentityService,
) http.Handler {
	mux := http.NewServeMux()

	contacts := handler.NewContactsHandler(resources, ingestor, logger, m, cfg.MaxBodyBytes)
	deals := handler.NewDealsHandler(resources, ingestor, logger, m, cfg.MaxBodyBytes)
	account := handler.NewAccountHandler(identity, logger, m)

	auth := middleware.Auth(ids, logger)
	limit := middleware.RateLimit(cfg.TenantRPS, cfg.TenantBurst, m, logger)
	protected := func(fn http.HandlerFunc) http.Handler {
		return auth(limit(fn))
	}

	mux.Handle("GET /api/contacts", protected(contacts.List))
	mux.Handle("POST /api/contacts", protected(contacts.Create))
	mux.Handle("GET /api/contacts/{id}", protected(contacts.Get))
	mux.Handle("PATCH /api/contacts/{id}", protected(contacts.Update))
	mux.Handle("DELETE /api/contacts/{id}", protected(contacts.Delete))

	mux.Handle("GET /api/deals", protected(deals.List))
	mux.Handle("POST /api/deals", protected(deals.Create))
	mux.Handle("GET /api/deals/{id}", protected(deals.Get))
	mux.Handle("PATCH /api/deals/{id}", protected(deals.Update))
	mux.Handle("DELETE /api/deals/{id}", protected(deals.Delete))

	mux.Handle("GET /api/user/profile", protected(account.Profile))
	mux.Handle("POST /api/user/rotate-key", protected(account.RotateKey))

	// Health check, no auth
	mux.HandleFunc("GET /api/health", handler.Health)

	return mux
}
