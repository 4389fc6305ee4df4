package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zerocrm/recordstore/internal/adapter/metrics"
	"github.com/zerocrm/recordstore/internal/usecase"
)

// AccountHandler handles HTTP requests for the tenant's own account.
type AccountHandler struct {
	identity *usecase.IdentityService
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(identity *usecase.IdentityService, logger *slog.Logger, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{identity: identity, logger: logger, metrics: m}
}

type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	APIKey    string    `json:"apiKey"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile returns the authenticated tenant's account record, including the
// active API key.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	t, err := h.identity.Profile(r.Context(), tenant.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:        t.ID,
		Email:     t.Email,
		APIKey:    t.APIKey,
		CreatedAt: t.CreatedAt,
	})
}

// RotateKey replaces the tenant's API key. The old key is dead before the
// response carrying the new one is written.
func (h *AccountHandler) RotateKey(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	key, err := h.identity.RotateKey(r.Context(), tenant.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if h.metrics != nil {
		h.metrics.KeyRotationsTotal.Inc()
	}

	writeJSON(w, http.StatusOK, map[string]string{"apiKey": key})
}
