package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zerocrm/recordstore/internal/adapter/metrics"
	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/usecase"
)

// DealsHandler handles HTTP requests for deal records.
type DealsHandler struct {
	resources *usecase.ResourceService
	ingestor  *usecase.BulkIngestor
	logger    *slog.Logger
	metrics   *metrics.Metrics
	maxBody   int64
}

// NewDealsHandler creates a new DealsHandler.
func NewDealsHandler(resources *usecase.ResourceService, ingestor *usecase.BulkIngestor, logger *slog.Logger, m *metrics.Metrics, maxBody int64) *DealsHandler {
	return &DealsHandler{
		resources: resources,
		ingestor:  ingestor,
		logger:    logger,
		metrics:   m,
		maxBody:   maxBody,
	}
}

// List returns the tenant's deals in insertion order.
func (h *DealsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	deals, err := h.resources.ListDeals(r.Context(), tenant.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deals)
}

// Create ingests one deal or a batch of deals.
func (h *DealsHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	records, single, err := readBatch(w, r, h.maxBody)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.ingestor.IngestDeals(r.Context(), tenant.ID, records)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	countBulk(h.metrics, "deal", res)

	if single && len(res.Rejected) == 1 {
		writeError(w, h.logger, res.Rejected[0].Err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Get returns one deal.
func (h *DealsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	deal, err := h.resources.GetDeal(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// Update applies a partial update and returns the updated deal.
func (h *DealsHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var upd domain.DealUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, h.logger, &domain.ValidationError{Reason: "malformed record: " + err.Error()})
		return
	}

	deal, err := h.resources.UpdateDeal(r.Context(), tenant.ID, r.PathValue("id"), upd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// Delete removes one deal.
func (h *DealsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	if err := h.resources.DeleteDeal(r.Context(), tenant.ID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deal deleted"})
}
