package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zerocrm/recordstore/internal/adapter/metrics"
	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/usecase"
)

// ContactsHandler handles HTTP requests for contact records.
type ContactsHandler struct {
	resources *usecase.ResourceService
	ingestor  *usecase.BulkIngestor
	logger    *slog.Logger
	metrics   *metrics.Metrics
	maxBody   int64
}

// NewContactsHandler creates a new ContactsHandler.
func NewContactsHandler(resources *usecase.ResourceService, ingestor *usecase.BulkIngestor, logger *slog.Logger, m *metrics.Metrics, maxBody int64) *ContactsHandler {
	return &ContactsHandler{
		resources: resources,
		ingestor:  ingestor,
		logger:    logger,
		metrics:   m,
		maxBody:   maxBody,
	}
}

// List returns the tenant's contacts in insertion order.
func (h *ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	contacts, err := h.resources.ListContacts(r.Context(), tenant.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Create ingests one contact or a batch of contacts. The response reports
// the created, skipped, and rejected partitions; a single object whose only
// outcome is a rejection surfaces directly as the rejection error.
func (h *ContactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	records, single, err := readBatch(w, r, h.maxBody)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.ingestor.IngestContacts(r.Context(), tenant.ID, records)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	countBulk(h.metrics, "contact", res)

	if single && len(res.Rejected) == 1 {
		writeError(w, h.logger, res.Rejected[0].Err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Get returns one contact.
func (h *ContactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	contact, err := h.resources.GetContact(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Update applies a partial update and returns the updated contact.
func (h *ContactsHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var upd domain.ContactUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, h.logger, &domain.ValidationError{Reason: "malformed record: " + err.Error()})
		return
	}

	contact, err := h.resources.UpdateContact(r.Context(), tenant.ID, r.PathValue("id"), upd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

type contactDeleteResponse struct {
	Message       string `json:"message"`
	DealsDeleted  *int   `json:"deals_deleted,omitempty"`
	DealsDetached *int   `json:"deals_detached,omitempty"`
}

// Delete removes a contact and applies the delete policy to its deals.
func (h *ContactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	affected, err := h.resources.DeleteContact(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := contactDeleteResponse{Message: "contact deleted"}
	if h.resources.DeletePolicy() == usecase.DeleteDetach {
		resp.DealsDetached = &affected
	} else {
		resp.DealsDeleted = &affected
	}
	writeJSON(w, http.StatusOK, resp)
}
