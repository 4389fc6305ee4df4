package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zerocrm/recordstore/internal/adapter/api/middleware"
	"github.com/zerocrm/recordstore/internal/domain"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto status codes and the
// {error, message} body every error response carries.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var maxBytesErr *http.MaxBytesError
	var verr *domain.ValidationError
	var rerr *domain.ReferenceError

	switch {
	case errors.As(err, &maxBytesErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "validation", Message: "request body too large"})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Message: verr.Error()})
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reference", Message: rerr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "record not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "invalid API key"})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
	}
}

// tenantFrom pulls the authenticated tenant out of the request context. The
// auth middleware guarantees it is present on protected routes.
func tenantFrom(w http.ResponseWriter, r *http.Request) (domain.Tenant, bool) {
	tenant, ok := middleware.TenantFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "API key required"})
		return domain.Tenant{}, false
	}
	return tenant, true
}
