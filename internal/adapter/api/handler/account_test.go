package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/zerocrm/recordstore/internal/adapter/api/middleware"
	"github.com/zerocrm/recordstore/internal/adapter/repository/memstore"
	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/usecase"
)

func newAccountEnv(t *testing.T) (*AccountHandler, *memstore.Identity, domain.Tenant) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := memstore.NewIdentity(clock.NewMock())
	tenant, err := ids.CreateTenant(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
	return NewAccountHandler(usecase.NewIdentityService(ids, logger), logger, nil), ids, tenant
}

func TestAccountProfile(t *testing.T) {
	h, _, tenant := newAccountEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req = req.WithContext(middleware.WithTenant(req.Context(), tenant))
	rr := httptest.NewRecorder()
	h.Profile(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var got struct {
		ID     string `json:"id"`
		Email  string `json:"email"`
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if got.ID != tenant.ID {
		t.Errorf("id = %q, want %q", got.ID, tenant.ID)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("email = %q, want %q", got.Email, "ada@example.com")
	}
	// The profile is the one place the full key is readable back.
	if got.APIKey != tenant.APIKey {
		t.Errorf("apiKey = %q, want %q", got.APIKey, tenant.APIKey)
	}
}

func TestAccountProfileUnknownTenant(t *testing.T) {
	h, _, _ := newAccountEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req = req.WithContext(middleware.WithTenant(req.Context(), domain.Tenant{ID: "gone"}))
	rr := httptest.NewRecorder()
	h.Profile(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAccountRotateKey(t *testing.T) {
	h, ids, tenant := newAccountEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/user/rotate-key", nil)
	req = req.WithContext(middleware.WithTenant(req.Context(), tenant))
	rr := httptest.NewRecorder()
	h.RotateKey(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var got map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	newKey := got["apiKey"]
	if !strings.HasPrefix(newKey, "zero_") {
		t.Fatalf("new key = %q, want zero_ prefix", newKey)
	}
	if newKey == tenant.APIKey {
		t.Fatal("rotation returned the old key")
	}

	ctx := context.Background()
	if _, err := ids.ResolveKey(ctx, newKey); err != nil {
		t.Errorf("new key does not resolve: %v", err)
	}
	if _, err := ids.ResolveKey(ctx, tenant.APIKey); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("old key error = %v, want %v", err, domain.ErrUnauthorized)
	}
}
