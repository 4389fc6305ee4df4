package handler

import (
	"context"
	"encoding/json"
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

const testTenantID = "11111111-1111-1111-1111-111111111111"

type contactsEnv struct {
	handler   *ContactsHandler
	resources *usecase.ResourceService
	clock     *clock.Mock
}

func newContactsEnv(t *testing.T, policy usecase.DeletePolicy) contactsEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewMock()
	store := memstore.NewStore()
	integrity := usecase.NewIntegrity(policy, clk)
	resources := usecase.NewResourceService(store, integrity, clk, logger)
	ingestor := usecase.NewBulkIngestor(store, integrity, clk, logger)
	return contactsEnv{
		handler:   NewContactsHandler(resources, ingestor, logger, nil, 1<<20),
		resources: resources,
		clock:     clk,
	}
}

// authedRequest builds a request carrying the test tenant, as if it had
// passed through the auth middleware.
func authedRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	return req.WithContext(middleware.WithTenant(req.Context(), domain.Tenant{ID: testTenantID}))
}

func decodeBulkResult(t *testing.T, body io.Reader) domain.BulkResult {
	t.Helper()
	var res domain.BulkResult
	if err := json.NewDecoder(body).Decode(&res); err != nil {
		t.Fatalf("decoding bulk result: %v", err)
	}
	return res
}

func TestContactsCreateSingle(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)

	rr := httptest.NewRecorder()
	env.handler.Create(rr, authedRequest(http.MethodPost, "/api/contacts", `{"name":"Ada Lovelace","email":"ada@example.com"}`))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	res := decodeBulkResult(t, rr.Body)
	if len(res.Created) != 1 || len(res.Skipped) != 0 || len(res.Rejected) != 0 {
		t.Fatalf("partitions = %d/%d/%d, want 1/0/0", len(res.Created), len(res.Skipped), len(res.Rejected))
	}

	var c domain.Contact
	if err := json.Unmarshal(res.Created[0], &c); err != nil {
		t.Fatalf("decoding created record: %v", err)
	}
	if c.Name != "Ada Lovelace" || c.Email != "ada@example.com" {
		t.Errorf("created contact = %+v", c)
	}
	if c.ID == "" {
		t.Error("expected a store-assigned id")
	}
	if !c.UpdatedAt.Equal(c.CreatedAt) {
		t.Errorf("fresh contact UpdatedAt = %v, want %v", c.UpdatedAt, c.CreatedAt)
	}
}

func TestContactsCreateSingleRejected(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)

	rr := httptest.NewRecorder()
	env.handler.Create(rr, authedRequest(http.MethodPost, "/api/contacts", `{"email":"nameless@example.com"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	want := `{"error":"validation","message":"name: must not be empty"}` + "\n"
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestContactsCreateBatch(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)

	body := `[{"name":"Ada","email":"ada@example.com"},{"name":"Grace"},{"name":"Eve","email":"ADA@example.com"},{"email":"nameless@example.com"}]`
	rr := httptest.NewRecorder()
	env.handler.Create(rr, authedRequest(http.MethodPost, "/api/contacts", body))

	// A batch with rejections still succeeds as a whole.
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	res := decodeBulkResult(t, rr.Body)
	if len(res.Created) != 2 || len(res.Skipped) != 1 || len(res.Rejected) != 1 {
		t.Fatalf("partitions = %d/%d/%d, want 2/1/1", len(res.Created), len(res.Skipped), len(res.Rejected))
	}
	if got, want := string(res.Skipped[0]), `{"name":"Eve","email":"ADA@example.com"}`; got != want {
		t.Errorf("skipped echo = %s, want %s", got, want)
	}
	if res.Rejected[0].Reason == "" {
		t.Error("rejected record carries no reason")
	}
}

func TestContactsCreateBodyErrors(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		wantMessage    string
	}{
		{
			name:           "Empty Body",
			body:           "",
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "empty request body",
		},
		{
			name:           "Malformed Array",
			body:           `[{"name":"Ada"}`,
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "malformed JSON array",
		},
		{
			name:           "Malformed Object",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "malformed record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newContactsEnv(t, usecase.DeleteCascade)

			rr := httptest.NewRecorder()
			env.handler.Create(rr, authedRequest(http.MethodPost, "/api/contacts", tt.body))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			var eb errorBody
			if err := json.NewDecoder(rr.Body).Decode(&eb); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if eb.Error != "validation" {
				t.Errorf("error kind = %q, want %q", eb.Error, "validation")
			}
			if !strings.Contains(eb.Message, tt.wantMessage) {
				t.Errorf("message = %q, want it to contain %q", eb.Message, tt.wantMessage)
			}
		})
	}
}

func TestContactsCreateBodyTooLarge(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	small := NewContactsHandler(env.resources, nil, logger, nil, 16)

	rr := httptest.NewRecorder()
	small.Create(rr, authedRequest(http.MethodPost, "/api/contacts", `{"name":"`+strings.Repeat("a", 100)+`"}`))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
	want := `{"error":"validation","message":"request body too large"}` + "\n"
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestContactsList(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)
	ctx := context.Background()

	for _, name := range []string{"Ada", "Grace", "Edsger"} {
		if _, err := env.resources.CreateContact(ctx, testTenantID, domain.Contact{Name: name}); err != nil {
			t.Fatalf("seeding contact: %v", err)
		}
	}

	rr := httptest.NewRecorder()
	env.handler.List(rr, authedRequest(http.MethodGet, "/api/contacts", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var contacts []domain.Contact
	if err := json.NewDecoder(rr.Body).Decode(&contacts); err != nil {
		t.Fatalf("decoding contacts: %v", err)
	}
	if len(contacts) != 3 {
		t.Fatalf("len = %d, want 3", len(contacts))
	}
	for i, want := range []string{"Ada", "Grace", "Edsger"} {
		if contacts[i].Name != want {
			t.Errorf("contacts[%d].Name = %q, want %q", i, contacts[i].Name, want)
		}
	}
}

func TestContactsListEmpty(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)

	rr := httptest.NewRecorder()
	env.handler.List(rr, authedRequest(http.MethodGet, "/api/contacts", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	// Empty means an empty array, never null.
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want %q", body, "[]\n")
	}
}

func TestContactsGetNotFound(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)

	req := authedRequest(http.MethodGet, "/api/contacts/missing", "")
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()
	env.handler.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	want := `{"error":"not_found","message":"record not found"}` + "\n"
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestContactsUpdate(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)
	ctx := context.Background()

	created, err := env.resources.CreateContact(ctx, testTenantID, domain.Contact{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("seeding contact: %v", err)
	}

	req := authedRequest(http.MethodPatch, "/api/contacts/"+created.ID, `{"name":"Ada King"}`)
	req.SetPathValue("id", created.ID)
	rr := httptest.NewRecorder()
	env.handler.Update(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var got domain.Contact
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decoding contact: %v", err)
	}
	if got.Name != "Ada King" {
		t.Errorf("Name = %q, want %q", got.Name, "Ada King")
	}
	if got.Email != "ada@example.com" {
		t.Errorf("Email = %q, want untouched %q", got.Email, "ada@example.com")
	}
	if !got.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance: %v -> %v", created.UpdatedAt, got.UpdatedAt)
	}
}

func TestContactsUpdateMalformed(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)

	req := authedRequest(http.MethodPatch, "/api/contacts/some-id", `{"name":`)
	req.SetPathValue("id", "some-id")
	rr := httptest.NewRecorder()
	env.handler.Update(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var eb errorBody
	if err := json.NewDecoder(rr.Body).Decode(&eb); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if eb.Error != "validation" || !strings.Contains(eb.Message, "malformed record") {
		t.Errorf("error body = %+v", eb)
	}
}

func TestContactsDeleteCascade(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)
	ctx := context.Background()

	contact, err := env.resources.CreateContact(ctx, testTenantID, domain.Contact{Name: "Ada"})
	if err != nil {
		t.Fatalf("seeding contact: %v", err)
	}
	for _, title := range []string{"Engine", "Notes"} {
		if _, err := env.resources.CreateDeal(ctx, testTenantID, domain.Deal{Title: title, Stage: "open", ContactID: contact.ID}); err != nil {
			t.Fatalf("seeding deal: %v", err)
		}
	}

	req := authedRequest(http.MethodDelete, "/api/contacts/"+contact.ID, "")
	req.SetPathValue("id", contact.ID)
	rr := httptest.NewRecorder()
	env.handler.Delete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	want := `{"message":"contact deleted","deals_deleted":2}` + "\n"
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}

	deals, err := env.resources.ListDeals(ctx, testTenantID)
	if err != nil {
		t.Fatalf("listing deals: %v", err)
	}
	if len(deals) != 0 {
		t.Errorf("deals after cascade = %d, want 0", len(deals))
	}
}

func TestContactsDeleteDetach(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteDetach)
	ctx := context.Background()

	contact, err := env.resources.CreateContact(ctx, testTenantID, domain.Contact{Name: "Ada"})
	if err != nil {
		t.Fatalf("seeding contact: %v", err)
	}
	deal, err := env.resources.CreateDeal(ctx, testTenantID, domain.Deal{Title: "Engine", Stage: "open", ContactID: contact.ID})
	if err != nil {
		t.Fatalf("seeding deal: %v", err)
	}

	req := authedRequest(http.MethodDelete, "/api/contacts/"+contact.ID, "")
	req.SetPathValue("id", contact.ID)
	rr := httptest.NewRecorder()
	env.handler.Delete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	want := `{"message":"contact deleted","deals_detached":1}` + "\n"
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}

	got, err := env.resources.GetDeal(ctx, testTenantID, deal.ID)
	if err != nil {
		t.Fatalf("deal should survive a detach delete: %v", err)
	}
	if got.ContactID != "" {
		t.Errorf("ContactID = %q, want cleared", got.ContactID)
	}
}

func TestContactsNoTenant(t *testing.T) {
	env := newContactsEnv(t, usecase.DeleteCascade)

	rr := httptest.NewRecorder()
	env.handler.List(rr, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	want := `{"error":"unauthorized","message":"API key required"}` + "\n"
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}
