package mocks

import (
	"context"
	"sync"

	"github.com/zerocrm/recordstore/internal/domain"
)

// MockIdentityStore is a mock implementation of domain.IdentityStore for
// testing. Populate TenantsByKey/TenantsByID with fixtures and set the Err
// fields to force failures.
type MockIdentityStore struct {
	mu           sync.Mutex
	TenantsByKey map[string]domain.Tenant
	TenantsByID  map[string]domain.Tenant

	ResolveErr   error
	RotateResult string
	RotateErr    error
	RotateCalls  []string
	TenantErr    error
}

func (m *MockIdentityStore) ResolveKey(ctx context.Context, apiKey string) (domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ResolveErr != nil {
		return domain.Tenant{}, m.ResolveErr
	}
	t, ok := m.TenantsByKey[apiKey]
	if !ok {
		return domain.Tenant{}, domain.ErrUnauthorized
	}
	return t, nil
}

func (m *MockIdentityStore) RotateKey(ctx context.Context, tenantID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RotateCalls = append(m.RotateCalls, tenantID)
	if m.RotateErr != nil {
		return "", m.RotateErr
	}
	return m.RotateResult, nil
}

func (m *MockIdentityStore) TenantByID(ctx context.Context, tenantID string) (domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TenantErr != nil {
		return domain.Tenant{}, m.TenantErr
	}
	t, ok := m.TenantsByID[tenantID]
	if !ok {
		return domain.Tenant{}, domain.ErrNotFound
	}
	return t, nil
}

func (m *MockIdentityStore) CreateTenant(ctx context.Context, email string) (domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := domain.Tenant{ID: "tenant-" + email, Email: email, APIKey: "zero_" + email}
	if m.TenantsByKey == nil {
		m.TenantsByKey = make(map[string]domain.Tenant)
	}
	if m.TenantsByID == nil {
		m.TenantsByID = make(map[string]domain.Tenant)
	}
	m.TenantsByKey[t.APIKey] = t
	m.TenantsByID[t.ID] = t
	return t, nil
}
