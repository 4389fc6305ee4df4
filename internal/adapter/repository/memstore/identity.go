package memstore

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/pkg/apikey"
)

// Identity implements domain.IdentityStore in memory. Keys are indexed by
// digest; one mutex makes rotation atomic with respect to resolution.
type Identity struct {
	mu       sync.RWMutex
	tenants  map[string]domain.Tenant
	byDigest map[string]string // key digest -> tenant ID
	clock    clock.Clock
}

// NewIdentity returns an empty in-memory identity store.
func NewIdentity(clk clock.Clock) *Identity {
	return &Identity{
		tenants:  make(map[string]domain.Tenant),
		byDigest: make(map[string]string),
		clock:    clk,
	}
}

func (s *Identity) ResolveKey(ctx context.Context, key string) (domain.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Tenant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID, ok := s.byDigest[apikey.Digest(key)]
	if !ok {
		return domain.Tenant{}, domain.ErrUnauthorized
	}
	return s.tenants[tenantID], nil
}

func (s *Identity) RotateKey(ctx context.Context, tenantID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := apikey.New()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return "", domain.ErrNotFound
	}
	delete(s.byDigest, apikey.Digest(t.APIKey))
	t.APIKey = key
	s.tenants[tenantID] = t
	s.byDigest[apikey.Digest(key)] = tenantID
	return key, nil
}

func (s *Identity) TenantByID(ctx context.Context, tenantID string) (domain.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Tenant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return domain.Tenant{}, domain.ErrNotFound
	}
	return t, nil
}

func (s *Identity) CreateTenant(ctx context.Context, email string) (domain.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Tenant{}, err
	}
	key, err := apikey.New()
	if err != nil {
		return domain.Tenant{}, err
	}

	t := domain.Tenant{
		ID:        uuid.NewString(),
		Email:     email,
		APIKey:    key,
		CreatedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tenants[t.ID] = t
	s.byDigest[apikey.Digest(key)] = t.ID
	return t, nil
}
