package domain

import (
	"context"
	"time"
)

// Tenant is an account on the platform. Every record in the store belongs to
// exactly one tenant, and every request is executed on behalf of one.
type Tenant struct {
	ID        string
	Email     string
	APIKey    string // active key, "zero_" prefixed; never written to logs
	CreatedAt time.Time
}

// IdentityStore manages tenants and their API keys.
type IdentityStore interface {
	// ResolveKey returns the tenant owning the given API key.
	// Unknown or retired keys yield ErrUnauthorized.
	ResolveKey(ctx context.Context, apiKey string) (Tenant, error)

	// RotateKey atomically replaces the tenant's active key and returns the
	// new one. There is no instant at which both keys, or neither key, work.
	// A rotation that times out on the caller's side may still have been
	// applied; retrying issues another rotation.
	RotateKey(ctx context.Context, tenantID string) (string, error)

	// TenantByID looks a tenant up by its identifier.
	TenantByID(ctx context.Context, tenantID string) (Tenant, error)

	// CreateTenant provisions a new tenant and issues its first key.
	// This is an operator path; the HTTP surface never creates tenants.
	CreateTenant(ctx context.Context, email string) (Tenant, error)
}
