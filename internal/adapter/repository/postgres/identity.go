package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/pkg/apikey"
)

// Identity implements domain.IdentityStore on PostgreSQL. Keys are looked up
// by digest; rotation swaps key and digest in one UPDATE so there is no
// moment with two working keys or none.
type Identity struct {
	db     *sql.DB
	clock  clock.Clock
	logger *slog.Logger
}

// NewIdentity creates a new PostgreSQL identity store.
func NewIdentity(db *sql.DB, clk clock.Clock, logger *slog.Logger) *Identity {
	return &Identity{db: db, clock: clk, logger: logger.With("component", "postgres_identity")}
}

func (s *Identity) ResolveKey(ctx context.Context, key string) (domain.Tenant, error) {
	var t domain.Tenant
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, api_key, created_at FROM tenants WHERE api_key_digest = $1`,
		apikey.Digest(key)).Scan(&t.ID, &t.Email, &t.APIKey, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tenant{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("resolve api key: %w", err)
	}
	return t, nil
}

func (s *Identity) RotateKey(ctx context.Context, tenantID string) (string, error) {
	key, err := apikey.New()
	if err != nil {
		return "", err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tenants SET api_key = $2, api_key_digest = $3 WHERE id = $1`,
		tenantID, key, apikey.Digest(key))
	if err != nil {
		return "", fmt.Errorf("rotate api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rotate api key: %w", err)
	}
	if n == 0 {
		return "", domain.ErrNotFound
	}
	return key, nil
}

func (s *Identity) TenantByID(ctx context.Context, tenantID string) (domain.Tenant, error) {
	var t domain.Tenant
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, api_key, created_at FROM tenants WHERE id = $1`,
		tenantID).Scan(&t.ID, &t.Email, &t.APIKey, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tenant{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("tenant by id: %w", err)
	}
	return t, nil
}

func (s *Identity) CreateTenant(ctx context.Context, email string) (domain.Tenant, error) {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tenants (id, email, api_key, api_key_digest, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Email, t.APIKey, apikey.Digest(t.APIKey), t.CreatedAt)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}

	s.logger.Info("tenant created", "tenant_id", t.ID, "email", t.Email)
	return t, nil
}
