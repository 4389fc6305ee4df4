package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/pkg/apikey"
)

// IdentityService exposes the account operations backed by the identity
// store.
type IdentityService struct {
	ids    domain.IdentityStore
	logger *slog.Logger
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(ids domain.IdentityStore, logger *slog.Logger) *IdentityService {
	return &IdentityService{ids: ids, logger: logger}
}

// Profile returns the tenant's account record.
func (s *IdentityService) Profile(ctx context.Context, tenantID string) (domain.Tenant, error) {
	return s.ids.TenantByID(ctx, tenantID)
}

// RotateKey replaces the tenant's API key and returns the new one. The old
// key stops resolving before this method returns.
func (s *IdentityService) RotateKey(ctx context.Context, tenantID string) (string, error) {
	key, err := s.ids.RotateKey(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("rotate key: %w", err)
	}

	s.logger.Info("api key rotated", "tenant_id", tenantID, "api_key", apikey.Mask(key))
	return key, nil
}
