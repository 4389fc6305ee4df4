package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/zerocrm/recordstore/internal/domain"
)

// ResourceService handles the business logic for contact and deal records:
// validation, identifier and timestamp assignment, partial updates, and
// deletion under the configured delete policy.
type ResourceService struct {
	store     domain.Store
	integrity *Integrity
	clock     clock.Clock
	logger    *slog.Logger
}

// NewResourceService creates a new ResourceService.
func NewResourceService(store domain.Store, integrity *Integrity, clk clock.Clock, logger *slog.Logger) *ResourceService {
	return &ResourceService{
		store:     store,
		integrity: integrity,
		clock:     clk,
		logger:    logger,
	}
}

// DeletePolicy reports how DeleteContact treats referencing deals.
func (s *ResourceService) DeletePolicy() DeletePolicy {
	return s.integrity.Policy()
}

// nextUpdate returns the write timestamp for a record whose previous write
// happened at prev. The result is always strictly after prev, even when the
// clock has not advanced. The step is a full microsecond so the ordering
// survives timestamptz round-trips.
func nextUpdate(clk clock.Clock, prev time.Time) time.Time {
	now := clk.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// CreateContact validates the contact, assigns its identity and timestamps,
// and stores it.
func (s *ResourceService) CreateContact(ctx context.Context, tenantID string, c domain.Contact) (domain.Contact, error) {
	if err := c.Validate(); err != nil {
		return domain.Contact{}, err
	}

	now := s.clock.Now().UTC()
	c.ID = uuid.NewString()
	c.TenantID = tenantID
	c.CreatedAt = now
	c.UpdatedAt = now

	err := s.store.Update(ctx, tenantID, func(tx domain.Tx) error {
		return tx.PutContact(c)
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return c, nil
}

// ListContacts returns the tenant's contacts in insertion order.
func (s *ResourceService) ListContacts(ctx context.Context, tenantID string) ([]domain.Contact, error) {
	var out []domain.Contact
	err := s.store.View(ctx, tenantID, func(tx domain.ReadTx) error {
		contacts, err := tx.Contacts()
		if err != nil {
			return err
		}
		out = contacts
		return nil
	})
	return out, err
}

// GetContact returns one contact by ID.
func (s *ResourceService) GetContact(ctx context.Context, tenantID, id string) (domain.Contact, error) {
	var out domain.Contact
	err := s.store.View(ctx, tenantID, func(tx domain.ReadTx) error {
		c, err := tx.ContactByID(id)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// UpdateContact merges the non-nil fields of upd into the stored contact.
// Untouched fields keep their values; updated_at moves strictly forward.
func (s *ResourceService) UpdateContact(ctx context.Context, tenantID, id string, upd domain.ContactUpdate) (domain.Contact, error) {
	var out domain.Contact
	err := s.store.Update(ctx, tenantID, func(tx domain.Tx) error {
		cur, err := tx.ContactByID(id)
		if err != nil {
			return err
		}
		upd.Apply(&cur)
		if err := cur.Validate(); err != nil {
			return err
		}
		cur.UpdatedAt = nextUpdate(s.clock, cur.UpdatedAt)
		if err := tx.PutContact(cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// DeleteContact removes the contact and applies the delete policy to its
// deals in the same transaction. It returns the number of deals affected.
func (s *ResourceService) DeleteContact(ctx context.Context, tenantID, id string) (int, error) {
	var affected int
	err := s.store.Update(ctx, tenantID, func(tx domain.Tx) error {
		if _, err := tx.ContactByID(id); err != nil {
			return err
		}
		n, err := s.integrity.OnContactDelete(tx, id)
		if err != nil {
			return err
		}
		affected = n
		return tx.DeleteContact(id)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("contact deleted",
		"tenant_id", tenantID,
		"contact_id", id,
		"policy", string(s.integrity.Policy()),
		"deals_affected", affected,
	)
	return affected, nil
}

// CreateDeal validates the deal, checks its contact reference, assigns its
// identity and timestamps, and stores it.
func (s *ResourceService) CreateDeal(ctx context.Context, tenantID string, d domain.Deal) (domain.Deal, error) {
	if err := d.Validate(); err != nil {
		return domain.Deal{}, err
	}

	now := s.clock.Now().UTC()
	d.ID = uuid.NewString()
	d.TenantID = tenantID
	d.CreatedAt = now
	d.UpdatedAt = now

	err := s.store.Update(ctx, tenantID, func(tx domain.Tx) error {
		if err := s.integrity.CheckDealReference(tx, d.ContactID); err != nil {
			return err
		}
		return tx.PutDeal(d)
	})
	if err != nil {
		return domain.Deal{}, err
	}
	return d, nil
}

// ListDeals returns the tenant's deals in insertion order.
func (s *ResourceService) ListDeals(ctx context.Context, tenantID string) ([]domain.Deal, error) {
	var out []domain.Deal
	err := s.store.View(ctx, tenantID, func(tx domain.ReadTx) error {
		deals, err := tx.Deals()
		if err != nil {
			return err
		}
		out = deals
		return nil
	})
	return out, err
}

// GetDeal returns one deal by ID.
func (s *ResourceService) GetDeal(ctx context.Context, tenantID, id string) (domain.Deal, error) {
	var out domain.Deal
	err := s.store.View(ctx, tenantID, func(tx domain.ReadTx) error {
		d, err := tx.DealByID(id)
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

// UpdateDeal merges the non-nil fields of upd into the stored deal. A new
// non-empty contact reference is verified; an empty one detaches the deal.
func (s *ResourceService) UpdateDeal(ctx context.Context, tenantID, id string, upd domain.DealUpdate) (domain.Deal, error) {
	var out domain.Deal
	err := s.store.Update(ctx, tenantID, func(tx domain.Tx) error {
		cur, err := tx.DealByID(id)
		if err != nil {
			return err
		}
		upd.Apply(&cur)
		if err := cur.Validate(); err != nil {
			return err
		}
		if upd.ContactID != nil {
			if err := s.integrity.CheckDealReference(tx, cur.ContactID); err != nil {
				return err
			}
		}
		cur.UpdatedAt = nextUpdate(s.clock, cur.UpdatedAt)
		if err := tx.PutDeal(cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// DeleteDeal removes one deal.
func (s *ResourceService) DeleteDeal(ctx context.Context, tenantID, id string) error {
	return s.store.Update(ctx, tenantID, func(tx domain.Tx) error {
		return tx.DeleteDeal(id)
	})
}
