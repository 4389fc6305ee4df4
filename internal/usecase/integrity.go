package usecase

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/zerocrm/recordstore/internal/domain"
)

// DeletePolicy controls what happens to a contact's deals when the contact
// is deleted.
type DeletePolicy string

const (
	// DeleteCascade removes the referencing deals together with the contact.
	DeleteCascade DeletePolicy = "cascade"
	// DeleteDetach keeps the deals and clears their contact reference.
	DeleteDetach DeletePolicy = "detach"
)

// ParseDeletePolicy maps a configuration string onto a DeletePolicy.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(s) {
	case DeleteCascade, DeleteDetach:
		return DeletePolicy(s), nil
	}
	return "", fmt.Errorf("unknown delete policy %q", s)
}

// Integrity enforces the contact reference on deals and applies the delete
// policy when a referenced contact goes away. Both operations run inside the
// caller's transaction, so a reference can never dangle and a cascade is
// atomic with the delete that triggered it.
type Integrity struct {
	policy DeletePolicy
	clock  clock.Clock
}

// NewIntegrity returns an Integrity applying the given policy.
func NewIntegrity(policy DeletePolicy, clk clock.Clock) *Integrity {
	return &Integrity{policy: policy, clock: clk}
}

// Policy returns the configured delete policy.
func (i *Integrity) Policy() DeletePolicy {
	return i.policy
}

// CheckDealReference verifies that contactID names an existing contact of
// the transaction's tenant. An empty contactID is an unlinked deal and
// passes.
func (i *Integrity) CheckDealReference(tx domain.ReadTx, contactID string) error {
	if contactID == "" {
		return nil
	}
	_, err := tx.ContactByID(contactID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ReferenceError{ContactID: contactID}
	}
	return err
}

// OnContactDelete applies the delete policy to every deal referencing the
// contact and returns how many deals were affected.
func (i *Integrity) OnContactDelete(tx domain.Tx, contactID string) (int, error) {
	deals, err := tx.DealsByContact(contactID)
	if err != nil {
		return 0, err
	}
	for _, d := range deals {
		if i.policy == DeleteDetach {
			d.ContactID = ""
			d.UpdatedAt = nextUpdate(i.clock, d.UpdatedAt)
			if err := tx.PutDeal(d); err != nil {
				return 0, err
			}
			continue
		}
		if err := tx.DeleteDeal(d.ID); err != nil {
			return 0, err
		}
	}
	return len(deals), nil
}
