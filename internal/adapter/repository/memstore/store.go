// Package memstore provides in-memory implementations of the record store
// and identity store. It backs the memory driver and the test suites.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/zerocrm/recordstore/internal/domain"
)

// Store implements domain.Store with per-tenant copy-on-write shards.
// Update transactions run against a private copy and swap it in on commit,
// so a failed closure leaves no trace.
type Store struct {
	mu     sync.Mutex
	shards map[string]*shard
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{shards: make(map[string]*shard)}
}

type shard struct {
	mu   sync.RWMutex
	data *tenantData
}

type tenantData struct {
	contacts    []domain.Contact
	contactByID map[string]int
	deals       []domain.Deal
	dealByID    map[string]int
}

func newTenantData() *tenantData {
	return &tenantData{
		contactByID: make(map[string]int),
		dealByID:    make(map[string]int),
	}
}

func (d *tenantData) clone() *tenantData {
	c := &tenantData{
		contacts:    make([]domain.Contact, len(d.contacts)),
		contactByID: make(map[string]int, len(d.contactByID)),
		deals:       make([]domain.Deal, len(d.deals)),
		dealByID:    make(map[string]int, len(d.dealByID)),
	}
	copy(c.contacts, d.contacts)
	copy(c.deals, d.deals)
	for id, i := range d.contactByID {
		c.contactByID[id] = i
	}
	for id, i := range d.dealByID {
		c.dealByID[id] = i
	}
	return c
}

func (s *Store) shard(tenantID string) *shard {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shards[tenantID]
	if !ok {
		sh = &shard{data: newTenantData()}
		s.shards[tenantID] = sh
	}
	return sh
}

// View runs fn against the tenant's current data under a read lock.
func (s *Store) View(ctx context.Context, tenantID string, fn func(domain.ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sh := s.shard(tenantID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return fn(&tx{data: sh.data})
}

// Update runs fn against a copy of the tenant's data and commits the copy
// only when fn succeeds. The shard's write lock serializes updates per
// tenant.
func (s *Store) Update(ctx context.Context, tenantID string, fn func(domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sh := s.shard(tenantID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	work := sh.data.clone()
	if err := fn(&tx{data: work}); err != nil {
		return err
	}
	sh.data = work
	return nil
}

// tx implements both domain.ReadTx and domain.Tx over one tenantData.
type tx struct {
	data *tenantData
}

func (t *tx) Contacts() ([]domain.Contact, error) {
	out := make([]domain.Contact, len(t.data.contacts))
	copy(out, t.data.contacts)
	return out, nil
}

func (t *tx) ContactByID(id string) (domain.Contact, error) {
	i, ok := t.data.contactByID[id]
	if !ok {
		return domain.Contact{}, domain.ErrNotFound
	}
	return t.data.contacts[i], nil
}

func (t *tx) ContactByEmail(email string) (domain.Contact, error) {
	for _, c := range t.data.contacts {
		if c.Email != "" && strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return domain.Contact{}, domain.ErrNotFound
}

func (t *tx) Deals() ([]domain.Deal, error) {
	out := make([]domain.Deal, len(t.data.deals))
	copy(out, t.data.deals)
	return out, nil
}

func (t *tx) DealByID(id string) (domain.Deal, error) {
	i, ok := t.data.dealByID[id]
	if !ok {
		return domain.Deal{}, domain.ErrNotFound
	}
	return t.data.deals[i], nil
}

func (t *tx) DealByTitleStage(title, stage string) (domain.Deal, error) {
	for _, d := range t.data.deals {
		if d.Title == title && d.Stage == stage {
			return d, nil
		}
	}
	return domain.Deal{}, domain.ErrNotFound
}

func (t *tx) DealsByContact(contactID string) ([]domain.Deal, error) {
	var out []domain.Deal
	for _, d := range t.data.deals {
		if d.ContactID == contactID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *tx) PutContact(c domain.Contact) error {
	if i, ok := t.data.contactByID[c.ID]; ok {
		t.data.contacts[i] = c
		return nil
	}
	t.data.contactByID[c.ID] = len(t.data.contacts)
	t.data.contacts = append(t.data.contacts, c)
	return nil
}

func (t *tx) DeleteContact(id string) error {
	i, ok := t.data.contactByID[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.data.contacts = append(t.data.contacts[:i], t.data.contacts[i+1:]...)
	delete(t.data.contactByID, id)
	for j := i; j < len(t.data.contacts); j++ {
		t.data.contactByID[t.data.contacts[j].ID] = j
	}
	return nil
}

func (t *tx) PutDeal(d domain.Deal) error {
	if i, ok := t.data.dealByID[d.ID]; ok {
		t.data.deals[i] = d
		return nil
	}
	t.data.dealByID[d.ID] = len(t.data.deals)
	t.data.deals = append(t.data.deals, d)
	return nil
}

func (t *tx) DeleteDeal(id string) error {
	i, ok := t.data.dealByID[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.data.deals = append(t.data.deals[:i], t.data.deals[i+1:]...)
	delete(t.data.dealByID, id)
	for j := i; j < len(t.data.deals); j++ {
		t.data.dealByID[t.data.deals[j].ID] = j
	}
	return nil
}
