package domain

import "context"

// Store is the tenant-scoped record store. All access happens inside a
// transaction closure; implementations guarantee that Update closures for
// the same tenant execute one at a time, while different tenants proceed
// independently.
type Store interface {
	// View runs fn against a consistent read snapshot of the tenant's data.
	View(ctx context.Context, tenantID string, fn func(ReadTx) error) error

	// Update runs fn inside the tenant's serialized write transaction.
	// If fn returns an error the transaction is rolled back and none of its
	// writes become visible.
	Update(ctx context.Context, tenantID string, fn func(Tx) error) error
}

// ReadTx reads one tenant's records. List methods return records in
// insertion order. Lookups return ErrNotFound for absent records.
type ReadTx interface {
	Contacts() ([]Contact, error)
	ContactByID(id string) (Contact, error)
	// ContactByEmail matches case-insensitively and returns the oldest match.
	ContactByEmail(email string) (Contact, error)

	Deals() ([]Deal, error)
	DealByID(id string) (Deal, error)
	// DealByTitleStage matches on the exact title and stage pair.
	DealByTitleStage(title, stage string) (Deal, error)
	// DealsByContact returns the deals referencing the given contact.
	DealsByContact(contactID string) ([]Deal, error)
}

// Tx extends ReadTx with writes. Put inserts a new record or replaces the
// record with the same ID; replacement keeps the record's position in
// insertion order. Delete returns ErrNotFound when no such record exists.
type Tx interface {
	ReadTx

	PutContact(c Contact) error
	DeleteContact(id string) error

	PutDeal(d Deal) error
	DeleteDeal(id string) error
}
