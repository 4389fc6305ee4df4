// Package postgres provides the durable record store and identity store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zerocrm/recordstore/internal/domain"
)

// Store implements domain.Store on PostgreSQL. Update transactions take a
// per-tenant advisory lock, serializing a tenant's writes across every
// connection and process sharing the database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a new PostgreSQL record store.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger.With("component", "postgres_store")}
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, tenantID string, fn func(domain.ReadTx) error) error {
	txn, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	if err := fn(&tx{ctx: ctx, txn: txn, tenantID: tenantID}); err != nil {
		return err
	}
	return txn.Commit()
}

// Update runs fn inside a transaction holding the tenant's advisory lock.
func (s *Store) Update(ctx context.Context, tenantID string, fn func(domain.Tx) error) error {
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer txn.Rollback()

	if _, err := txn.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, tenantID); err != nil {
		return fmt.Errorf("acquire tenant lock: %w", err)
	}

	if err := fn(&tx{ctx: ctx, txn: txn, tenantID: tenantID}); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// tx implements domain.ReadTx and domain.Tx over one SQL transaction.
type tx struct {
	ctx      context.Context
	txn      *sql.Tx
	tenantID string
}

const contactColumns = `id, tenant_id, name, email, phone, company, role, location, notes, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Role, &c.Location, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (t *tx) Contacts() ([]domain.Contact, error) {
	rows, err := t.txn.QueryContext(t.ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = $1 ORDER BY seq`, t.tenantID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	out := []domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tx) ContactByID(id string) (domain.Contact, error) {
	row := t.txn.QueryRowContext(t.ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = $1 AND id = $2`, t.tenantID, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Contact{}, fmt.Errorf("contact by id: %w", err)
	}
	return c, nil
}

func (t *tx) ContactByEmail(email string) (domain.Contact, error) {
	row := t.txn.QueryRowContext(t.ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE tenant_id = $1 AND email <> '' AND lower(email) = lower($2)
		 ORDER BY seq LIMIT 1`, t.tenantID, email)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Contact{}, fmt.Errorf("contact by email: %w", err)
	}
	return c, nil
}

func (t *tx) PutContact(c domain.Contact) error {
	_, err := t.txn.ExecContext(t.ctx,
		`INSERT INTO contacts (id, tenant_id, name, email, phone, company, role, location, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			company = EXCLUDED.company,
			role = EXCLUDED.role,
			location = EXCLUDED.location,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.TenantID, c.Name, c.Email, c.Phone, c.Company, c.Role, c.Location, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put contact: %w", err)
	}
	return nil
}

func (t *tx) DeleteContact(id string) error {
	res, err := t.txn.ExecContext(t.ctx,
		`DELETE FROM contacts WHERE tenant_id = $1 AND id = $2`, t.tenantID, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const dealColumns = `id, tenant_id, title, stage, value, priority, contact_id, notes, created_at, updated_at`

func scanDeal(row interface{ Scan(...any) error }) (domain.Deal, error) {
	var d domain.Deal
	var contactID sql.NullString
	err := row.Scan(&d.ID, &d.TenantID, &d.Title, &d.Stage, &d.Value, &d.Priority, &contactID, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	d.ContactID = contactID.String
	return d, err
}

func (t *tx) Deals() ([]domain.Deal, error) {
	rows, err := t.txn.QueryContext(t.ctx,
		`SELECT `+dealColumns+` FROM deals WHERE tenant_id = $1 ORDER BY seq`, t.tenantID)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	out := []domain.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *tx) DealByID(id string) (domain.Deal, error) {
	row := t.txn.QueryRowContext(t.ctx,
		`SELECT `+dealColumns+` FROM deals WHERE tenant_id = $1 AND id = $2`, t.tenantID, id)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deal{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Deal{}, fmt.Errorf("deal by id: %w", err)
	}
	return d, nil
}

func (t *tx) DealByTitleStage(title, stage string) (domain.Deal, error) {
	row := t.txn.QueryRowContext(t.ctx,
		`SELECT `+dealColumns+` FROM deals
		 WHERE tenant_id = $1 AND title = $2 AND stage = $3
		 ORDER BY seq LIMIT 1`, t.tenantID, title, stage)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deal{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Deal{}, fmt.Errorf("deal by title and stage: %w", err)
	}
	return d, nil
}

func (t *tx) DealsByContact(contactID string) ([]domain.Deal, error) {
	rows, err := t.txn.QueryContext(t.ctx,
		`SELECT `+dealColumns+` FROM deals WHERE tenant_id = $1 AND contact_id = $2 ORDER BY seq`, t.tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("deals by contact: %w", err)
	}
	defer rows.Close()

	var out []domain.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *tx) PutDeal(d domain.Deal) error {
	var contactID any
	if d.ContactID != "" {
		contactID = d.ContactID
	}
	_, err := t.txn.ExecContext(t.ctx,
		`INSERT INTO deals (id, tenant_id, title, stage, value, priority, contact_id, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			stage = EXCLUDED.stage,
			value = EXCLUDED.value,
			priority = EXCLUDED.priority,
			contact_id = EXCLUDED.contact_id,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		d.ID, d.TenantID, d.Title, d.Stage, d.Value, d.Priority, contactID, d.Notes, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put deal: %w", err)
	}
	return nil
}

func (t *tx) DeleteDeal(id string) error {
	res, err := t.txn.ExecContext(t.ctx,
		`DELETE FROM deals WHERE tenant_id = $1 AND id = $2`, t.tenantID, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
