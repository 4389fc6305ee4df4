package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/zerocrm/recordstore/internal/domain"
)

// ContactDedup reports whether candidate duplicates a contact already in the
// store. It runs inside the transaction that would create the candidate.
type ContactDedup func(tx domain.ReadTx, candidate domain.Contact) (bool, error)

// DealDedup reports whether candidate duplicates a deal already in the store.
type DealDedup func(tx domain.ReadTx, candidate domain.Deal) (bool, error)

// MatchContactByEmail treats two contacts with the same email as duplicates,
// ignoring case. Contacts without an email never match anything.
func MatchContactByEmail(tx domain.ReadTx, c domain.Contact) (bool, error) {
	if strings.TrimSpace(c.Email) == "" {
		return false, nil
	}
	_, err := tx.ContactByEmail(c.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MatchDealByTitleStage treats two deals with the same title and stage as
// duplicates.
func MatchDealByTitleStage(tx domain.ReadTx, d domain.Deal) (bool, error) {
	_, err := tx.DealByTitleStage(d.Title, d.Stage)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NoContactDedup always creates.
func NoContactDedup(domain.ReadTx, domain.Contact) (bool, error) { return false, nil }

// NoDealDedup always creates.
func NoDealDedup(domain.ReadTx, domain.Deal) (bool, error) { return false, nil }

// BulkIngestor turns a batch of raw records into created, skipped, and
// rejected partitions. Records are processed in input order, each inside its
// own transaction, so one bad record never poisons the rest of the batch and
// concurrent identical batches cannot double-create under the dedup policy.
type BulkIngestor struct {
	store        domain.Store
	integrity    *Integrity
	clock        clock.Clock
	logger       *slog.Logger
	contactDedup ContactDedup
	dealDedup    DealDedup
}

// NewBulkIngestor creates a BulkIngestor with the default dedup policies:
// contacts match on email, deals match on title and stage.
func NewBulkIngestor(store domain.Store, integrity *Integrity, clk clock.Clock, logger *slog.Logger) *BulkIngestor {
	return &BulkIngestor{
		store:        store,
		integrity:    integrity,
		clock:        clk,
		logger:       logger,
		contactDedup: MatchContactByEmail,
		dealDedup:    MatchDealByTitleStage,
	}
}

// WithContactDedup replaces the contact dedup policy.
func (b *BulkIngestor) WithContactDedup(p ContactDedup) *BulkIngestor {
	b.contactDedup = p
	return b
}

// WithDealDedup replaces the deal dedup policy.
func (b *BulkIngestor) WithDealDedup(p DealDedup) *BulkIngestor {
	b.dealDedup = p
	return b
}

func newBulkResult() domain.BulkResult {
	return domain.BulkResult{
		Created:  []json.RawMessage{},
		Skipped:  []json.RawMessage{},
		Rejected: []domain.RejectedRecord{},
	}
}

// isRecordError reports whether err is a per-record failure rather than an
// infrastructure fault.
func isRecordError(err error) bool {
	var verr *domain.ValidationError
	var rerr *domain.ReferenceError
	return errors.As(err, &verr) || errors.As(err, &rerr)
}

// IngestContacts processes a batch of contact records.
func (b *BulkIngestor) IngestContacts(ctx context.Context, tenantID string, records []json.RawMessage) (domain.BulkResult, error) {
	res := newBulkResult()

	for _, raw := range records {
		var in domain.Contact
		if err := json.Unmarshal(raw, &in); err != nil {
			verr := &domain.ValidationError{Reason: "malformed record: " + err.Error()}
			res.Rejected = append(res.Rejected, domain.RejectedRecord{Record: raw, Reason: verr.Error(), Err: verr})
			continue
		}
		if err := in.Validate(); err != nil {
			res.Rejected = append(res.Rejected, domain.RejectedRecord{Record: raw, Reason: err.Error(), Err: err})
			continue
		}

		var created domain.Contact
		var skipped bool
		err := b.store.Update(ctx, tenantID, func(tx domain.Tx) error {
			dup, err := b.contactDedup(tx, in)
			if err != nil {
				return err
			}
			if dup {
				skipped = true
				return nil
			}

			c := in
			now := b.clock.Now().UTC()
			c.ID = uuid.NewString()
			c.TenantID = tenantID
			c.CreatedAt = now
			c.UpdatedAt = now
			if err := tx.PutContact(c); err != nil {
				return err
			}
			created = c
			return nil
		})
		if err != nil {
			if isRecordError(err) {
				res.Rejected = append(res.Rejected, domain.RejectedRecord{Record: raw, Reason: err.Error(), Err: err})
				continue
			}
			return domain.BulkResult{}, fmt.Errorf("ingest contact: %w", err)
		}

		if skipped {
			res.Skipped = append(res.Skipped, raw)
			continue
		}
		buf, err := json.Marshal(created)
		if err != nil {
			return domain.BulkResult{}, fmt.Errorf("encode created contact: %w", err)
		}
		res.Created = append(res.Created, buf)
	}

	b.logger.Debug("contact batch ingested",
		"tenant_id", tenantID,
		"created", len(res.Created),
		"skipped", len(res.Skipped),
		"rejected", len(res.Rejected),
	)
	return res, nil
}

// IngestDeals processes a batch of deal records. Each record's contact
// reference is verified inside the transaction that creates it.
func (b *BulkIngestor) IngestDeals(ctx context.Context, tenantID string, records []json.RawMessage) (domain.BulkResult, error) {
	res := newBulkResult()

	for _, raw := range records {
		var in domain.Deal
		if err := json.Unmarshal(raw, &in); err != nil {
			verr := &domain.ValidationError{Reason: "malformed record: " + err.Error()}
			res.Rejected = append(res.Rejected, domain.RejectedRecord{Record: raw, Reason: verr.Error(), Err: verr})
			continue
		}
		if err := in.Validate(); err != nil {
			res.Rejected = append(res.Rejected, domain.RejectedRecord{Record: raw, Reason: err.Error(), Err: err})
			continue
		}

		var created domain.Deal
		var skipped bool
		err := b.store.Update(ctx, tenantID, func(tx domain.Tx) error {
			if err := b.integrity.CheckDealReference(tx, in.ContactID); err != nil {
				return err
			}
			dup, err := b.dealDedup(tx, in)
			if err != nil {
				return err
			}
			if dup {
				skipped = true
				return nil
			}

			d := in
			now := b.clock.Now().UTC()
			d.ID = uuid.NewString()
			d.TenantID = tenantID
			d.CreatedAt = now
			d.UpdatedAt = now
			if err := tx.PutDeal(d); err != nil {
				return err
			}
			created = d
			return nil
		})
		if err != nil {
			if isRecordError(err) {
				res.Rejected = append(res.Rejected, domain.RejectedRecord{Record: raw, Reason: err.Error(), Err: err})
				continue
			}
			return domain.BulkResult{}, fmt.Errorf("ingest deal: %w", err)
		}

		if skipped {
			res.Skipped = append(res.Skipped, raw)
			continue
		}
		buf, err := json.Marshal(created)
		if err != nil {
			return domain.BulkResult{}, fmt.Errorf("encode created deal: %w", err)
		}
		res.Created = append(res.Created, buf)
	}

	b.logger.Debug("deal batch ingested",
		"tenant_id", tenantID,
		"created", len(res.Created),
		"skipped", len(res.Skipped),
		"rejected", len(res.Rejected),
	)
	return res, nil
}
