package domain

import (
	"strings"
	"time"
)

// Deal is an opportunity record, optionally linked to a contact of the same
// tenant via ContactID.
type Deal struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Title     string    `json:"title"`
	Stage     string    `json:"stage"`
	Value     float64   `json:"value"`
	Priority  string    `json:"priority,omitempty"`
	ContactID string    `json:"contact_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the caller-supplied fields of a deal. Reference validity
// of ContactID is a store concern, not checked here.
func (d Deal) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(d.Stage) == "" {
		return &ValidationError{Field: "stage", Reason: "must not be empty"}
	}
	if d.Value < 0 {
		return &ValidationError{Field: "value", Reason: "must not be negative"}
	}
	return nil
}

// DealUpdate carries a partial update. Nil fields are left untouched.
// Setting ContactID to the empty string detaches the deal from its contact.
type DealUpdate struct {
	Title     *string  `json:"title"`
	Stage     *string  `json:"stage"`
	Value     *float64 `json:"value"`
	Priority  *string  `json:"priority"`
	ContactID *string  `json:"contact_id"`
	Notes     *string  `json:"notes"`
}

// Apply merges the non-nil fields into d.
func (u DealUpdate) Apply(d *Deal) {
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Stage != nil {
		d.Stage = *u.Stage
	}
	if u.Value != nil {
		d.Value = *u.Value
	}
	if u.Priority != nil {
		d.Priority = *u.Priority
	}
	if u.ContactID != nil {
		d.ContactID = *u.ContactID
	}
	if u.Notes != nil {
		d.Notes = *u.Notes
	}
}
