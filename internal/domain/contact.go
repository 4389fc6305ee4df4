package domain

import (
	"strings"
	"time"
)

// Contact is a person record. ID and both timestamps are assigned by the
// store and never accepted from callers.
type Contact struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role,omitempty"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the caller-supplied fields of a contact.
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return nil
}

// ContactUpdate carries a partial update. Nil fields are left untouched.
type ContactUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Company  *string `json:"company"`
	Role     *string `json:"role"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
}

// Apply merges the non-nil fields into c.
func (u ContactUpdate) Apply(c *Contact) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.Company != nil {
		c.Company = *u.Company
	}
	if u.Role != nil {
		c.Role = *u.Role
	}
	if u.Location != nil {
		c.Location = *u.Location
	}
	if u.Notes != nil {
		c.Notes = *u.Notes
	}
}
