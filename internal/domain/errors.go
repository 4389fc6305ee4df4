package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across stores and use cases.
var (
	// ErrNotFound is returned when a record does not exist within the
	// calling tenant's data. Records of other tenants are indistinguishable
	// from absent ones.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when an API key resolves to no tenant.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a record that violates a field constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ReferenceError reports a record pointing at a contact that does not exist
// within the tenant.
type ReferenceError struct {
	ContactID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("contact %s does not exist", e.ContactID)
}
