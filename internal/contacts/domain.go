package contacts

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a missing contact, including contacts
	// owned by another user.
	ErrNotFound = errors.New("contacts: not found")
	// ErrEmailExists indicates the contact email is already taken.
	ErrEmailExists = errors.New("contacts: email already exists")
)

// Contact represents a person's contact information owned by a user.
type Contact struct {
	ID        int64
	UserID    int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows and pages a contact listing. Query searches
// first name, last name, and email with OR semantics; the field
// filters combine with AND semantics. All matches are case-insensitive
// and partial.
type ListFilter struct {
	Query     string
	FirstName string
	LastName  string
	Email     string
	Limit     int
	Offset    int
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthday  *time.Time
	Notes     *string
}
