// Package store persists user records. The auth service depends only on
// UserStore; the medium behind it (memory, JSON file, MongoDB, SQLite) is
// chosen at startup.
package store

import (
	"context"
	"errors"

	"vibeauth/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned by Insert when the email or id is taken.
	ErrDuplicate = errors.New("user already exists")
)

// UserStore is the contract consumed by the auth service.
type UserStore interface {
	// FindByEmail returns the record whose email equals email exactly.
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// Insert adds a new record.
	Insert(ctx context.Context, user models.User) error
	// SetLoggedIn updates the isLoggedIn flag of the record with id.
	SetLoggedIn(ctx context.Context, id string, loggedIn bool) error
}

// Backend is a UserStore owning resources that must be released.
type Backend interface {
	UserStore
	Close(ctx context.Context) error
}
