// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/phonebook/internal/models"
)

var (
	// ErrDuplicate is returned when a write violates a uniqueness
	// constraint (person name, username).
	ErrDuplicate = errors.New("record already exists")

	// ErrNotFound is returned when a write targets a record that does
	// not exist. Lookups report absence as (nil, nil) instead.
	ErrNotFound = errors.New("record not found")
)

// PhoneFilter selects persons by presence of a phone number.
type PhoneFilter int

const (
	// FilterAll returns every person.
	FilterAll PhoneFilter = iota
	// FilterWithPhone returns only persons with a phone number.
	FilterWithPhone
	// FilterWithoutPhone returns only persons without a phone number.
	FilterWithoutPhone
)

// Store defines the interface for phonebook storage operations.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the service layer.
type Store interface {
	// CreatePerson persists a new person. The person.ID field will be
	// populated by the store. Returns ErrDuplicate if the name is taken.
	CreatePerson(ctx context.Context, person *models.Person) error

	// GetPersonByName retrieves a person by exact name match.
	// Returns (nil, nil) if no such person exists.
	GetPersonByName(ctx context.Context, name string) (*models.Person, error)

	// UpdatePerson persists changes to an existing person. Only the
	// phone field is mutable; all other fields are written as-is from
	// the original record. Returns ErrNotFound if the person is gone.
	UpdatePerson(ctx context.Context, person *models.Person) error

	// ListPersons retrieves persons matching the phone filter, in
	// creation order.
	ListPersons(ctx context.Context, filter PhoneFilter) ([]*models.Person, error)

	// CountPersons returns the total number of persons.
	CountPersons(ctx context.Context) (int, error)

	// CreateUser persists a new user with an empty friends list. The
	// user.ID field will be populated by the store. Returns ErrDuplicate
	// if the username is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves a user by username with friends
	// resolved. Returns (nil, nil) if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves a user by ID with friends resolved.
	// Returns (nil, nil) if no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// AddFriend appends the person to the user's friends list. Adding a
	// person that is already a friend is a no-op. Returns ErrNotFound if
	// either the user or the person does not exist.
	AddFriend(ctx context.Context, userID, personID string) error

	// Close releases any resources held by the store.
	Close() error
}
