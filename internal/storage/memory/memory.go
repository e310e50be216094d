// Package memory provides an in-memory implementation of the storage.Store
// interface. It backs tests and small single-process deployments where
// persistence across restarts is not needed.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/phonebook/internal/models"
	"github.com/mmynk/phonebook/internal/storage"
)

// Ensure MemoryStore implements storage.Store
var _ storage.Store = (*MemoryStore)(nil)

// MemoryStore implements storage.Store with in-process slices guarded by
// a mutex. Values returned to callers are copies, so callers can mutate
// them freely before writing back.
type MemoryStore struct {
	mu      sync.Mutex
	persons []*models.Person
	users   []*models.User
	// friends maps user ID to person IDs in insertion order.
	friends map[string][]string
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{friends: make(map[string][]string)}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// CreatePerson adds a new person, enforcing name uniqueness.
func (s *MemoryStore) CreatePerson(ctx context.Context, person *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.persons {
		if p.Name == person.Name {
			return fmt.Errorf("person %q: %w", person.Name, storage.ErrDuplicate)
		}
	}

	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	if person.CreatedAt == 0 {
		person.CreatedAt = time.Now().Unix()
	}

	stored := *person
	s.persons = append(s.persons, &stored)
	return nil
}

// GetPersonByName retrieves a person by exact name.
func (s *MemoryStore) GetPersonByName(ctx context.Context, name string) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.persons {
		if p.Name == name {
			found := *p
			return &found, nil
		}
	}
	return nil, nil
}

// UpdatePerson writes the person's phone number. Only phone is mutable.
func (s *MemoryStore) UpdatePerson(ctx context.Context, person *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.persons {
		if p.ID == person.ID {
			p.Phone = person.Phone
			return nil
		}
	}
	return fmt.Errorf("person %q: %w", person.ID, storage.ErrNotFound)
}

// ListPersons retrieves persons matching the phone filter, in creation order.
func (s *MemoryStore) ListPersons(ctx context.Context, filter storage.PhoneFilter) ([]*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	persons := []*models.Person{}
	for _, p := range s.persons {
		switch filter {
		case storage.FilterWithPhone:
			if !p.HasPhone() {
				continue
			}
		case storage.FilterWithoutPhone:
			if p.HasPhone() {
				continue
			}
		}
		found := *p
		persons = append(persons, &found)
	}
	return persons, nil
}

// CountPersons returns the total number of persons.
func (s *MemoryStore) CountPersons(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.persons), nil
}

// CreateUser adds a new user, enforcing username uniqueness.
func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicate)
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	if user.Friends == nil {
		user.Friends = []*models.Person{}
	}

	stored := *user
	s.users = append(s.users, &stored)
	return nil
}

// GetUserByUsername retrieves a user by username, with friends resolved.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return s.resolveUser(u), nil
		}
	}
	return nil, nil
}

// GetUserByID retrieves a user by ID, with friends resolved.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			return s.resolveUser(u), nil
		}
	}
	return nil, nil
}

// AddFriend appends the person to the user's friends list. Re-adding an
// existing friend is a no-op.
func (s *MemoryStore) AddFriend(ctx context.Context, userID, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.userExists(userID) {
		return fmt.Errorf("user %q: %w", userID, storage.ErrNotFound)
	}
	if s.personByID(personID) == nil {
		return fmt.Errorf("person %q: %w", personID, storage.ErrNotFound)
	}

	for _, id := range s.friends[userID] {
		if id == personID {
			return nil
		}
	}
	s.friends[userID] = append(s.friends[userID], personID)
	return nil
}

// resolveUser copies the user and materializes its friends list.
// Caller must hold the mutex.
func (s *MemoryStore) resolveUser(u *models.User) *models.User {
	found := *u
	found.Friends = []*models.Person{}
	for _, personID := range s.friends[u.ID] {
		if p := s.personByID(personID); p != nil {
			friend := *p
			found.Friends = append(found.Friends, &friend)
		}
	}
	return &found
}

func (s *MemoryStore) personByID(id string) *models.Person {
	for _, p := range s.persons {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *MemoryStore) userExists(id string) bool {
	for _, u := range s.users {
		if u.ID == id {
			return true
		}
	}
	return false
}
