// Package service implements the phonebook business logic behind the
// GraphQL resolvers: queries and mutations over the store, credential
// checks, and person-added event publication.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/phonebook/internal/auth"
	"github.com/mmynk/phonebook/internal/models"
	"github.com/mmynk/phonebook/internal/observability/metrics"
	"github.com/mmynk/phonebook/internal/pubsub"
	"github.com/mmynk/phonebook/internal/storage"
)

// AddPersonInput carries the arguments of the addPerson mutation.
type AddPersonInput struct {
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone" validate:"omitempty,min=3"`
	Street string `json:"street" validate:"required"`
	City   string `json:"city" validate:"required"`
}

// EditNumberInput carries the arguments of the editNumber mutation.
type EditNumberInput struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,min=3"`
}

// CreateUserInput carries the arguments of the createUser mutation.
// Password is optional; when empty the configured default is used.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// LoginInput carries the arguments of the login mutation.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Phonebook implements the operations exposed through the GraphQL schema.
type Phonebook struct {
	store    storage.Store
	jwt      *auth.JWTManager
	events   *pubsub.PersonEvents
	validate *validator.Validate
	logger   *slog.Logger

	// defaultPassword is hashed for accounts created without an explicit
	// password.
	defaultPassword string
}

// NewPhonebook creates the service over the given store, token manager
// and event publisher.
func NewPhonebook(store storage.Store, jwt *auth.JWTManager, events *pubsub.PersonEvents, defaultPassword string, logger *slog.Logger) *Phonebook {
	return &Phonebook{
		store:           store,
		jwt:             jwt,
		events:          events,
		validate:        validator.New(),
		logger:          logger,
		defaultPassword: defaultPassword,
	}
}

// PersonCount returns the total number of persons.
func (s *Phonebook) PersonCount(ctx context.Context) (int, error) {
	return s.store.CountPersons(ctx)
}

// AllPersons returns persons matching the phone filter.
func (s *Phonebook) AllPersons(ctx context.Context, filter storage.PhoneFilter) ([]*models.Person, error) {
	return s.store.ListPersons(ctx, filter)
}

// FindPerson returns the person with the exact name, or nil if no such
// person exists. Absence is not an error.
func (s *Phonebook) FindPerson(ctx context.Context, name string) (*models.Person, error) {
	return s.store.GetPersonByName(ctx, name)
}

// Me returns the authenticated user from the context, or nil for
// anonymous requests.
func (s *Phonebook) Me(ctx context.Context) *models.User {
	return auth.CurrentUser(ctx)
}

// AddPerson creates a person and appends it to the caller's friends
// list. Requires an authenticated context. The friend link is written
// only after the person is durably persisted; if the link write fails
// the person still exists.
func (s *Phonebook) AddPerson(ctx context.Context, input AddPersonInput) (*models.Person, error) {
	user := auth.CurrentUser(ctx)
	if user == nil {
		return nil, NewAuthenticationError("not authenticated")
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, NewInputValidationError(err.Error(), input)
	}

	person := &models.Person{
		Name:   input.Name,
		Phone:  input.Phone,
		Street: input.Street,
		City:   input.City,
	}
	if err := s.store.CreatePerson(ctx, person); err != nil {
		s.logger.Warn("addPerson failed", "name", input.Name, "error", err)
		return nil, NewInputValidationError(err.Error(), input)
	}

	if err := s.store.AddFriend(ctx, user.ID, person.ID); err != nil {
		// The person is already persisted; there is no rollback.
		s.logger.Warn("addPerson friend link failed", "user_id", user.ID, "person_id", person.ID, "error", err)
		return nil, NewInputValidationError(err.Error(), input)
	}
	user.Friends = append(user.Friends, person)

	metrics.PersonsCreatedTotal.Inc()
	s.events.Publish(person)
	s.logger.Info("person added", "person_id", person.ID, "name", person.Name, "user_id", user.ID)

	return person, nil
}

// EditNumber sets the phone number of the named person. Editing a
// missing person fails with a NotFoundError.
func (s *Phonebook) EditNumber(ctx context.Context, input EditNumberInput) (*models.Person, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, NewInputValidationError(err.Error(), input)
	}

	person, err := s.store.GetPersonByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, NewNotFoundError("person", input.Name)
	}

	person.Phone = input.Phone
	if err := s.store.UpdatePerson(ctx, person); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("person", input.Name)
		}
		return nil, NewInputValidationError(err.Error(), input)
	}

	s.logger.Info("number edited", "person_id", person.ID, "name", person.Name)
	return person, nil
}

// CreateUser registers a new account with an empty friends list. The
// password (or the configured default when none is given) is stored as
// a per-user bcrypt hash.
func (s *Phonebook) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, NewInputValidationError(err.Error(), input.Username)
	}

	password := input.Password
	if password == "" {
		password = s.defaultPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: hash,
		Friends:      []*models.Person{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		s.logger.Warn("createUser failed", "username", input.Username, "error", err)
		return nil, NewInputValidationError(err.Error(), input.Username)
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies the credentials and returns a signed token value.
// Unknown usernames and wrong passwords are indistinguishable to the
// caller.
func (s *Phonebook) Login(ctx context.Context, input LoginInput) (string, error) {
	if err := s.validate.Struct(input); err != nil {
		return "", NewInputValidationError(err.Error(), input.Username)
	}

	user, err := s.store.GetUserByUsername(ctx, input.Username)
	if err != nil {
		return "", err
	}
	if user == nil {
		s.logger.Warn("login failed", "username", input.Username)
		return "", NewInputValidationError("wrong credentials", input.Username)
	}

	if err := auth.CheckPassword(user.PasswordHash, input.Password); err != nil {
		s.logger.Warn("login failed", "username", input.Username)
		return "", NewInputValidationError("wrong credentials", input.Username)
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return "", err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return token, nil
}

// AddAsFriend appends the named person to the caller's friends list.
// Requires an authenticated context. Adding an existing friend is a
// no-op; the updated user is returned either way.
func (s *Phonebook) AddAsFriend(ctx context.Context, name string) (*models.User, error) {
	user := auth.CurrentUser(ctx)
	if user == nil {
		return nil, NewAuthenticationError("not authenticated")
	}

	person, err := s.store.GetPersonByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, NewNotFoundError("person", name)
	}

	if !user.IsFriend(person) {
		if err := s.store.AddFriend(ctx, user.ID, person.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, NewNotFoundError("person", name)
			}
			return nil, err
		}
		user.Friends = append(user.Friends, person)
		s.logger.Info("friend added", "user_id", user.ID, "person_id", person.ID)
	}

	return user, nil
}
