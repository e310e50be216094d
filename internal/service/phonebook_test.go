package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mmynk/phonebook/internal/auth"
	"github.com/mmynk/phonebook/internal/models"
	"github.com/mmynk/phonebook/internal/pubsub"
	"github.com/mmynk/phonebook/internal/storage"
	"github.com/mmynk/phonebook/internal/storage/memory"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newTestService(t *testing.T) (*Phonebook, *auth.JWTManager, *pubsub.PersonEvents) {
	t.Helper()
	jwtManager := auth.NewJWTManager(testSecret, 0)
	events := pubsub.NewPersonEvents()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewPhonebook(memory.New(), jwtManager, events, "plusultra", logger)
	return svc, jwtManager, events
}

// loggedIn creates a user and returns a context authenticated as them.
func loggedIn(t *testing.T, svc *Phonebook, username string) (context.Context, *models.User) {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), CreateUserInput{Username: username})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return auth.WithCurrentUser(context.Background(), user), user
}

func addPerson(t *testing.T, svc *Phonebook, ctx context.Context, name, phone string) *models.Person {
	t.Helper()
	person, err := svc.AddPerson(ctx, AddPersonInput{Name: name, Phone: phone, Street: "Tapiolankatu 5 A", City: "Espoo"})
	if err != nil {
		t.Fatalf("AddPerson(%s) failed: %v", name, err)
	}
	return person
}

func TestAddPerson(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, user := loggedIn(t, svc, "mluukkai")

	t.Run("unauthenticated context fails without side effects", func(t *testing.T) {
		_, err := svc.AddPerson(context.Background(), AddPersonInput{Name: "Arto", Street: "Katu 1", City: "Espoo"})

		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("Expected AuthenticationError, got %v", err)
		}
		count, _ := svc.PersonCount(context.Background())
		if count != 0 {
			t.Errorf("Store altered by failed mutation: count %d", count)
		}
	})

	t.Run("success increments count and appends to friends once", func(t *testing.T) {
		person := addPerson(t, svc, ctx, "Arto", "040-123543")

		count, _ := svc.PersonCount(ctx)
		if count != 1 {
			t.Errorf("Expected count 1, got %d", count)
		}

		me, err := svc.store.GetUserByID(ctx, user.ID)
		if err != nil || me == nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		occurrences := 0
		for _, f := range me.Friends {
			if f.ID == person.ID {
				occurrences++
			}
		}
		if occurrences != 1 {
			t.Errorf("Expected person once in friends, got %d", occurrences)
		}
	})

	t.Run("duplicate name fails and count is unchanged", func(t *testing.T) {
		_, err := svc.AddPerson(ctx, AddPersonInput{Name: "Arto", Street: "Katu 2", City: "Turku"})

		var inputErr *InputValidationError
		if !errors.As(err, &inputErr) {
			t.Fatalf("Expected InputValidationError, got %v", err)
		}
		if inputErr.InvalidArgs == nil {
			t.Error("Expected invalid args to be carried")
		}
		count, _ := svc.PersonCount(ctx)
		if count != 1 {
			t.Errorf("Expected count unchanged at 1, got %d", count)
		}
	})

	t.Run("missing required fields fail validation", func(t *testing.T) {
		_, err := svc.AddPerson(ctx, AddPersonInput{Name: "NoAddress"})

		var inputErr *InputValidationError
		if !errors.As(err, &inputErr) {
			t.Fatalf("Expected InputValidationError, got %v", err)
		}
		count, _ := svc.PersonCount(ctx)
		if count != 1 {
			t.Errorf("Store altered by invalid input: count %d", count)
		}
	})

	t.Run("publishes the created person", func(t *testing.T) {
		subCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := svc.events.Subscribe(subCtx)

		person := addPerson(t, svc, ctx, "Venla", "")

		got := <-events
		if got.ID != person.ID {
			t.Errorf("Published person mismatch: got %s, want %s", got.ID, person.ID)
		}
	})
}

func TestAllPersonsFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, _ := loggedIn(t, svc, "mluukkai")

	addPerson(t, svc, ctx, "Arto", "040-123543")
	addPerson(t, svc, ctx, "Venla", "")
	addPerson(t, svc, ctx, "Matti", "044-5566")

	all, _ := svc.AllPersons(ctx, storage.FilterAll)
	yes, _ := svc.AllPersons(ctx, storage.FilterWithPhone)
	no, _ := svc.AllPersons(ctx, storage.FilterWithoutPhone)

	if len(yes)+len(no) != len(all) {
		t.Errorf("YES and NO do not partition all: %d + %d != %d", len(yes), len(no), len(all))
	}
	seen := map[string]bool{}
	for _, p := range yes {
		seen[p.ID] = true
	}
	for _, p := range no {
		if seen[p.ID] {
			t.Errorf("Person %s in both subsets", p.Name)
		}
	}
	if len(yes) != 2 || len(no) != 1 {
		t.Errorf("Expected 2 with phone and 1 without, got %d and %d", len(yes), len(no))
	}
}

func TestExampleState(t *testing.T) {
	// Store with exactly [{"Arto", phone:"040-123543"}].
	svc, _, _ := newTestService(t)
	ctx, _ := loggedIn(t, svc, "mluukkai")
	addPerson(t, svc, ctx, "Arto", "040-123543")

	count, _ := svc.PersonCount(ctx)
	if count != 1 {
		t.Errorf("PersonCount: got %d, want 1", count)
	}

	yes, _ := svc.AllPersons(ctx, storage.FilterWithPhone)
	if len(yes) != 1 || yes[0].Name != "Arto" || yes[0].Phone != "040-123543" {
		t.Errorf("AllPersons(YES): got %+v", yes)
	}

	no, _ := svc.AllPersons(ctx, storage.FilterWithoutPhone)
	if len(no) != 0 {
		t.Errorf("AllPersons(NO): expected empty, got %d", len(no))
	}
}

func TestEditNumber(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, _ := loggedIn(t, svc, "mluukkai")
	created := addPerson(t, svc, ctx, "Arto", "040-123543")

	t.Run("missing person fails with NotFoundError", func(t *testing.T) {
		_, err := svc.EditNumber(context.Background(), EditNumberInput{Name: "Nobody", Phone: "123456"})

		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})

	t.Run("updates only the phone, works unauthenticated", func(t *testing.T) {
		updated, err := svc.EditNumber(context.Background(), EditNumberInput{Name: "Arto", Phone: "045-999888"})
		if err != nil {
			t.Fatalf("EditNumber failed: %v", err)
		}
		if updated.Phone != "045-999888" {
			t.Errorf("Phone not updated: %s", updated.Phone)
		}
		if updated.ID != created.ID {
			t.Errorf("ID changed: got %s, want %s", updated.ID, created.ID)
		}
		if updated.Name != "Arto" || updated.Street != "Tapiolankatu 5 A" || updated.City != "Espoo" {
			t.Errorf("Fields besides phone changed: %+v", updated)
		}
	})
}

func TestAddAsFriend(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, user := loggedIn(t, svc, "mluukkai")
	other, _ := svc.CreateUser(context.Background(), CreateUserInput{Username: "hellas"})
	otherCtx := auth.WithCurrentUser(context.Background(), other)

	person := addPerson(t, svc, ctx, "Arto", "")

	t.Run("requires authentication", func(t *testing.T) {
		_, err := svc.AddAsFriend(context.Background(), "Arto")

		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Errorf("Expected AuthenticationError, got %v", err)
		}
	})

	t.Run("missing person fails with NotFoundError", func(t *testing.T) {
		_, err := svc.AddAsFriend(ctx, "Nobody")

		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})

	t.Run("double add keeps the person exactly once", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := svc.AddAsFriend(otherCtx, "Arto"); err != nil {
				t.Fatalf("AddAsFriend failed: %v", err)
			}
		}

		got, err := svc.store.GetUserByID(ctx, other.ID)
		if err != nil || got == nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		occurrences := 0
		for _, f := range got.Friends {
			if f.ID == person.ID {
				occurrences++
			}
		}
		if occurrences != 1 {
			t.Errorf("Expected person once in friends, got %d", occurrences)
		}
	})

	t.Run("creator already has the person from addPerson", func(t *testing.T) {
		updated, err := svc.AddAsFriend(ctx, "Arto")
		if err != nil {
			t.Fatalf("AddAsFriend failed: %v", err)
		}
		if updated.ID != user.ID {
			t.Errorf("Returned user mismatch: got %s, want %s", updated.ID, user.ID)
		}

		got, _ := svc.store.GetUserByID(ctx, user.ID)
		if len(got.Friends) != 1 {
			t.Errorf("Expected 1 friend, got %d", len(got.Friends))
		}
	})
}

func TestCreateUserAndLogin(t *testing.T) {
	svc, jwtManager, _ := newTestService(t)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "mluukkai"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if len(user.Friends) != 0 {
		t.Errorf("Expected empty friends list, got %d", len(user.Friends))
	}

	t.Run("duplicate username fails with InputValidationError", func(t *testing.T) {
		_, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "mluukkai"})

		var inputErr *InputValidationError
		if !errors.As(err, &inputErr) {
			t.Fatalf("Expected InputValidationError, got %v", err)
		}
		if inputErr.InvalidArgs != "mluukkai" {
			t.Errorf("Expected username carried as invalid args, got %v", inputErr.InvalidArgs)
		}
	})

	t.Run("wrong password fails and issues no token", func(t *testing.T) {
		token, err := svc.Login(context.Background(), LoginInput{Username: "mluukkai", Password: "wrongpass"})

		var inputErr *InputValidationError
		if !errors.As(err, &inputErr) {
			t.Fatalf("Expected InputValidationError, got %v", err)
		}
		if inputErr.Error() != "wrong credentials" {
			t.Errorf("Unexpected message: %s", inputErr.Error())
		}
		if token != "" {
			t.Error("Token issued despite bad credentials")
		}
	})

	t.Run("unknown username fails the same way", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "plusultra"})

		var inputErr *InputValidationError
		if !errors.As(err, &inputErr) {
			t.Fatalf("Expected InputValidationError, got %v", err)
		}
	})

	t.Run("correct credentials return a resolvable token", func(t *testing.T) {
		token, err := svc.Login(context.Background(), LoginInput{Username: "mluukkai", Password: "plusultra"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != user.ID {
			t.Errorf("Token resolves to %s, want %s", claims.UserID, user.ID)
		}
	})

	t.Run("explicit password overrides the default", func(t *testing.T) {
		if _, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "hellas", Password: "custom-password"}); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		if _, err := svc.Login(context.Background(), LoginInput{Username: "hellas", Password: "plusultra"}); err == nil {
			t.Error("Default password accepted for account with explicit password")
		}
		if _, err := svc.Login(context.Background(), LoginInput{Username: "hellas", Password: "custom-password"}); err != nil {
			t.Errorf("Login with explicit password failed: %v", err)
		}
	})
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService(t)

	if user := svc.Me(context.Background()); user != nil {
		t.Errorf("Expected nil for anonymous context, got %+v", user)
	}

	ctx, user := loggedIn(t, svc, "mluukkai")
	if got := svc.Me(ctx); got == nil || got.ID != user.ID {
		t.Errorf("Me returned %+v, want user %s", got, user.ID)
	}
}
