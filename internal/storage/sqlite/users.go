package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/phonebook/internal/models"
	"github.com/mmynk/phonebook/internal/storage"
)

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	if user.Friends == nil {
		user.Friends = []*models.Person{}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves a user by username, with friends resolved.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

// GetUserByID retrieves a user by ID, with friends resolved.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	friends, err := s.getFriends(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Friends = friends

	return user, nil
}

// getFriends loads the user's friends in insertion order.
func (s *SQLiteStore) getFriends(ctx context.Context, userID string) ([]*models.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.phone, p.street, p.city, p.created_at
		FROM persons p
		JOIN user_friends f ON f.person_id = p.id
		WHERE f.user_id = ?
		ORDER BY f.position`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	defer rows.Close()

	friends := []*models.Person{}
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}

	return friends, nil
}

// AddFriend appends the person to the user's friends list. Re-adding an
// existing friend is a no-op.
func (s *SQLiteStore) AddFriend(ctx context.Context, userID, personID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Both ends of the link must exist; foreign keys alone would surface
	// an opaque constraint error.
	if err := exists(ctx, tx, "users", userID); err != nil {
		return fmt.Errorf("user %q: %w", userID, err)
	}
	if err := exists(ctx, tx, "persons", personID); err != nil {
		return fmt.Errorf("person %q: %w", personID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_friends (user_id, person_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM user_friends WHERE user_id = ?))`,
		userID, personID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func exists(ctx context.Context, tx *sql.Tx, table, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	return err
}
