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

// CreatePerson persists a new person to the database.
func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	// Generate ID if not set
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	if person.CreatedAt == 0 {
		person.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO persons (id, name, phone, street, city, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		person.ID, person.Name, nullString(person.Phone), person.Street, person.City, person.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("person %q: %w", person.Name, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}

	return nil
}

// GetPersonByName retrieves a person by exact name.
func (s *SQLiteStore) GetPersonByName(ctx context.Context, name string) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, phone, street, city, created_at FROM persons WHERE name = ?",
		name,
	)

	person, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil // Person not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person by name: %w", err)
	}

	return person, nil
}

// UpdatePerson writes the person's phone number. Only phone is mutable.
func (s *SQLiteStore) UpdatePerson(ctx context.Context, person *models.Person) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE persons SET phone = ? WHERE id = ?",
		nullString(person.Phone), person.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("person %q: %w", person.ID, storage.ErrNotFound)
	}

	return nil
}

// ListPersons retrieves persons matching the phone filter, in creation order.
func (s *SQLiteStore) ListPersons(ctx context.Context, filter storage.PhoneFilter) ([]*models.Person, error) {
	query := "SELECT id, name, phone, street, city, created_at FROM persons"
	switch filter {
	case storage.FilterWithPhone:
		query += " WHERE phone IS NOT NULL AND phone != ''"
	case storage.FilterWithoutPhone:
		query += " WHERE phone IS NULL OR phone = ''"
	}
	query += " ORDER BY created_at, name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	persons := []*models.Person{}
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	return persons, nil
}

// CountPersons returns the total number of persons.
func (s *SQLiteStore) CountPersons(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM persons").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count persons: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*models.Person, error) {
	person := &models.Person{}
	var phone sql.NullString
	if err := row.Scan(&person.ID, &person.Name, &phone, &person.Street, &person.City, &person.CreatedAt); err != nil {
		return nil, err
	}
	person.Phone = phone.String
	return person, nil
}

// nullString maps an empty string to NULL so the phone filters can rely
// on IS NULL checks.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
