package models

// Person represents a single phonebook entry.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	ID string `json:"id"`

	// Name is the display name. Unique across all persons.
	Name string `json:"name"`

	// Phone is the phone number. Empty means no number is recorded.
	Phone string `json:"phone,omitempty"`

	// Street and City together form the person's address.
	Street string `json:"street"`
	City   string `json:"city"`

	// CreatedAt is the Unix timestamp when the entry was created.
	CreatedAt int64 `json:"-"`
}

// Address is a derived view over a Person's street and city.
// It is never stored; resolve it from the Person on demand.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

// Address composes the derived address view for the person.
func (p *Person) Address() Address {
	return Address{Street: p.Street, City: p.City}
}

// HasPhone reports whether the person has a phone number recorded.
func (p *Person) HasPhone() bool {
	return p.Phone != ""
}
