package models

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Username is the login name (unique).
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never exposed through the API.
	PasswordHash string `json:"-"`

	// Friends is the user's phonebook, in insertion order.
	// Each person appears at most once.
	Friends []*Person `json:"friends"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"-"`
}

// IsFriend reports whether the person is already in the user's friends list,
// compared by identity.
func (u *User) IsFriend(p *Person) bool {
	for _, f := range u.Friends {
		if f.ID == p.ID {
			return true
		}
	}
	return false
}
