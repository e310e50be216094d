package auth

import (
	"errors"
	"testing"
)

func TestPassword(t *testing.T) {
	t.Run("hash and check round trip", func(t *testing.T) {
		hash, err := HashPassword("plusultra")
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if hash == "plusultra" {
			t.Error("Hash equals the plaintext password")
		}

		if err := CheckPassword(hash, "plusultra"); err != nil {
			t.Errorf("CheckPassword rejected the correct password: %v", err)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		hash, err := HashPassword("plusultra")
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}

		err = CheckPassword(hash, "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("short passwords fail validation", func(t *testing.T) {
		if err := ValidatePassword("short"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Expected ErrWeakPassword, got %v", err)
		}
		if err := ValidatePassword("plusultra"); err != nil {
			t.Errorf("Expected valid password, got %v", err)
		}
	})
}
