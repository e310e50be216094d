// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrInvalidJWTSecret   = errors.New("JWT_SECRET must be at least 32 bytes")
)

// Config holds everything cmd/server needs to wire the service.
type Config struct {
	// Port is the HTTP listen port.
	Port string
	// DBPath is the SQLite database file path.
	DBPath string
	// JWTSecret signs and verifies bearer tokens.
	JWTSecret string
	// TokenDuration bounds token validity. Zero issues tokens without
	// an expiry claim.
	TokenDuration time.Duration
	// DefaultUserPassword is hashed for accounts created without an
	// explicit password.
	DefaultUserPassword string
}

// Load reads the configuration from the environment. JWT_SECRET is
// required; everything else has a default.
func Load() (Config, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	if len(jwtSecret) < 32 {
		return Config{}, ErrInvalidJWTSecret
	}

	return Config{
		Port:                getEnv("PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "./data/phonebook.db"),
		JWTSecret:           jwtSecret,
		TokenDuration:       getDurationEnv("TOKEN_DURATION", 0),
		DefaultUserPassword: getEnv("DEFAULT_USER_PASSWORD", "plusultra"),
	}, nil
}

func mustEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return value, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
