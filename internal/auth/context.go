package auth

import (
	"context"

	"github.com/mmynk/phonebook/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const currentUserKey contextKey = "current_user"

// WithCurrentUser returns a context carrying the authenticated user.
func WithCurrentUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// CurrentUser extracts the authenticated user from the context.
// Returns nil for anonymous requests.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(currentUserKey).(*models.User)
	return user
}
