package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/phonebook/internal/auth"
	"github.com/mmynk/phonebook/internal/storage"
)

const bearerPrefix = "bearer "

// WithUser returns middleware that resolves the caller from the
// Authorization header. A missing header or one without a bearer scheme
// yields an anonymous context. A bearer token that fails verification
// fails the whole request with an authentication error; a valid token
// loads the user (friends included) into the context.
func WithUser(jwtManager *auth.JWTManager, store storage.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				// Anonymous request; resolvers decide what needs identity.
				next.ServeHTTP(w, r)
				return
			}

			claims, err := jwtManager.Validate(header[len(bearerPrefix):])
			if err != nil {
				logger.Warn("token validation failed", "remote_addr", r.RemoteAddr, "error", err)
				writeGraphQLError(w, http.StatusUnauthorized, "invalid token", "UNAUTHENTICATED")
				return
			}

			user, err := store.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				logger.Error("failed to load current user", "user_id", claims.UserID, "error", err)
				writeGraphQLError(w, http.StatusInternalServerError, "failed to resolve user", "INTERNAL_SERVER_ERROR")
				return
			}
			if user == nil {
				writeGraphQLError(w, http.StatusUnauthorized, "invalid token", "UNAUTHENTICATED")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithCurrentUser(r.Context(), user)))
		})
	}
}

// writeGraphQLError writes a GraphQL-shaped error body so clients can
// handle transport-level failures uniformly.
func writeGraphQLError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": nil,
		"errors": []map[string]interface{}{
			{
				"message":    message,
				"extensions": map[string]string{"code": code},
			},
		},
	})
}
