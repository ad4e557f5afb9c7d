package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/signalix/phoneauth/internal/auth"
	"github.com/signalix/phoneauth/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// UserResolver turns an access token into the active user it belongs to.
type UserResolver interface {
	CurrentActiveUser(ctx context.Context, accessToken string) (*model.User, error)
}

// AuthMiddleware validates the bearer access token and attaches the active
// user to the request context.
func AuthMiddleware(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], model.TokenTypeBearer) {
				respondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				respondWithError(w, http.StatusUnauthorized, "missing token")
				return
			}

			user, err := users.CurrentActiveUser(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrInactive):
					respondWithError(w, http.StatusForbidden, "user inactive")
				case errors.Is(err, auth.ErrUserNotFound):
					respondWithError(w, http.StatusUnauthorized, "user not found")
				case errors.Is(err, auth.ErrInternal):
					respondWithError(w, http.StatusInternalServerError, "internal server error")
				default:
					respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the user attached to the request context (set by AuthMiddleware)
func GetUser(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}
