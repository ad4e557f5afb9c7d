package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalix/phoneauth/internal/auth"
)

// statusFor maps a service error to an HTTP status and a client-safe message.
// Unexpected errors never leak their text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidAuthCode):
		return http.StatusUnauthorized, "invalid auth code"
	case errors.Is(err, auth.ErrAuthCodeExpired):
		return http.StatusUnauthorized, "auth code expired"
	case errors.Is(err, auth.ErrInvalidTokenType):
		var typeErr *auth.InvalidTokenTypeError
		if errors.As(err, &typeErr) {
			return http.StatusUnauthorized, typeErr.Error()
		}
		return http.StatusUnauthorized, "invalid token type"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusUnauthorized, "user not found"
	case errors.Is(err, auth.ErrInactive):
		return http.StatusForbidden, "user inactive"
	case errors.Is(err, auth.ErrFailedToCreate):
		return http.StatusInternalServerError, "failed to create user"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondWithServiceError writes the mapped error response for err.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	RespondWithError(w, status, msg)
}

// RespondWithError sends a JSON error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
