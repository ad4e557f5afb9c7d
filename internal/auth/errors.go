package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAuthCode means no code is pending for the phone or the submitted code differs.
	ErrInvalidAuthCode = errors.New("invalid auth code")
	// ErrAuthCodeExpired means the code matched but was past its expiry. The code is consumed regardless.
	ErrAuthCodeExpired = errors.New("auth code expired")
	// ErrInvalidToken covers bad signatures, malformed or expired tokens and blacklisted jti values.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidTokenType is matched by *InvalidTokenTypeError.
	ErrInvalidTokenType = errors.New("invalid token type")
	// ErrUserNotFound means a valid token references a user that does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInactive means the token is valid but the account is deactivated.
	ErrInactive = errors.New("user inactive")
	// ErrFailedToCreate means the lazy signup insert failed.
	ErrFailedToCreate = errors.New("failed to create user")
	// ErrInternal wraps unexpected storage and infrastructure failures.
	ErrInternal = errors.New("internal error")
)

// InvalidTokenTypeError is returned when an access token is presented where a
// refresh token is required, or the other way around.
type InvalidTokenTypeError struct {
	Received string
	Expected string
}

func (e *InvalidTokenTypeError) Error() string {
	return fmt.Sprintf("invalid token type %q, expected %q", e.Received, e.Expected)
}

// Is lets errors.Is(err, ErrInvalidTokenType) match.
func (e *InvalidTokenTypeError) Is(target error) bool {
	return target == ErrInvalidTokenType
}

func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
