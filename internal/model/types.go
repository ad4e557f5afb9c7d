package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenTypeBearer is the token_type returned alongside every issued pair.
const TokenTypeBearer = "Bearer"

// User represents a user in the system
type User struct {
	ID          uuid.UUID
	PhoneNumber string
	Active      bool
	Superuser   bool
	CreatedAt   time.Time
}

// AuthCode is the single live one-time code for a phone number.
// Only the hash of the code is persisted.
type AuthCode struct {
	ID          uuid.UUID
	PhoneNumber string
	CodeHash    string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c AuthCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// TokenPair is an access/refresh credential pair handed to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}
