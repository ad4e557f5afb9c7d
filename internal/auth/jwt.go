package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/signalix/phoneauth/internal/model"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both access and refresh tokens. Identity
// claims are only populated on access tokens.
type Claims struct {
	Type      string `json:"type"`
	Phone     string `json:"phone,omitempty"`
	Active    *bool  `json:"active,omitempty"`
	Superuser *bool  `json:"superuser,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// TokenID parses the jti claim.
func (c *Claims) TokenID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad jti: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// JWTService handles JWT token operations. It owns the signing secret,
// algorithm and expiry policy and is safe for concurrent use.
type JWTService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service. algorithm must name an HMAC method
// (HS256, HS384 or HS512).
func NewJWTService(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*JWTService, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &JWTService{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// IssueAccessToken creates a short-lived access token carrying the user's identity claims.
func (s *JWTService) IssueAccessToken(user model.User) (string, error) {
	active, superuser := user.Active, user.Superuser
	claims := s.newClaims(user, TokenTypeAccess, s.accessTTL)
	claims.Phone = user.PhoneNumber
	claims.Active = &active
	claims.Superuser = &superuser

	token, err := s.sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken creates a long-lived refresh token. It carries only the
// subject so that identity changes take effect on the next refresh.
func (s *JWTService) IssueRefreshToken(user model.User) (string, error) {
	token, err := s.sign(s.newClaims(user, TokenTypeRefresh, s.refreshTTL))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, nil
}

// IssuePair issues a fresh access/refresh pair for user.
func (s *JWTService) IssuePair(user model.User) (model.TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    model.TokenTypeBearer,
	}, nil
}

// Decode verifies the signature and registered claims of tokenString. Every
// failure is reported as ErrInvalidToken wrapping the jwt error.
func (s *JWTService) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateType checks the "type" claim.
func ValidateType(claims *Claims, expected string) error {
	if claims.Type != expected {
		return &InvalidTokenTypeError{Received: claims.Type, Expected: expected}
	}
	return nil
}

func (s *JWTService) newClaims(user model.User, tokenType string, ttl time.Duration) *Claims {
	now := s.now()
	return &Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (s *JWTService) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}
