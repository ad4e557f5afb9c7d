package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/signalix/phoneauth/internal/logger"
	"github.com/signalix/phoneauth/internal/model"
	"github.com/signalix/phoneauth/internal/repo"
	"go.uber.org/zap"
)

// CodeGenerator returns a numeric code of the given length.
type CodeGenerator func(length int) (string, error)

// CodeIssuer issues and verifies one-time codes. At most one code per phone is
// live: a new request overwrites the previous one.
type CodeIssuer struct {
	codes    repo.CodeRepo
	sender   CodeSender
	salt     string
	length   int
	ttl      time.Duration
	generate CodeGenerator
	now      func() time.Time
	logger   *zap.Logger
}

// CodeIssuerOption customizes a CodeIssuer.
type CodeIssuerOption func(*CodeIssuer)

// WithCodeGenerator replaces the random generator.
func WithCodeGenerator(g CodeGenerator) CodeIssuerOption {
	return func(ci *CodeIssuer) { ci.generate = g }
}

// WithFixedCode makes every issued code equal to code. Used in dev mode.
func WithFixedCode(code string) CodeIssuerOption {
	return WithCodeGenerator(func(int) (string, error) { return code, nil })
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CodeIssuerOption {
	return func(ci *CodeIssuer) { ci.now = now }
}

// NewCodeIssuer creates a new code issuer.
func NewCodeIssuer(codes repo.CodeRepo, sender CodeSender, salt string, length int, ttl time.Duration, logger *zap.Logger, opts ...CodeIssuerOption) *CodeIssuer {
	ci := &CodeIssuer{
		codes:    codes,
		sender:   sender,
		salt:     salt,
		length:   length,
		ttl:      ttl,
		generate: generateCode,
		now:      time.Now,
		logger:   logger.Named("code_issuer"),
	}
	for _, opt := range opts {
		opt(ci)
	}
	return ci
}

// RequestCode generates a code for phone, hands the plaintext to the sender
// and then stores its hash, replacing any previous code. A failed delivery
// leaves the previous code in place.
func (ci *CodeIssuer) RequestCode(ctx context.Context, phone string) error {
	code, err := ci.generate(ci.length)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	expiresAt := ci.now().Add(ci.ttl)

	if err := ci.sender.Send(ctx, phone, code, expiresAt); err != nil {
		return internal("send code", err)
	}

	if _, err := ci.codes.Upsert(ctx, phone, hashCodeHex(phone, code, ci.salt), expiresAt); err != nil {
		return internal("store code", err)
	}
	ci.logger.Debug("code stored", logger.Phone(phone), zap.Time("expires_at", expiresAt))
	return nil
}

// ConsumeAndVerify removes the phone's code before checking it, so a code can
// be tried exactly once whatever the outcome.
func (ci *CodeIssuer) ConsumeAndVerify(ctx context.Context, phone, code string) (model.AuthCode, error) {
	stored, err := ci.codes.Consume(ctx, phone)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.AuthCode{}, ErrInvalidAuthCode
		}
		return model.AuthCode{}, internal("consume code", err)
	}

	expected, err := hex.DecodeString(stored.CodeHash)
	if err != nil {
		return model.AuthCode{}, internal("decode code hash", err)
	}
	if subtle.ConstantTimeCompare(hashCodeBytes(phone, code, ci.salt), expected) != 1 {
		return model.AuthCode{}, ErrInvalidAuthCode
	}
	if stored.Expired(ci.now()) {
		return model.AuthCode{}, ErrAuthCodeExpired
	}
	return stored, nil
}

// generateCode returns length uniformly random decimal digits.
func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// hashCodeHex returns SHA-256(phone:code:salt) as hex for storage
func hashCodeHex(phone, code, salt string) string {
	return hex.EncodeToString(hashCodeBytes(phone, code, salt))
}

func hashCodeBytes(phone, code, salt string) []byte {
	hash := sha256.Sum256([]byte(phone + ":" + code + ":" + salt))
	return hash[:]
}
