package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/signalix/phoneauth/internal/model"
)

// CodeRepo stores at most one one-time code per phone number.
type CodeRepo interface {
	// Upsert replaces the code for phone, or inserts it if none exists.
	Upsert(ctx context.Context, phone, codeHash string, expiresAt time.Time) (model.AuthCode, error)
	// Consume atomically removes the code for phone and returns it. Returns
	// ErrNotFound when the phone has no code.
	Consume(ctx context.Context, phone string) (model.AuthCode, error)
	// PurgeExpired deletes codes that expired before the given time.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type codeRepo struct {
	db *sql.DB
}

// NewCodeRepo creates a Postgres-backed CodeRepo
func NewCodeRepo(db *sql.DB) CodeRepo {
	return &codeRepo{db: db}
}

// Upsert relies on the unique index on phone_number: concurrent requests for the
// same phone serialize on the row and the last writer wins.
func (r *codeRepo) Upsert(ctx context.Context, phone, codeHash string, expiresAt time.Time) (model.AuthCode, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO auth_codes (phone_number, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number) DO UPDATE
		SET code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = now()
		RETURNING id, phone_number, code_hash, expires_at, created_at
	`, phone, codeHash, expiresAt)

	code, err := scanCode(row)
	if err != nil {
		return model.AuthCode{}, fmt.Errorf("upsert code: %w", err)
	}
	return code, nil
}

// Consume deletes and returns in one statement so two verifications racing on
// the same phone cannot both observe the code.
func (r *codeRepo) Consume(ctx context.Context, phone string) (model.AuthCode, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM auth_codes
		WHERE phone_number = $1
		RETURNING id, phone_number, code_hash, expires_at, created_at
	`, phone)

	code, err := scanCode(row)
	if err != nil {
		return model.AuthCode{}, fmt.Errorf("consume code: %w", err)
	}
	return code, nil
}

// PurgeExpired deletes codes whose expiry is before the given time.
func (r *codeRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge expired codes: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

func scanCode(row *sql.Row) (model.AuthCode, error) {
	var code model.AuthCode
	var idStr string
	err := row.Scan(
		&idStr,
		&code.PhoneNumber,
		&code.CodeHash,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AuthCode{}, ErrNotFound
		}
		return model.AuthCode{}, err
	}
	code.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.AuthCode{}, fmt.Errorf("parse code ID: %w", err)
	}
	return code, nil
}
