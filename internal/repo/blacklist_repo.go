package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BlacklistRepo records token ids (jti) that have been spent or revoked.
type BlacklistRepo interface {
	// Add blacklists jti for userID. Returns ErrAlreadyExists when jti is already
	// blacklisted; the check and the insert are a single atomic operation.
	Add(ctx context.Context, jti, userID uuid.UUID, expiresAt time.Time) error
	// PurgeExpired deletes entries whose token expired before the given time.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type blacklistRepo struct {
	db *sql.DB
}

// NewBlacklistRepo creates a Postgres-backed BlacklistRepo
func NewBlacklistRepo(db *sql.DB) BlacklistRepo {
	return &blacklistRepo{db: db}
}

// Add inserts the jti. The primary key on jti makes a replayed token fail with
// a unique violation; the foreign key on user_id rejects unknown users.
func (r *blacklistRepo) Add(ctx context.Context, jti, userID uuid.UUID, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blacklist_tokens (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, jti, userID, expiresAt)
	switch {
	case err == nil:
		return nil
	case isPQError(err, pqUniqueViolation):
		return fmt.Errorf("blacklist %s: %w", jti, ErrAlreadyExists)
	case isPQError(err, pqForeignKeyViolation):
		return fmt.Errorf("blacklist owner %s: %w", userID, ErrNotFound)
	default:
		return fmt.Errorf("insert blacklist token: %w", err)
	}
}

// PurgeExpired deletes blacklist rows for tokens that can no longer verify.
func (r *blacklistRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blacklist_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge blacklist: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
