package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/signalix/phoneauth/internal/model"
)

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetOrCreateByPhone(ctx context.Context, phone string) (model.User, error)
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, phone_number, active, superuser, created_at`

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByPhone retrieves a user by phone number
func (r *userRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	return scanUser(row)
}

// GetOrCreateByPhone returns the user owning phone, inserting one if none exists.
// A concurrent insert of the same phone loses the ON CONFLICT race and re-reads
// the winner's row instead of failing.
func (r *userRepo) GetOrCreateByPhone(ctx context.Context, phone string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (phone_number)
		VALUES ($1)
		ON CONFLICT (phone_number) DO NOTHING
		RETURNING `+userColumns, phone)

	user, err := scanUser(row)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	// ON CONFLICT DO NOTHING returns no row when the phone already exists.
	return r.GetByPhone(ctx, phone)
}

func scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	var idStr string
	err := row.Scan(
		&idStr,
		&user.PhoneNumber,
		&user.Active,
		&user.Superuser,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user: %w", ErrNotFound)
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return user, nil
}
