package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/signalix/phoneauth/internal/model"
)

const codeKeyPrefix = "authcode:"

// redisCode is the JSON value stored under authcode:<phone>.
type redisCode struct {
	ID        uuid.UUID `json:"id"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type redisCodeRepo struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewRedisCodeRepo creates a Redis-backed CodeRepo. Keys outlive the code expiry
// by retention so that a late attempt is still reported as expired rather than
// unknown.
func NewRedisCodeRepo(rdb *redis.Client, retention time.Duration) CodeRepo {
	return &redisCodeRepo{rdb: rdb, retention: retention}
}

func (r *redisCodeRepo) Upsert(ctx context.Context, phone, codeHash string, expiresAt time.Time) (model.AuthCode, error) {
	now := time.Now()
	rec := redisCode{
		ID:        uuid.New(),
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return model.AuthCode{}, fmt.Errorf("encode code: %w", err)
	}

	ttl := expiresAt.Sub(now) + r.retention
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.rdb.Set(ctx, codeKeyPrefix+phone, b, ttl).Err(); err != nil {
		return model.AuthCode{}, fmt.Errorf("upsert code: %w", err)
	}
	return rec.toModel(phone), nil
}

// Consume uses GETDEL so the read and the delete are one atomic command.
func (r *redisCodeRepo) Consume(ctx context.Context, phone string) (model.AuthCode, error) {
	b, err := r.rdb.GetDel(ctx, codeKeyPrefix+phone).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.AuthCode{}, fmt.Errorf("consume code: %w", ErrNotFound)
		}
		return model.AuthCode{}, fmt.Errorf("consume code: %w", err)
	}

	var rec redisCode
	if err := json.Unmarshal(b, &rec); err != nil {
		return model.AuthCode{}, fmt.Errorf("decode code: %w", err)
	}
	return rec.toModel(phone), nil
}

// PurgeExpired is a no-op: Redis expires the keys itself.
func (r *redisCodeRepo) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (c redisCode) toModel(phone string) model.AuthCode {
	return model.AuthCode{
		ID:          c.ID,
		PhoneNumber: phone,
		CodeHash:    c.CodeHash,
		ExpiresAt:   c.ExpiresAt,
		CreatedAt:   c.CreatedAt,
	}
}
