package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCodeRepo_UpsertReplacesPreviousCode(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	codes := NewRedisCodeRepo(rdb, time.Hour)
	phone := "+15551234567"
	expiresAt := time.Now().Add(5 * time.Minute)

	first, err := codes.Upsert(ctx, phone, "hash-1", expiresAt)
	require.NoError(t, err)
	second, err := codes.Upsert(ctx, phone, "hash-2", expiresAt)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	keys := mr.Keys()
	assert.Equal(t, []string{codeKeyPrefix + phone}, keys, "one key per phone")

	ttl := mr.TTL(codeKeyPrefix + phone)
	assert.Greater(t, ttl, time.Hour, "key must outlive the code by the retention window")

	got, err := codes.Consume(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", got.CodeHash)
	assert.Equal(t, phone, got.PhoneNumber)
	assert.WithinDuration(t, expiresAt, got.ExpiresAt, time.Second)
}

func TestRedisCodeRepo_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	codes := NewRedisCodeRepo(rdb, time.Hour)
	phone := "+15551234567"

	_, err := codes.Upsert(ctx, phone, "hash", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = codes.Consume(ctx, phone)
	require.NoError(t, err)

	_, err = codes.Consume(ctx, phone)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCodeRepo_ConsumeUnknownPhone(t *testing.T) {
	_, rdb := newTestRedis(t)
	codes := NewRedisCodeRepo(rdb, time.Hour)

	_, err := codes.Consume(context.Background(), "+15550000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisBlacklistRepo_AddTwiceFails(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	blacklist := NewRedisBlacklistRepo(rdb)
	jti, userID := uuid.New(), uuid.New()

	require.NoError(t, blacklist.Add(ctx, jti, userID, time.Now().Add(24*time.Hour)))
	err := blacklist.Add(ctx, jti, userID, time.Now().Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	stored, err := mr.Get(blacklistKeyPrefix + jti.String())
	require.NoError(t, err)
	assert.Equal(t, userID.String(), stored)
	assert.Greater(t, mr.TTL(blacklistKeyPrefix+jti.String()), 23*time.Hour)
}

func TestRedisBlacklistRepo_EntryExpiresWithToken(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	blacklist := NewRedisBlacklistRepo(rdb)
	jti := uuid.New()

	require.NoError(t, blacklist.Add(ctx, jti, uuid.New(), time.Now().Add(time.Minute)))
	mr.FastForward(2 * time.Minute)

	assert.NoError(t, blacklist.Add(ctx, jti, uuid.New(), time.Now().Add(time.Minute)),
		"an expired entry no longer blocks the jti")
}
