package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/signalix/phoneauth/internal/model"
	"github.com/signalix/phoneauth/internal/repo"
)

var errStoreDown = errors.New("connection refused")

type fakeCodeRepo struct {
	mu    sync.Mutex
	codes map[string]model.AuthCode
	err   error
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: make(map[string]model.AuthCode)}
}

func (r *fakeCodeRepo) Upsert(_ context.Context, phone, codeHash string, expiresAt time.Time) (model.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return model.AuthCode{}, r.err
	}
	c := model.AuthCode{
		ID:          uuid.New(),
		PhoneNumber: phone,
		CodeHash:    codeHash,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	}
	r.codes[phone] = c
	return c, nil
}

func (r *fakeCodeRepo) Consume(_ context.Context, phone string) (model.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return model.AuthCode{}, r.err
	}
	c, ok := r.codes[phone]
	if !ok {
		return model.AuthCode{}, fmt.Errorf("consume code: %w", repo.ErrNotFound)
	}
	delete(r.codes, phone)
	return c, nil
}

func (r *fakeCodeRepo) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for phone, c := range r.codes {
		if c.ExpiresAt.Before(before) {
			delete(r.codes, phone)
			n++
		}
	}
	return n, nil
}

func (r *fakeCodeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

type fakeUserRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]model.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uuid.UUID]model.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, fmt.Errorf("user: %w", repo.ErrNotFound)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byPhoneLocked(phone)
}

func (r *fakeUserRepo) GetOrCreateByPhone(_ context.Context, phone string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, err := r.byPhoneLocked(phone); err == nil {
		return u, nil
	}
	if r.createErr != nil {
		return model.User{}, r.createErr
	}
	u := model.User{ID: uuid.New(), PhoneNumber: phone, Active: true, CreatedAt: time.Now()}
	r.byID[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) byPhoneLocked(phone string) (model.User, error) {
	for _, u := range r.byID {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("user: %w", repo.ErrNotFound)
}

func (r *fakeUserRepo) put(u model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
}

func (r *fakeUserRepo) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// fakeBlacklistRepo mirrors the Postgres table: when users is set the user_id
// foreign key is enforced.
type fakeBlacklistRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]time.Time
	users   *fakeUserRepo
	err     error
}

func newFakeBlacklistRepo(users *fakeUserRepo) *fakeBlacklistRepo {
	return &fakeBlacklistRepo{entries: make(map[uuid.UUID]time.Time), users: users}
}

func (r *fakeBlacklistRepo) Add(ctx context.Context, jti, userID uuid.UUID, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.entries[jti]; ok {
		return fmt.Errorf("blacklist %s: %w", jti, repo.ErrAlreadyExists)
	}
	if r.users != nil {
		if _, err := r.users.GetByID(ctx, userID); err != nil {
			return fmt.Errorf("blacklist owner %s: %w", userID, repo.ErrNotFound)
		}
	}
	r.entries[jti] = expiresAt
	return nil
}

func (r *fakeBlacklistRepo) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for jti, expiresAt := range r.entries {
		if expiresAt.Before(before) {
			delete(r.entries, jti)
			n++
		}
	}
	return n, nil
}

func (r *fakeBlacklistRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type sentCode struct {
	phone     string
	code      string
	expiresAt time.Time
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (s *recordingSender) Send(_ context.Context, phone, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentCode{phone: phone, code: code, expiresAt: expiresAt})
	return nil
}

func (s *recordingSender) last() sentCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}
