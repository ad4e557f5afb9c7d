package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/signalix/phoneauth/internal/auth"
	"github.com/signalix/phoneauth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, token string) (*model.User, error)

func (f resolverFunc) CurrentActiveUser(ctx context.Context, token string) (*model.User, error) {
	return f(ctx, token)
}

func TestAuthMiddleware(t *testing.T) {
	user := &model.User{ID: uuid.New(), PhoneNumber: "+15551234567", Active: true}
	resolver := resolverFunc(func(_ context.Context, token string) (*model.User, error) {
		switch token {
		case "good":
			return user, nil
		case "inactive":
			return nil, auth.ErrInactive
		case "gone":
			return nil, auth.ErrUserNotFound
		case "broken":
			return nil, fmt.Errorf("load user: %w: timeout", auth.ErrInternal)
		default:
			return nil, auth.ErrInvalidToken
		}
	})

	var seen *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := AuthMiddleware(resolver)(next)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", "Bearer gone", http.StatusUnauthorized},
		{"inactive user", "Bearer inactive", http.StatusForbidden},
		{"store failure", "Bearer broken", http.StatusInternalServerError},
		{"lowercase scheme", "bearer good", http.StatusNoContent},
		{"valid", "Bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, user.ID, seen.ID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}

func TestGetUser_Empty(t *testing.T) {
	u, ok := GetUser(context.Background())
	assert.False(t, ok)
	assert.Nil(t, u)
}
