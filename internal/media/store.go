// Package media is a thin blob store for user uploads. Nothing in the auth
// flow depends on it.
package media

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the media storage contract.
type Store interface {
	// Upload stores data under a fresh key derived from name and returns it.
	Upload(ctx context.Context, name string, data []byte) (string, error)
	// Replace overwrites the object stored under key.
	Replace(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) ([]Object, error)
}

// NewKey turns an uploaded file name into a unique object key: spaces become
// underscores and a random hex prefix is added.
func NewKey(name string) string {
	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + NormalizeKey(name)
}

// NormalizeKey replaces spaces with underscores.
func NormalizeKey(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
