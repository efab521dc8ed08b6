package storage

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the backend could not be read or written.
	ErrUnavailable = errors.New("storage backend unavailable")
)

// Backend is a minimal string key/value store.
//
// Get reports ok=false for a missing key; that is not an error.
// Delete of a missing key is a no-op.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
