// Package storage abstracts the small key-value persistence surface the
// engine needs: the durable audit snapshot, the remembered session token,
// and pending second-factor challenges. The host application chooses the
// backing: Redis for server deployments, Memory for the single-process
// mode the budgeting app runs in.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the key has no value (or it expired).
var ErrNotFound = errors.New("storage: key not found")

// Store is a minimal key-value store with optional per-key expiry.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
