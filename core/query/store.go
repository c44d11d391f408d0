package query

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is not cached (or expired).
var ErrMiss = errors.New("cache miss")

// Store persists encoded query results.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key Key) error
	// DeletePrefix deletes every key matching prefix (segment-wise).
	DeletePrefix(ctx context.Context, prefix Key) error
}
