package port

import (
	"context"
	"time"
)

// Cache is the minimal key-value contract the messaging core needs for the
// unread badge. Values are strings; callers own serialization.
// Implementations must be safe for concurrent use and context-aware.
type Cache interface {
	// Get fetches the value for key, or ErrMiss when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	// Close releases held resources.
	Close() error
}

// ErrMiss signals a cache miss in a typed way so callers can tell misses
// from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
