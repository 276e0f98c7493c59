package cache

import (
	"context"
	"time"
)

// Cache stores short-lived detection results keyed by image fingerprint.
// MemoryCache serves single-instance deployments; RedisCache is shared
// between replicas.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// GetOrSet returns the cached value, or computes, stores and returns it.
	// The bool reports a cache hit.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, bool, error)

	// Len returns the number of live entries.
	Len(ctx context.Context) (int64, error)

	// Close releases background resources.
	Close() error
}

// CacheError is a sentinel cache error.
type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss indicates the key was not found.
const ErrCacheMiss CacheError = "cache miss"
