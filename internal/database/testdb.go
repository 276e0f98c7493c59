package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// NewTestPool opens a file-backed SQLite pool in a temp directory with the
// full schema applied. It is closed when the test ends.
func NewTestPool(t testing.TB) *Pool {
	t.Helper()

	pool := OpenTestPool(t, Config{MaxConns: 4})
	if _, err := NewMigrator(pool, nil, zerolog.Nop()).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

// OpenTestPool opens an empty file-backed SQLite pool. URL and Driver in
// cfg are overwritten.
func OpenTestPool(t testing.TB, cfg Config) *Pool {
	t.Helper()

	cfg.URL = "sqlite://" + filepath.Join(t.TempDir(), "test.db")
	cfg.Driver = SQLite
	if cfg.AcquireTimeout == 0 {
		cfg.AcquireTimeout = 5 * time.Second
	}

	pool, err := Open(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}
