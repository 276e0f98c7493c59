package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestPoolAcquireRelease(t *testing.T) {
	pool := OpenTestPool(t, Config{MaxConns: 2, MinConns: 2})
	ctx := context.Background()

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got := pool.Stats().OpenConnections; got < 2 {
		t.Errorf("expected at least 2 warm connections, got %d", got)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := pool.Stats().InUse; got != 1 {
		t.Errorf("expected 1 connection in use, got %d", got)
	}
	pool.Release(conn)
	pool.Release(nil)
	if got := pool.Stats().InUse; got != 0 {
		t.Errorf("expected 0 connections in use after release, got %d", got)
	}
}

func TestPoolExhausted(t *testing.T) {
	pool := OpenTestPool(t, Config{MaxConns: 1, AcquireTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer pool.Release(held)

	_, err = pool.Acquire(ctx)
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestWithConnReleasesOnPanic(t *testing.T) {
	pool := OpenTestPool(t, Config{MaxConns: 1, AcquireTimeout: 100 * time.Millisecond})
	ctx := context.Background()

	func() {
		defer func() { _ = recover() }()
		_ = pool.WithConn(ctx, func(*sql.Conn) error {
			panic("boom")
		})
	}()

	if err := pool.WithConn(ctx, func(*sql.Conn) error { return nil }); err != nil {
		t.Fatalf("expected connection to be released after panic, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	pool := NewTestPool(t)
	ctx := context.Background()
	errStop := errors.New("stop")

	err := pool.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO food_inventory (name) VALUES ('Rice')"); err != nil {
			return err
		}
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("expected errStop, got %v", err)
	}

	var n int
	if err := pool.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM food_inventory").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected rollback to leave 0 rows, got %d", n)
	}

	err = pool.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO food_inventory (name) VALUES ('Beans')")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}
	_ = pool.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM food_inventory").Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 committed row, got %d", n)
	}
}

func TestOpenUnreachable(t *testing.T) {
	_, err := Open(context.Background(), Config{URL: "mongodb://nowhere"}, testLogger())
	if !errors.Is(err, ErrConnectFailed) {
		t.Errorf("expected ErrConnectFailed, got %v", err)
	}
}

func TestPoolRefillsToMinimum(t *testing.T) {
	pool := OpenTestPool(t, Config{
		MaxConns:        4,
		MinConns:        2,
		ConnMaxIdleTime: 10 * time.Millisecond,
		RefillInterval:  20 * time.Millisecond,
	})

	// database/sql reaps idle connections at most once per second.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := pool.Stats()
		if s.MaxIdleTimeClosed > 0 && s.OpenConnections >= 2 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	s := pool.Stats()
	t.Fatalf("expected idle connections reaped and refilled to 2, got open=%d idle_closed=%d",
		s.OpenConnections, s.MaxIdleTimeClosed)
}

func TestRefillInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want time.Duration
	}{
		{"never reaped", Config{}, 0},
		{"explicit", Config{RefillInterval: time.Second, ConnMaxIdleTime: time.Minute}, time.Second},
		{"idle time", Config{ConnMaxIdleTime: 4 * time.Minute, ConnMaxLifetime: 30 * time.Minute}, 2 * time.Minute},
		{"lifetime only", Config{ConnMaxLifetime: 10 * time.Minute}, 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refillInterval(tt.cfg); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
