package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds connection and pool settings.
type Config struct {
	URL    string
	Driver string

	MaxConns        int
	MinConns        int
	AcquireTimeout  time.Duration
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// RefillInterval is how often the pool tops itself back up to MinConns
	// after idle or expired connections are closed. Zero derives it from
	// the idle time and lifetime.
	RefillInterval time.Duration

	SSL SSLPolicy
}

const (
	defaultMaxConns       = 10
	defaultMinConns       = 1
	defaultAcquireTimeout = 5 * time.Second
)

// Pool is the single shared connection pool. Every database operation
// borrows a connection through Acquire (or WithConn/WithTx) and returns it
// on every exit path.
type Pool struct {
	db             *sql.DB
	dialect        Dialect
	maxConns       int
	minConns       int
	acquireTimeout time.Duration
	log            zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Open creates the pool, warms MinConns connections and verifies the
// database answers a ping.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Pool, error) {
	dialect, dsn, err := ResolveDSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	minConns := cfg.MinConns
	if minConns <= 0 {
		minConns = defaultMinConns
	}
	if dialect.Name == SQLite && strings.Contains(dsn, ":memory:") {
		// Each in-memory connection would see its own empty database.
		maxConns, minConns = 1, 1
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	p := &Pool{
		db:             db,
		dialect:        dialect,
		maxConns:       maxConns,
		minConns:       minConns,
		acquireTimeout: acquireTimeout,
		log:            logger.With().Str("component", "database").Logger(),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	if err := p.warm(ctx, minConns); err != nil {
		_ = db.Close()
		return nil, err
	}

	if every := refillInterval(cfg); every > 0 {
		go p.keepMin(every)
	} else {
		close(p.done)
	}

	p.log.Info().
		Str("dialect", dialect.Name).
		Int("max_conns", maxConns).
		Int("min_conns", minConns).
		Msg("connection pool ready")
	return p, nil
}

// warm opens n connections at once so they sit idle in the pool.
func (p *Pool) warm(ctx context.Context, n int) error {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			p.Release(c)
		}
	}()
	for i := 0; i < n; i++ {
		c, err := p.Acquire(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
		if err := c.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: ping: %w", ErrConnectFailed, err)
		}
	}
	return nil
}

// refillInterval is zero when database/sql never closes idle connections.
func refillInterval(cfg Config) time.Duration {
	if cfg.RefillInterval > 0 {
		return cfg.RefillInterval
	}
	var d time.Duration
	for _, v := range []time.Duration{cfg.ConnMaxIdleTime, cfg.ConnMaxLifetime} {
		if v > 0 && (d == 0 || v < d) {
			d = v
		}
	}
	return d / 2
}

// keepMin reopens connections whenever database/sql has closed enough idle
// or expired ones to drop the pool below minConns.
func (p *Pool) keepMin(every time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			open := p.db.Stats().OpenConnections
			if open >= p.minConns {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), p.acquireTimeout)
			if err := p.warm(ctx, p.minConns); err != nil {
				p.log.Warn().Err(err).Int("open", open).Msg("refill pool")
			}
			cancel()
		}
	}
}

// Acquire borrows a connection, waiting at most the acquire timeout (or the
// context deadline, whichever is sooner). The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.db.Conn(actx)
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) && p.db.Stats().InUse >= p.maxConns {
		return nil, fmt.Errorf("%w: no connection within %s", ErrPoolExhausted, p.acquireTimeout)
	}
	return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
}

// Release returns a connection to the pool. Nil is ignored.
func (p *Pool) Release(conn *sql.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.log.Warn().Err(err).Msg("release connection")
	}
}

// WithConn runs fn with a borrowed connection and releases it afterwards,
// including when fn panics.
func (p *Pool) WithConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)
	return fn(conn)
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on error or panic.
func (p *Pool) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return p.WithConn(ctx, func(conn *sql.Conn) (err error) {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r)
			}
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		if err = fn(tx); err != nil {
			return err
		}
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

// Ping checks connectivity through a pooled connection.
func (p *Pool) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(conn *sql.Conn) error {
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: ping: %w", ErrConnectFailed, err)
		}
		return nil
	})
}

// Dialect returns the SQL flavour of the connected database.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Stats returns pool statistics.
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// DB exposes the underlying handle for collectors that need it.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close drains and closes all connections.
func (p *Pool) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
	p.log.Info().Msg("closing connection pool")
	return p.db.Close()
}
