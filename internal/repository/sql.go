package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"pantry-api/internal/database"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// table binds a dialect to one managed table and its column list.
type table[T any] struct {
	pool    *database.Pool
	sql     sq.StatementBuilderType
	name    string
	columns []string
	scan    func(rowScanner) (*T, error)
}

func newTable[T any](pool *database.Pool, name string, columns []string, scan func(rowScanner) (*T, error)) table[T] {
	return table[T]{
		pool:    pool,
		sql:     pool.Dialect().Builder(),
		name:    name,
		columns: columns,
		scan:    scan,
	}
}

func (t table[T]) returning() string {
	return "RETURNING " + strings.Join(t.columns, ", ")
}

func (t table[T]) selectByID(ctx context.Context, q querier, id int64) (*T, error) {
	query, args, err := t.sql.Select(t.columns...).From(t.name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	v, err := t.scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// get returns one record by id.
func (t table[T]) get(ctx context.Context, id int64) (*T, error) {
	var v *T
	err := t.pool.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		v, err = t.selectByID(ctx, conn, id)
		return err
	})
	return v, err
}

// list returns all records matching where, newest first.
func (t table[T]) list(ctx context.Context, where sq.Sqlizer) ([]T, error) {
	b := t.sql.Select(t.columns...).From(t.name).OrderBy("id DESC")
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	out := make([]T, 0)
	err = t.pool.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			v, err := t.scan(rows)
			if err != nil {
				return err
			}
			out = append(out, *v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// insert runs q and returns the stored row. Dialects with RETURNING do it in
// one statement; the rest insert and read back inside one transaction.
func (t table[T]) insert(ctx context.Context, q sq.InsertBuilder) (*T, error) {
	if t.pool.Dialect().Returning {
		query, args, err := q.Suffix(t.returning()).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}
		var v *T
		err = t.pool.WithConn(ctx, func(conn *sql.Conn) error {
			var err error
			v, err = t.scan(conn.QueryRowContext(ctx, query, args...))
			return err
		})
		return v, err
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	var v *T
	err = t.pool.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		v, err = t.selectByID(ctx, tx, id)
		return err
	})
	return v, err
}

// update runs q (already filtered by id) and returns the updated row, or
// ErrNotFound when no row matched.
func (t table[T]) update(ctx context.Context, id int64, q sq.UpdateBuilder) (*T, error) {
	if t.pool.Dialect().Returning {
		query, args, err := q.Suffix(t.returning()).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build update: %w", err)
		}
		var v *T
		err = t.pool.WithConn(ctx, func(conn *sql.Conn) error {
			var err error
			v, err = t.scan(conn.QueryRowContext(ctx, query, args...))
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		})
		return v, err
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	var v *T
	err = t.pool.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		v, err = t.selectByID(ctx, tx, id)
		return err
	})
	return v, err
}

func (t table[T]) delete(ctx context.Context, id int64) error {
	query, args, err := t.sql.Delete(t.name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return t.pool.WithConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (t table[T]) count(ctx context.Context) (int64, error) {
	query, args, err := t.sql.Select("COUNT(*)").From(t.name).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int64
	err = t.pool.WithConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, query, args...).Scan(&n)
	})
	return n, err
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
