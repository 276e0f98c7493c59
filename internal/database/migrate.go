package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Report summarizes what EnsureSchema changed.
type Report struct {
	CreatedTables []string
	AddedColumns  []string // "table.column"
}

// Changed reports whether any DDL was applied.
func (r Report) Changed() bool {
	return len(r.CreatedTables) > 0 || len(r.AddedColumns) > 0
}

// Migrator brings the database to the target schema with additive,
// idempotent steps. It never drops or rewrites anything.
type Migrator struct {
	pool   *Pool
	tables []Table
	log    zerolog.Logger
}

// NewMigrator creates a migrator for the given tables. A nil tables slice
// means the service Schema.
func NewMigrator(pool *Pool, tables []Table, logger zerolog.Logger) *Migrator {
	if tables == nil {
		tables = Schema
	}
	return &Migrator{
		pool:   pool,
		tables: tables,
		log:    logger.With().Str("component", "migrator").Logger(),
	}
}

// EnsureSchema creates missing tables and adds missing columns. Each
// statement commits on its own; running it again after success is a no-op.
func (m *Migrator) EnsureSchema(ctx context.Context) (Report, error) {
	var report Report
	err := m.pool.WithConn(ctx, func(conn *sql.Conn) error {
		for _, t := range m.tables {
			if err := m.ensureTable(ctx, conn, t, &report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	if report.Changed() {
		m.log.Info().
			Strs("created_tables", report.CreatedTables).
			Strs("added_columns", report.AddedColumns).
			Msg("schema updated")
	} else {
		m.log.Debug().Msg("schema up to date")
	}
	return report, nil
}

func (m *Migrator) ensureTable(ctx context.Context, conn *sql.Conn, t Table, report *Report) error {
	d := m.pool.Dialect()

	existing, err := m.columns(ctx, conn, t.Name)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		defs := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			defs = append(defs, d.ColumnDDL(c))
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", "))
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: create table %s: %w", ErrDDLFailed, t.Name, err)
		}
		report.CreatedTables = append(report.CreatedTables, t.Name)
		return nil
	}

	for _, c := range t.Columns {
		if existing[strings.ToLower(c.Name)] {
			continue
		}
		if d.Name == SQLite && c.Default == CurrentTimestamp {
			// SQLite only accepts constant defaults on ADD COLUMN.
			c.Default = "1970-01-01 00:00:00"
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", t.Name, d.ColumnDDL(c))
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: add column %s.%s: %w", ErrDDLFailed, t.Name, c.Name, err)
		}
		report.AddedColumns = append(report.AddedColumns, t.Name+"."+c.Name)
	}
	return nil
}

// columns returns the lower-cased column names of a table; empty when the
// table does not exist.
func (m *Migrator) columns(ctx context.Context, conn *sql.Conn, table string) (map[string]bool, error) {
	query, err := m.pool.Dialect().ColumnsQuery()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDDLFailed, err)
	}
	rows, err := conn.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect %s: %w", ErrDDLFailed, table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: inspect %s: %w", ErrDDLFailed, table, err)
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: inspect %s: %w", ErrDDLFailed, table, err)
	}
	return cols, nil
}
