package database

import "errors"

var (
	// ErrConnectFailed indicates the database could not be reached or a
	// connection could not be established.
	ErrConnectFailed = errors.New("database connect failed")

	// ErrPoolExhausted indicates every pooled connection stayed busy for the
	// whole acquire timeout.
	ErrPoolExhausted = errors.New("database pool exhausted")

	// ErrDDLFailed indicates a schema statement failed during migration.
	ErrDDLFailed = errors.New("schema migration failed")

	// ErrUnsupportedDriver is returned for drivers other than postgres, mysql and sqlite.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
