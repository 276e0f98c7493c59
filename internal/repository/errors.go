package repository

import (
	"errors"
	"fmt"

	"pantry-api/internal/database"
)

var (
	// ErrNotFound is returned when no record has the requested identifier.
	ErrNotFound = errors.New("record not found")

	// ErrWriteFailed wraps a failed insert, update or delete statement.
	ErrWriteFailed = errors.New("write failed")

	// ErrQueryFailed wraps a failed read.
	ErrQueryFailed = errors.New("query failed")
)

// wrap tags err with kind unless it already carries a more specific cause.
func wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, database.ErrPoolExhausted) ||
		errors.Is(err, database.ErrConnectFailed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
