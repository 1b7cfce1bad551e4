package store

import (
	"errors"
	"fmt"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the postgres error code raised when two writers race for
// the same (topic, version) pair.
const uniqueViolation = "23505"

// WrapError wraps an error with an operation context.
func WrapError(operation string, err error) error {
	return fmt.Errorf("%s: %w", operation, err)
}

// WrapNotFound wraps an error, converting pgx.ErrNoRows to domain.ErrNotFound.
func WrapNotFound(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return WrapError(operation, err)
}

// WrapConflict wraps an error, converting a unique-constraint violation to
// domain.ErrVersionConflict.
func WrapConflict(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrVersionConflict
	}
	return WrapError(operation, err)
}
