// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the scheduling engine to distinguish between different
// failure scenarios. ErrNotFound is the engine's own not-found kind so
// a missing poll surfaces unchanged through scheduling.Engine, while
// ErrConflict signals that a write collides with existing state (a
// duplicate external identity or script revision).
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// ErrNotFound is returned when a looked-up row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = scheduling.ErrNotFound

// ErrConflict is returned when an insert or update cannot be
// performed because of conflicting state, such as a member whose
// external identity is already registered in the project. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// notFound wraps ErrNotFound with the kind and id that were missing.
func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// isDuplicate reports whether err is a unique or primary key
// violation from either supported driver.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isForeignKey reports whether err is a foreign key violation.
func isForeignKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1452
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// ErrInvalidWindow is returned when a candidate does not start
// strictly before it ends.
var ErrInvalidWindow = errors.New("candidate must start before it ends")
