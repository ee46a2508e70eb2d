package scheduling

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds returned by the engine.  Callers match them with
// errors.Is and translate them into transport responses.
var (
	// ErrNotFound means the poll, candidate or member is not present.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the request itself is malformed: an unknown
	// status, an unknown candidate or member on upsert, or a
	// required-role string over the configured length bound.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTimeout means the snapshot load ran past the caller's deadline.
	ErrTimeout = errors.New("timeout")
	// ErrInternal wraps unexpected storage failures verbatim.
	ErrInternal = errors.New("internal error")
)

// classify maps a storage error onto one of the engine's kinds.
// Errors that already carry a kind pass through untouched and a
// cancelled context is returned as-is.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrTimeout), errors.Is(err, ErrInternal):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
