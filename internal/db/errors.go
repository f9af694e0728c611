package db

import (
	"errors"

	"github.com/lib/pq"
)

// Closed error set returned by Store implementations. Callers branch with
// errors.Is; the HTTP layer maps these to status codes.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRange is returned when an override window has start >= end.
	ErrInvalidRange = errors.New("override start time must be before end time")

	// ErrOverrideOverlap is returned when a new override window overlaps an
	// existing active override for the same site.
	ErrOverrideOverlap = errors.New("override overlaps an existing active override")

	// ErrDuplicateName is returned when a template name is already taken for
	// the site (case-insensitive).
	ErrDuplicateName = errors.New("a schedule with this name already exists for the site")

	// ErrDuplicateScriptName is returned when a script name is already taken
	// for the site (case-insensitive).
	ErrDuplicateScriptName = errors.New("a script with this name already exists for the site")

	// ErrInvalidOffset is returned when an entry offset is outside [0, 86400).
	ErrInvalidOffset = errors.New("execution offset must be within 24 hours (0-86399 seconds)")

	// ErrDuplicateOffset is returned when two entries in one request share an
	// execution offset.
	ErrDuplicateOffset = errors.New("duplicate execution offsets are not allowed")

	// ErrCannotDeleteDefault is returned when deleting a site's default
	// schedule template.
	ErrCannotDeleteDefault = errors.New("the default schedule cannot be deleted")
)

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505), the signal that a concurrent writer won a
// check-then-insert race.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
