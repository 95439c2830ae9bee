package apperr

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Kind classifies an error so the HTTP layer can pick a status code
// without inspecting storage-level details.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindEmpty
)

// Error is the taxonomy error carried across package boundaries.
// Field is set for validation errors that belong to a specific
// request field; it is empty otherwise.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a field-keyed validation failure.
func Validation(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing referenced entity.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a duplicate of a unique relation.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden reports an actor without rights to the target.
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// Empty reports an aggregation over an empty set, distinct from a
// valid zero-length result.
func Empty(msg string) *Error {
	return &Error{Kind: KindEmpty, Msg: msg}
}

// Internal wraps an unexpected storage or infrastructure failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf extracts the taxonomy kind; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Postgres error codes surfaced by lib/pq during commit.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// FromPG translates a constraint violation surfaced by the driver
// into the taxonomy instead of leaking the raw storage error. The
// unique constraint is the race arbiter for toggle inserts, so 23505
// must come back as a Conflict.
func FromPG(err error, msg string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return Internal(msg, err)
	}
	switch string(pqErr.Code) {
	case pgUniqueViolation:
		return &Error{Kind: KindConflict, Msg: msg, Err: err}
	case pgForeignKeyViolation:
		return &Error{Kind: KindNotFound, Msg: msg, Err: err}
	case pgCheckViolation:
		return &Error{Kind: KindValidation, Msg: msg, Err: err}
	}
	return Internal(msg, err)
}

// IsUniqueViolation reports whether err is a raw 23505 from the driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}
