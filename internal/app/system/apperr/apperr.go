// Package apperr defines the error kinds surfaced by the assignment engine
// and the visit scheduling services.
//
// Every error returned from a core operation is either an *Error or wraps
// one, so callers can branch on KindOf(err) without string matching:
//
//	switch apperr.KindOf(err) {
//	case apperr.NotFound:
//	    // 404
//	case apperr.Unauthorized:
//	    // 403
//	}
//
// Sentinels (ErrGroupNotFound, ErrNoBucketsAvailable, ...) match with
// errors.Is even after being re-created with more context via With.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and presentation.
type Kind string

const (
	Internal     Kind = "internal"
	NotFound     Kind = "not_found"
	Unauthorized Kind = "unauthorized"
	Validation   Kind = "validation"
	Conflict     Kind = "conflict"
)

// Error is the single error type used by core operations.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "visits.SubmitReport"
	Msg  string // stable, human-readable message
	Err  error  // underlying cause, if any
}

func (e *Error) Error() string {
	s := e.Msg
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and message. This lets
// sentinels match copies produced by With.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// With returns a copy of e annotated with the operation name.
func (e *Error) With(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// Wrap returns a copy of e annotated with the operation name and cause.
func (e *Error) Wrap(op string, cause error) *Error {
	c := *e
	c.Op = op
	c.Err = cause
	return &c
}

// Sentinel errors.
var (
	ErrNoBucketsAvailable = &Error{Kind: Validation, Msg: "no groups available"}
	ErrUnknownStrategy    = &Error{Kind: Validation, Msg: "unknown distribution strategy"}
	ErrEntityNotFound     = &Error{Kind: NotFound, Msg: "entity not found"}
	ErrGroupNotFound      = &Error{Kind: NotFound, Msg: "group not found"}
	ErrScheduleNotFound   = &Error{Kind: NotFound, Msg: "visit schedule not found"}
	ErrReportNotFound     = &Error{Kind: NotFound, Msg: "visit report not found"}
	ErrUnauthorized       = &Error{Kind: Unauthorized, Msg: "actor is not the owner of this record"}
	ErrDuplicate          = &Error{Kind: Conflict, Msg: "record already exists"}
)

// New creates an error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validationf is shorthand for New(Validation, ...).
func Validationf(op, format string, args ...any) *Error {
	return New(Validation, op, format, args...)
}

// Internalf wraps an unexpected failure (usually a store error).
func Internalf(op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: Internal, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the message of the first *Error in err's chain, or a
// generic fallback for unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "an unexpected error occurred"
}
