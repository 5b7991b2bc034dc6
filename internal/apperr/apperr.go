// Package apperr defines the error taxonomy shared by the services and the
// HTTP layer: every failure surfaced to a caller carries a Kind that maps to
// a single response status.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a classified, human-readable failure.
// Two errors match under errors.Is when their codes are equal, regardless of
// kind or message, so a sentinel still matches after WithKind or Withf.
type Error struct {
	Kind    Kind
	Code    string
	Msg     string
	Details any
	// Status, when non-zero, replaces the response status derived from Kind.
	Status int
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithKind returns a copy of e reported under kind k.
func (e *Error) WithKind(k Kind) *Error {
	c := *e
	c.Kind = k
	return &c
}

// Withf returns a copy of e whose message is extended with the formatted text.
func (e *Error) Withf(format string, args ...any) *Error {
	c := *e
	c.Msg = e.Msg + ": " + fmt.Sprintf(format, args...)
	return &c
}

// WithStatus returns a copy of e answered with the given response status.
func (e *Error) WithStatus(status int) *Error {
	c := *e
	c.Status = status
	return &c
}

// WithDetails returns a copy of e carrying structured details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func NotFound(code, msg string) *Error     { return New(KindNotFound, code, msg) }
func Validation(code, msg string) *Error   { return New(KindValidation, code, msg) }
func Conflict(code, msg string) *Error     { return New(KindConflict, code, msg) }
func Forbidden(code, msg string) *Error    { return New(KindForbidden, code, msg) }
func Unauthorized(code, msg string) *Error { return New(KindUnauthorized, code, msg) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
