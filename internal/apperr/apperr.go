// Package apperr defines the error taxonomy shared by the simulation kernel
// and the HTTP surface. Kernel components return typed errors; the API layer
// maps kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota // unexpected failure, 500
	KindValidation           // malformed input, 400
	KindAuth                 // missing/invalid identity, 401
	KindNotFound             // unknown universe/anomaly, 404
	KindBusinessRule         // state forbids the operation, 400
	KindPersistence          // storage unreachable or write conflict, 500
)

// Error carries a kind, a user-safe message, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a typed error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func BusinessRule(format string, args ...any) *Error {
	return New(KindBusinessRule, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindAuth, format, args...)
}

// KindOf extracts the kind from any error chain. Untyped errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
