// Package domain defines the typed error taxonomy shared by all services and
// handlers. Every failure path in the core either returns a nil value for
// expected absence or an *Error carrying a machine-readable code, a human
// message, and structured context. The API boundary maps each Kind to a fixed
// HTTP status, so services never reason about status codes themselves.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error into one of the fixed categories the API
// boundary knows how to serialize.
type Kind string

const (
	KindAlreadyExists Kind = "already_exists"
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindUnauthorized  Kind = "unauthorized"
	KindValidation    Kind = "validation"
	KindDomain        Kind = "domain"
)

// Error is the single error type crossing service boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Context map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With attaches a context key/value pair and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Wrap records an underlying cause and returns the error for chaining.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// AlreadyExists reports a duplicate unique key (email, ownership pair,
// favorite tuple, restored entity id).
func AlreadyExists(code, message string) *Error {
	return &Error{Kind: KindAlreadyExists, Code: code, Message: message}
}

// NotFound reports an absent entity or relation.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Forbidden reports an authenticated caller with insufficient privilege.
func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// Unauthorized reports a missing, invalid, or expired credential.
func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

// Validation reports malformed input.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// New reports a business-rule violation not covered by the other kinds.
func New(code, message string) *Error {
	return &Error{Kind: KindDomain, Code: code, Message: message}
}

// KindOf returns the Kind of err if it is (or wraps) a domain Error, and
// KindDomain otherwise.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindDomain
}

// IsKind reports whether err is (or wraps) a domain Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

func IsAlreadyExists(err error) bool { return IsKind(err, KindAlreadyExists) }
func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
func IsForbidden(err error) bool     { return IsKind(err, KindForbidden) }
func IsUnauthorized(err error) bool  { return IsKind(err, KindUnauthorized) }
func IsValidation(err error) bool    { return IsKind(err, KindValidation) }
