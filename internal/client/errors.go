package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failed call.
type Kind int

const (
	// UnknownFailure is reported by KindOf for errors that did not come
	// from this package.
	UnknownFailure Kind = iota
	// AuthFailure means the API key was missing or rejected (401/403).
	AuthFailure
	// ValidationFailure means the request was rejected (400 and other 4xx).
	ValidationFailure
	// NotFoundFailure means the task does not exist (404).
	NotFoundFailure
	// RateLimitFailure means the client is being throttled (429).
	RateLimitFailure
	// ServerFailure means the server failed or answered with something
	// the client could not understand.
	ServerFailure
	// NetworkFailure means no response was received.
	NetworkFailure
)

func (k Kind) String() string {
	switch k {
	case AuthFailure:
		return "auth failure"
	case ValidationFailure:
		return "validation failure"
	case NotFoundFailure:
		return "not found"
	case RateLimitFailure:
		return "rate limited"
	case ServerFailure:
		return "server failure"
	case NetworkFailure:
		return "network failure"
	default:
		return "unknown failure"
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	// Op is the operation that failed, such as "list tasks".
	Op   string
	Kind Kind
	// StatusCode is zero for network failures.
	StatusCode int
	// Message is the error text returned by the server, if any.
	Message string
	// Fields holds field-level validation messages.
	Fields map[string]string
	// RetryAfter is set for rate-limited calls.
	RetryAfter time.Duration
	// Err is the underlying transport or decoding error.
	Err error
}

// Error returns a general description of the failure. Server details stay
// in Message and Fields.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or UnknownFailure if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownFailure
}

// IsAuthFailure reports whether err is an authentication failure.
func IsAuthFailure(err error) bool {
	return KindOf(err) == AuthFailure
}

// FieldErrors returns the validation messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// kindForStatus maps an unsuccessful status code to a Kind.
func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return AuthFailure
	case code == http.StatusNotFound:
		return NotFoundFailure
	case code == http.StatusTooManyRequests:
		return RateLimitFailure
	case code >= 500:
		return ServerFailure
	default:
		return ValidationFailure
	}
}
