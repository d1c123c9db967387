// Package apperr provides structured error types shared across the agent
// execution core. Error carries a Kind so callers can branch on failure
// category while still preserving the original cause for
// errors.Is/As and for log/diagnostic output.
package apperr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories surfaced by the runtime. Callers use
// Kind to decide how a failure should be propagated: tool errors return to
// the model, evaluator errors mark a criterion ERROR without aborting the
// suite, and engine-invariant violations abort the turn.
type Kind string

const (
	// InvalidInput indicates a schema violation or an unknown identifier
	// (unknown tool name, malformed arguments).
	InvalidInput Kind = "invalid_input"
	// NotFound indicates a missing suite, trigger, or experience id.
	NotFound Kind = "not_found"
	// Timeout indicates a model, sandbox, or evaluator batch call exceeded
	// its deadline.
	Timeout Kind = "timeout"
	// Cancelled indicates the governing context was cancelled.
	Cancelled Kind = "cancelled"
	// Conflict indicates a trigger was already cancelled or a state merge
	// conflicted on a replace strategy.
	Conflict Kind = "conflict"
	// DependencyFailed indicates an upstream criterion ended in ERROR.
	DependencyFailed Kind = "dependency_failed"
	// ExternalFailure indicates an SPI collaborator (search provider, reply
	// channel, repository) returned an error.
	ExternalFailure Kind = "external_failure"
)

// Error is the structured error type returned by every package in this
// module. It preserves a causal chain so wrapped errors still work with
// errors.Is/As while carrying a stable Kind for callers that branch on
// failure category.
type Error struct {
	Kind Kind
	Message string
	Cause error
}

// New constructs an Error of the given Kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given Kind wrapping cause. If message is
// empty, the cause's message is reused.
func Wrap(kind Kind, message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Errorf formats a message and wraps it in an Error of the given Kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the wrapped cause so errors.Is/As traverse the chain.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, in addition to
// the standard errors.Is chain traversal via Unwrap.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, and
// ExternalFailure otherwise — callers that need a best-effort classification
// for unfamiliar errors (e.g. at the edge of an SPI call) can use this
// instead of assuming InvalidInput.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ExternalFailure
}
