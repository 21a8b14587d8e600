package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate text")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the executor configuration is invalid
	ErrInvalidConfig = errors.New("invalid executor configuration")

	// ErrEmptyRequest is returned when a request has no user content
	ErrEmptyRequest = errors.New("request user content cannot be empty")
)

// ErrorKind classifies an execution failure for the caller's disposition.
type ErrorKind string

// Possible error kinds
const (
	// KindTransient marks failures that may succeed on a later run:
	// network errors, rate limits, timeouts, server errors.
	KindTransient ErrorKind = "transient"

	// KindPermanent marks failures that will repeat for the same request:
	// malformed responses, safety blocks, rejected requests.
	KindPermanent ErrorKind = "permanent"
)

// ExecutionError is returned by Executor implementations for every failed call.
type ExecutionError struct {
	Kind    ErrorKind // Transient or permanent
	Message string    // Human readable description
	Err     error     // Original error
}

// Error implements the error interface for ExecutionError.
func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s execution failure: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s execution failure: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a transient ExecutionError.
func NewTransientError(message string, err error) *ExecutionError {
	return &ExecutionError{Kind: KindTransient, Message: message, Err: err}
}

// NewPermanentError creates a permanent ExecutionError.
func NewPermanentError(message string, err error) *ExecutionError {
	return &ExecutionError{Kind: KindPermanent, Message: message, Err: err}
}

// IsTransient reports whether err is worth retrying on a later run.
// Context cancellation and deadlines count as transient; unclassified
// errors are treated as transient too, since nothing was cached for them.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind == KindTransient
	}

	if errors.Is(err, ErrContentBlocked) || errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrEmptyRequest) {
		return false
	}

	return true
}

// IsTransientStatus reports whether an HTTP status code returned by a
// remote service may clear up on a later run: rate limits, request
// timeouts and server errors.
func IsTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= http.StatusInternalServerError
}

// ClassifyContextError wraps a context error as a transient execution failure,
// or returns nil if err is not a context error.
func ClassifyContextError(err error) *ExecutionError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTransientError("call timed out", err)
	case errors.Is(err, context.Canceled):
		return NewTransientError("call cancelled", err)
	default:
		return nil
	}
}
