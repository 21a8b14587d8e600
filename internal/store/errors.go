package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrRecordNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrCorruptRecord is returned when stored data cannot be decoded
	// into a valid record.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrRecordNotFound indicates that no cache record exists for the identifier.
	ErrRecordNotFound = fmt.Errorf("%w: cache record", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Backend   string // The storage backend (e.g., "file", "postgres")
	Operation string // The operation that failed (e.g., "read", "write")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s store failed: %s: %v",
			e.Operation,
			e.Backend,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s store failed: %s", e.Operation, e.Backend, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given backend, operation, message, and wrapped error.
func NewStoreError(backend, operation, message string, err error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
