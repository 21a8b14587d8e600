package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrEmptyPayload is returned when a work item has no payload text.
	ErrEmptyPayload = errors.New("payload cannot be empty")

	// ErrInvalidID is returned when an identifier is nil or malformed.
	ErrInvalidID = errors.New("invalid ID")

	// ErrIDMismatch is returned when a work item's ID does not match the
	// identifier derived from its content.
	ErrIDMismatch = errors.New("ID does not match content")

	// ErrEmptyResult is returned when a cache record carries no result text.
	ErrEmptyResult = errors.New("result cannot be empty")

	// ErrInvalidRecordStatus is returned when a record status is not valid.
	ErrInvalidRecordStatus = errors.New("invalid record status")
)
