package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
)

// CacheStore defines the interface for durable, write-once cache records
// keyed by content-derived identifiers.
// Version: 1.0
type CacheStore interface {
	// Exists reports whether a record is stored for the identifier.
	// It must not need to read the full record.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Read retrieves the record stored for the identifier.
	// Returns ErrRecordNotFound if no record exists.
	Read(ctx context.Context, id uuid.UUID) (*domain.CacheRecord, error)

	// Write durably stores a record. A crash during Write must never leave
	// a partial record visible to Exists or Read.
	// Returns ErrInvalidEntity if the record fails validation.
	Write(ctx context.Context, record *domain.CacheRecord) error
}
