package task

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
)

// SkipKind names the stage at which an item was given up on.
type SkipKind string

// Possible skip kinds
const (
	SkipExecution  SkipKind = "execution"
	SkipRender     SkipKind = "render"
	SkipCacheRead  SkipKind = "cache_read"
	SkipCacheWrite SkipKind = "cache_write"
	SkipCancelled  SkipKind = "cancelled"
)

// SkipReason explains why an item produced no record. Nothing is cached for
// a skipped item, so a later run will try it again.
type SkipReason struct {
	Kind SkipKind
	Err  error
}

// Error implements the error interface for SkipReason.
func (s *SkipReason) Error() string {
	if s.Err == nil {
		return fmt.Sprintf("skipped at %s", s.Kind)
	}
	return fmt.Sprintf("skipped at %s: %v", s.Kind, s.Err)
}

// Unwrap returns the underlying error.
func (s *SkipReason) Unwrap() error {
	return s.Err
}

func newSkip(kind SkipKind, err error) *SkipReason {
	return &SkipReason{Kind: kind, Err: err}
}

// Outcome is the result of running one work item: either a record or a
// skip reason, never both.
type Outcome struct {
	ItemID uuid.UUID
	Item   *domain.WorkItem
	Record *domain.CacheRecord

	// FromCache is true when the record was read rather than generated.
	FromCache bool

	Skip *SkipReason
}

// Skipped reports whether the item produced no record.
func (o Outcome) Skipped() bool {
	return o.Skip != nil
}
