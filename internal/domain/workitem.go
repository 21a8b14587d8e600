package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// seedSeparator joins payload and auxiliary text in an identity seed.
// It is the ASCII unit separator, which does not occur in ordinary text.
const seedSeparator = "\x1f"

// Identify derives the content-addressed identifier for the given text.
//
// The identifier is a name-based SHA-1 UUID (version 5) in the URL
// namespace, so identical text always maps to the same identifier
// regardless of run order, process, or machine.
func Identify(text string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(text))
}

// ParseID parses the textual form of an identifier.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// WorkItem is a single unit of text to be transformed by the remote
// generation service. Its ID is derived from its content and never
// supplied by callers.
type WorkItem struct {
	ID        uuid.UUID `json:"id"`
	Payload   string    `json:"payload"`
	Auxiliary string    `json:"auxiliary,omitempty"`

	// Title and Source describe where the payload came from. They are
	// carried through to the output but take no part in identity.
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

// NewWorkItem creates a WorkItem for the given payload and optional
// auxiliary text, deriving its ID from both.
// Returns an error if validation fails.
func NewWorkItem(payload, auxiliary string) (*WorkItem, error) {
	item := &WorkItem{
		Payload:   payload,
		Auxiliary: auxiliary,
	}
	item.ID = Identify(item.IdentitySeed())

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// IdentitySeed returns the exact text the item's identifier is derived
// from: the payload alone, or the payload and auxiliary text when the item
// carries one (for example a question asked about a knowledge passage).
func (w *WorkItem) IdentitySeed() string {
	if w.Auxiliary == "" {
		return w.Payload
	}
	return w.Payload + seedSeparator + w.Auxiliary
}

// ResolveID returns the item's identifier, deriving it from the content
// when the item does not carry a precomputed one.
func (w *WorkItem) ResolveID() uuid.UUID {
	if w.ID != uuid.Nil {
		return w.ID
	}
	return Identify(w.IdentitySeed())
}

// Validate checks if the WorkItem has valid data.
// A precomputed ID must match the one derived from the content.
func (w *WorkItem) Validate() error {
	if w.Payload == "" {
		return ErrEmptyPayload
	}

	if w.ID != uuid.Nil && w.ID != Identify(w.IdentitySeed()) {
		return ErrIDMismatch
	}

	return nil
}
