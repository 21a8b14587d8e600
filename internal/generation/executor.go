package generation

import (
	"context"
	"strings"
)

// Request is a fully rendered request for one remote call: the system
// instructions plus the user content built from a work item (including any
// few-shot exemplars). Executors send it as-is.
type Request struct {
	// System holds optional system instructions.
	System string `json:"system,omitempty"`

	// User holds the user content of the call.
	User string `json:"user"`
}

// Validate checks that the request has user content.
func (r Request) Validate() error {
	if strings.TrimSpace(r.User) == "" {
		return ErrEmptyRequest
	}
	return nil
}

// Executor defines the interface for making a single generation call.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
//
// Implementations must be safe for concurrent use, perform no caching and
// no retries, and return failures as *ExecutionError.
type Executor interface {
	// Execute sends the request and returns the generated text.
	//
	// Parameters:
	//   - ctx: Context for the call, carrying the per-call deadline and cancellation
	//   - req: The rendered request
	//
	// Returns:
	//   - The generated text
	//   - An *ExecutionError if the call fails (see errors.go)
	Execute(ctx context.Context, req Request) (string, error)

	// Model returns the model selector the executor calls, recorded on cache records.
	Model() string
}
