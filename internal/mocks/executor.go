package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/synthgen/internal/generation"
)

// MockExecutor implements generation.Executor for testing
type MockExecutor struct {
	// ExecuteFn allows test cases to mock the Execute behavior
	ExecuteFn func(ctx context.Context, req generation.Request) (string, error)

	// Default response values
	Result    string
	Err       error
	ModelName string

	// Call tracking for verification
	ExecuteCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times Execute was called
		Count int

		// Requests contains all requests passed to Execute calls
		Requests []generation.Request

		// inFlight is the number of Execute calls currently running
		inFlight int

		// MaxInFlight is the highest observed number of simultaneous calls
		MaxInFlight int
	}
}

// Execute implements the generation.Executor interface
func (m *MockExecutor) Execute(ctx context.Context, req generation.Request) (string, error) {
	m.ExecuteCalls.mu.Lock()
	m.ExecuteCalls.Count++
	m.ExecuteCalls.Requests = append(m.ExecuteCalls.Requests, req)
	m.ExecuteCalls.inFlight++
	if m.ExecuteCalls.inFlight > m.ExecuteCalls.MaxInFlight {
		m.ExecuteCalls.MaxInFlight = m.ExecuteCalls.inFlight
	}
	m.ExecuteCalls.mu.Unlock()

	defer func() {
		m.ExecuteCalls.mu.Lock()
		m.ExecuteCalls.inFlight--
		m.ExecuteCalls.mu.Unlock()
	}()

	// Use custom function if provided
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, req)
	}

	// Return default values
	return m.Result, m.Err
}

// Model implements the generation.Executor interface
func (m *MockExecutor) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// CallCount returns the number of Execute calls so far.
func (m *MockExecutor) CallCount() int {
	m.ExecuteCalls.mu.Lock()
	defer m.ExecuteCalls.mu.Unlock()
	return m.ExecuteCalls.Count
}

// MaxConcurrent returns the peak number of simultaneous Execute calls.
func (m *MockExecutor) MaxConcurrent() int {
	m.ExecuteCalls.mu.Lock()
	defer m.ExecuteCalls.mu.Unlock()
	return m.ExecuteCalls.MaxInFlight
}

// UserPrompts returns the user prompt of every request seen so far.
func (m *MockExecutor) UserPrompts() []string {
	m.ExecuteCalls.mu.Lock()
	defer m.ExecuteCalls.mu.Unlock()
	prompts := make([]string, len(m.ExecuteCalls.Requests))
	for i, r := range m.ExecuteCalls.Requests {
		prompts[i] = r.User
	}
	return prompts
}

// NewMockExecutorWithResult creates a MockExecutor that returns result for every request
func NewMockExecutorWithResult(result string) *MockExecutor {
	return &MockExecutor{
		Result: result,
	}
}

// NewMockExecutorWithError creates a MockExecutor that returns the specified error
func NewMockExecutorWithError(err error) *MockExecutor {
	return &MockExecutor{
		Err: err,
	}
}

// NewEchoExecutor creates a MockExecutor whose result is derived from the user prompt
func NewEchoExecutor() *MockExecutor {
	return &MockExecutor{
		ExecuteFn: func(_ context.Context, req generation.Request) (string, error) {
			return "result:" + req.User, nil
		},
	}
}
