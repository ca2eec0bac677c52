package api

import (
	"context"
	"sync"
)

// MockGenerator is a Generator for tests. When Respond is set it takes
// precedence over Text/Err.
type MockGenerator struct {
	Text    string
	Err     error
	Respond func(ctx context.Context, req GenerateRequest) (string, error)

	mu       sync.Mutex
	calls    int
	requests []GenerateRequest
}

// Ensure MockGenerator implements Generator
var _ Generator = (*MockGenerator)(nil)

// Generate implements Generator
func (m *MockGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	respond := m.Respond
	m.mu.Unlock()

	if respond != nil {
		return respond(ctx, req)
	}
	return m.Text, m.Err
}

// Calls returns the number of Generate calls
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request, if any
func (m *MockGenerator) LastRequest() (GenerateRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return GenerateRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}
