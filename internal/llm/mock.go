package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable Client for tests. CompleteFn receives the
// 1-based call number so tests can vary behavior per call.
type MockClient struct {
	mu        sync.Mutex
	calls     int
	CompleteFn func(ctx context.Context, call int, req Request) (*Response, error)
}

func (m *MockClient) Complete(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.CompleteFn(ctx, call, req)
}

// Calls returns how many times Complete was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) Close() {}
