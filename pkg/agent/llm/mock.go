package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient provides a controllable implementation of LLMClient for testing.
// Each Complete call consumes the next scripted step; every request is recorded.
type MockClient struct {
	mu       sync.Mutex
	steps    []MockStep
	next     int
	requests []CompletionRequest
	model    string
}

// MockStep is one scripted reply: Content, or Err when set.
type MockStep struct {
	Content string
	Err     error
}

// NewMockClient creates a mock that replays steps in order.
func NewMockClient(steps ...MockStep) *MockClient {
	return &MockClient{steps: steps, model: "mock-model"}
}

// Reply is a shorthand for a successful step.
func Reply(content string) MockStep {
	return MockStep{Content: content}
}

// Fail is a shorthand for a failing step.
func Fail(err error) MockStep {
	return MockStep{Err: err}
}

// Complete returns the next scripted response or error.
func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.next >= len(m.steps) {
		return CompletionResponse{}, fmt.Errorf("mock client: no more responses")
	}
	step := m.steps[m.next]
	m.next++
	if step.Err != nil {
		return CompletionResponse{}, step.Err
	}
	return CompletionResponse{Content: step.Content}, nil
}

// GetModelName returns the mock model name.
func (m *MockClient) GetModelName() string {
	return m.model
}

// Requests returns a copy of every request seen so far.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns how many requests were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
