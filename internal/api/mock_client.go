package api

import (
	"context"
	"iter"
	"sync"
)

// MockAgentClient is a scripted AgentClientInterface for testing
type MockAgentClient struct {
	// Stream script: Deltas are yielded in order, then StreamErr if set
	Deltas    []string
	StreamErr error
	// Fallback script
	SendVal string
	SendErr error
	// BeforeDelta, when set, runs before each delta is yielded
	BeforeDelta func(i int)

	BaseURLVal string

	mu            sync.Mutex
	streamPrompts []string
	sendPrompts   []string
	closeCalled   bool
}

// Ensure MockAgentClient implements AgentClientInterface
var _ AgentClientInterface = (*MockAgentClient)(nil)

// Stream yields the scripted deltas. The call is recorded when ranged.
func (m *MockAgentClient) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.mu.Lock()
		m.streamPrompts = append(m.streamPrompts, prompt)
		m.mu.Unlock()

		for i, d := range m.Deltas {
			if m.BeforeDelta != nil {
				m.BeforeDelta(i)
			}
			if !yield(d, nil) {
				return
			}
		}
		if m.StreamErr != nil {
			yield("", m.StreamErr)
		}
	}
}

// Send returns the scripted fallback result
func (m *MockAgentClient) Send(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.sendPrompts = append(m.sendPrompts, prompt)
	m.mu.Unlock()

	if m.SendErr != nil {
		return "", m.SendErr
	}
	return m.SendVal, nil
}

// BaseURL returns BaseURLVal
func (m *MockAgentClient) BaseURL() string {
	return m.BaseURLVal
}

// Close records the call
func (m *MockAgentClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
}

// StreamPrompts returns the prompts of every ranged stream
func (m *MockAgentClient) StreamPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.streamPrompts...)
}

// SendPrompts returns the prompts of every fallback call
func (m *MockAgentClient) SendPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sendPrompts...)
}

// CloseCalled reports whether Close was called
func (m *MockAgentClient) CloseCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalled
}
