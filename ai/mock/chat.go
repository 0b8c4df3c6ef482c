package mock

import (
	"context"
	"sync"

	"github.com/poiesic/ragkit/ai"
)

// MockChatModel is a test double for ai.ChatModel. It records every prompt it
// receives so tests can assert on prompt construction, and allows custom
// behavior injection via a function field.
type MockChatModel struct {
	// GenerateTextFunc is called by GenerateText if set.
	// If nil, returns Answer (or a fixed default).
	GenerateTextFunc func(ctx context.Context, messages []ai.Message) (string, error)

	// Answer is the canned response returned when GenerateTextFunc is nil.
	Answer string

	mu      sync.Mutex
	prompts [][]ai.Message
}

// NewMockChatModel creates a mock chat model with a canned answer.
// Note: Returns concrete type to allow test assertions.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{Answer: "mock answer"}
}

// GenerateText records the prompt and returns the configured answer.
func (m *MockChatModel) GenerateText(ctx context.Context, messages []ai.Message) (string, error) {
	m.mu.Lock()
	copied := make([]ai.Message, len(messages))
	copy(copied, messages)
	m.prompts = append(m.prompts, copied)
	m.mu.Unlock()

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, messages)
	}
	return m.Answer, nil
}

// CallCount returns the number of GenerateText invocations.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns all recorded prompts in call order.
func (m *MockChatModel) Prompts() [][]ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]ai.Message, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastPrompt returns the most recent prompt, or nil if none were recorded.
func (m *MockChatModel) LastPrompt() []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return nil
	}
	return m.prompts[len(m.prompts)-1]
}

// Reset clears recorded prompts and injected behavior.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.GenerateTextFunc = nil
}
