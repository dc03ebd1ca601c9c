package services

import (
	"context"
	"sync"

	"emberfall/pkg/chat"
)

// MockLLM is a test double for LLMService. Set ChatFunc for custom
// behavior, or SetChatError to force every call to fail.
type MockLLM struct {
	mu       sync.Mutex
	ChatFunc func(ctx context.Context, messages []chat.ChatMessage) (string, error)
	chatErr  error

	// Requests records every message slice passed to Chat.
	Requests [][]chat.ChatMessage
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a mock that echoes a canned line.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// SetChatError makes every subsequent Chat call return err.
func (m *MockLLM) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatErr = err
}

// Chat implements LLMService.
func (m *MockLLM) Chat(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, messages)
	err := m.chatErr
	fn := m.ChatFunc
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if fn != nil {
		return fn(ctx, messages)
	}
	return "A mock reply.", nil
}

// RequestCount returns how many Chat calls were made.
func (m *MockLLM) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
