package services

import (
	"context"

	"emberfall/pkg/chat"
)

// LLMService defines the interface for the text-completion endpoint
// that generates NPC and enemy dialogue.
type LLMService interface {
	// Chat sends a single-turn completion request and returns the
	// generated text. An unreachable endpoint is an ordinary error.
	Chat(ctx context.Context, messages []chat.ChatMessage) (string, error)
}
