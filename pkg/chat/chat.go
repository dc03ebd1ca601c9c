// Package chat defines the message types exchanged with the
// text-completion endpoint and the player-facing chat API.
package chat

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant" // NPC or enemy voice
	ChatRoleSystem = "system"
)

// ChatMessage is a single message in a completion conversation.
// The shape is defined by the OpenAI-style chat completions API.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// NPCChatRequest is the body of a player-to-NPC chat request.
type NPCChatRequest struct {
	WorldID uuid.UUID `json:"world_id"`
	NPCID   string    `json:"npc_id"`
	Message string    `json:"message"`
}

// NPCChatResponse is the reply shown in the NPC's chat bubble.
type NPCChatResponse struct {
	WorldID uuid.UUID `json:"world_id,omitempty"`
	NPCID   string    `json:"npc_id,omitempty"`
	Message string    `json:"message,omitempty"`
}

func (r *NPCChatRequest) Validate() error {
	if r.NPCID == "" {
		return fmt.Errorf("npc_id cannot be empty")
	}
	if r.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
