// Package dialogue wraps outbound text-completion requests for NPC
// chat and enemy battle lines. Enemy dialogue never fails: generation
// errors degrade to the enemy's static battle cries.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"emberfall/pkg/actor"
	"emberfall/pkg/chat"
	"emberfall/pkg/emotion"
)

// ErrNPCUnavailable is the typed failure for the NPC dialogue path.
// Callers surface a generic distraction message, never the raw error.
var ErrNPCUnavailable = errors.New("npc dialogue unavailable")

// Situation selects the enemy prompt flavor.
type Situation string

const (
	SituationAttack Situation = "attack"
	SituationDefend Situation = "defend"
	SituationDeath  Situation = "death"
)

// requestTimeout bounds every completion round-trip.
const requestTimeout = 10 * time.Second

// Line is the result of an enemy dialogue request. Fallback marks a
// locally substituted battle cry; fallback is a normal, anticipated
// outcome, not an exception.
type Line struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Completer is the minimal completion surface the gateway needs.
type Completer interface {
	Chat(ctx context.Context, messages []chat.ChatMessage) (string, error)
}

// Gateway synthesizes dialogue prompts from character state and an
// optional affect annotation.
type Gateway struct {
	llm    Completer
	logger *slog.Logger
}

// NewGateway creates a dialogue gateway.
func NewGateway(llm Completer, logger *slog.Logger) *Gateway {
	return &Gateway{
		llm:    llm,
		logger: logger,
	}
}

// NPCReply generates an in-character reply to the player's message.
// On any failure it returns ErrNPCUnavailable; the gateway does not
// retry.
func (g *Gateway) NPCReply(ctx context.Context, userText string, npc *actor.NPC, player *actor.Player, mood *emotion.Sample) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: npcSystemPrompt(npc, player, mood)},
		{Role: chat.ChatRoleUser, Content: userText},
	}

	reply, err := g.llm.Chat(reqCtx, messages)
	if err != nil {
		g.logger.Warn("NPC dialogue generation failed",
			"npc", npc.ID, "error", err)
		return "", fmt.Errorf("%w: %v", ErrNPCUnavailable, err)
	}
	return reply, nil
}

// EnemyLine generates a situation-appropriate enemy line. It always
// resolves to some line: on failure a battle cry is drawn uniformly
// from the enemy's static list so combat progression never blocks.
func (g *Gateway) EnemyLine(ctx context.Context, enemy *actor.Enemy, situation Situation, mood *emotion.Sample) Line {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: enemySystemPrompt(enemy, situation, mood)},
		{Role: chat.ChatRoleUser, Content: string(situation)},
	}

	text, err := g.llm.Chat(reqCtx, messages)
	if err != nil {
		g.logger.Debug("Enemy dialogue fell back to battle cry",
			"enemy", enemy.ID, "situation", string(situation), "error", err)
		return Line{Text: g.battleCry(enemy), Fallback: true}
	}
	return Line{Text: text}
}

// battleCry draws uniformly from the enemy's static lines. The
// package-level source is used because EnemyLine runs concurrently
// from combat goroutines.
func (g *Gateway) battleCry(enemy *actor.Enemy) string {
	if len(enemy.BattleCries) == 0 {
		return "..."
	}
	return enemy.BattleCries[rand.Intn(len(enemy.BattleCries))]
}
