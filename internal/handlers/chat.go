package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"emberfall/internal/game"
	"emberfall/pkg/chat"
	"emberfall/pkg/combat"
	"emberfall/pkg/dialogue"
	"emberfall/pkg/emotion"
	"emberfall/pkg/trade"
)

type ChatHandler struct {
	registry *game.Registry
	gateway  *dialogue.Gateway
	mood     combat.MoodSource
	logger   *slog.Logger
}

func NewChatHandler(registry *game.Registry, gateway *dialogue.Gateway, mood combat.MoodSource, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		registry: registry,
		gateway:  gateway,
		mood:     mood,
		logger:   logger,
	}
}

// ServeHTTP handles POST /v1/chat. Trade intents aimed at a trader
// resolve locally without touching the language model; everything
// else goes through the dialogue gateway.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req chat.NPCChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if req.WorldID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "world_id is required")
		return
	}

	inst, err := h.registry.Get(r.Context(), req.WorldID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world")
		return
	}
	if inst == nil {
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}

	npc := inst.World.NPCByID(req.NPCID)
	if npc == nil {
		writeError(w, h.logger, http.StatusNotFound, "NPC not found")
		return
	}

	var sample *emotion.Sample
	if h.mood != nil {
		sample = h.mood.Current()
	}

	if npc.IsTrader() {
		result := trade.HandleIntent(req.Message, inst.World.Player, sample)
		if result.Handled {
			if result.Sold {
				if err := h.registry.Save(r.Context(), inst); err != nil {
					h.logger.Error("Failed to save world after trade", "uuid", req.WorldID, "error", err)
				}
			}
			writeJSON(w, h.logger, http.StatusOK, chat.NPCChatResponse{
				WorldID: req.WorldID,
				NPCID:   req.NPCID,
				Message: result.Message,
			})
			return
		}
	}

	reply, err := h.gateway.NPCReply(r.Context(), req.Message, npc, inst.World.Player, sample)
	if err != nil {
		if errors.Is(err, dialogue.ErrNPCUnavailable) {
			h.logger.Warn("NPC dialogue unavailable", "npc", req.NPCID, "error", err)
			writeJSON(w, h.logger, http.StatusOK, chat.NPCChatResponse{
				WorldID: req.WorldID,
				NPCID:   req.NPCID,
				Message: npc.Name + " seems distracted and doesn't respond.",
			})
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to generate reply")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, chat.NPCChatResponse{
		WorldID: req.WorldID,
		NPCID:   req.NPCID,
		Message: reply,
	})
}
