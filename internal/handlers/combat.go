package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"emberfall/internal/game"
	"emberfall/pkg/combat"
)

// Combat actions accepted by the endpoint.
const (
	ActionEngage = "engage"
	ActionAttack = "attack"
	ActionFlee   = "flee"
)

// CombatRequest is the body of a combat action request.
type CombatRequest struct {
	WorldID uuid.UUID `json:"world_id"`
	Action  string    `json:"action"`
	EnemyID string    `json:"enemy_id,omitempty"` // required for engage
}

// CombatResponse reports the resolution of one combat action.
type CombatResponse struct {
	Phase  combat.Phase         `json:"phase"`
	Attack *combat.AttackResult `json:"attack,omitempty"`
	Player struct {
		Health int `json:"health"`
		Level  int `json:"level"`
		Exp    int `json:"exp"`
		Gold   int `json:"gold"`
	} `json:"player"`
}

type CombatHandler struct {
	registry *game.Registry
	logger   *slog.Logger
}

func NewCombatHandler(registry *game.Registry, logger *slog.Logger) *CombatHandler {
	return &CombatHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP handles POST /v1/combat. Mechanical results come back in
// the response; paced messages (opening lines, counter-attacks) arrive
// later on the event stream.
func (h *CombatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req CombatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
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

	resp := CombatResponse{}
	switch req.Action {
	case ActionEngage:
		if req.EnemyID == "" {
			writeError(w, h.logger, http.StatusBadRequest, "enemy_id is required for engage")
			return
		}
		if err := inst.Combat.Engage(r.Context(), req.EnemyID); err != nil {
			status := http.StatusNotFound
			if errors.Is(err, combat.ErrEnemyDefeated) || errors.Is(err, combat.ErrBusy) {
				status = http.StatusConflict
			}
			writeError(w, h.logger, status, err.Error())
			return
		}

	case ActionAttack:
		result, err := inst.Combat.Attack(r.Context())
		if err != nil {
			writeError(w, h.logger, http.StatusConflict, err.Error())
			return
		}
		resp.Attack = result
		if result.Victory {
			if err := h.registry.Save(r.Context(), inst); err != nil {
				h.logger.Error("Failed to save world after victory", "uuid", req.WorldID, "error", err)
			}
		}

	case ActionFlee:
		inst.Combat.Flee()
		if err := h.registry.Save(r.Context(), inst); err != nil {
			h.logger.Error("Failed to save world after flight", "uuid", req.WorldID, "error", err)
		}

	default:
		writeError(w, h.logger, http.StatusBadRequest, "Unknown combat action: "+req.Action)
		return
	}

	resp.Phase = inst.Combat.Phase()
	resp.Player.Health = inst.World.Player.Health
	resp.Player.Level = inst.World.Player.Level
	resp.Player.Exp = inst.World.Player.Exp
	resp.Player.Gold = inst.World.Player.Gold

	writeJSON(w, h.logger, http.StatusOK, resp)
}
