package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"emberfall/internal/events"
	"emberfall/internal/game"
	"emberfall/internal/storage"
)

// CreateWorldRequest selects between a named layout and a fully
// procedural map. An empty layout means procedural.
type CreateWorldRequest struct {
	Layout string `json:"layout,omitempty"` // layout filename, e.g. "village.yaml"
}

// CollectTreasureRequest names the treasure to pick up.
type CollectTreasureRequest struct {
	TreasureID string `json:"treasure_id"`
}

type WorldHandler struct {
	registry  *game.Registry
	generator *game.Generator
	storage   storage.Storage
	hub       *events.Hub
	logger    *slog.Logger
}

func NewWorldHandler(registry *game.Registry, generator *game.Generator, storage storage.Storage, hub *events.Hub, logger *slog.Logger) *WorldHandler {
	return &WorldHandler{
		registry:  registry,
		generator: generator,
		storage:   storage,
		hub:       hub,
		logger:    logger,
	}
}

// ServeHTTP routes world operations.
// Routes:
// POST /v1/worlds                  - Create a world (procedural or from layout)
// GET /v1/worlds/{id}              - Read a world by ID
// DELETE /v1/worlds/{id}           - Delete a world by ID
// POST /v1/worlds/{id}/treasure    - Collect a treasure
func (h *WorldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/worlds"), "/")
	parts := []string{}
	if path != "" {
		parts = strings.Split(path, "/")
	}

	var worldID uuid.UUID
	if len(parts) > 0 {
		var err error
		worldID, err = uuid.Parse(parts[0])
		if err != nil {
			h.logger.Warn("Invalid world ID", "id", parts[0], "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid world ID format")
			return
		}
	}

	switch {
	case r.Method == http.MethodPost && len(parts) == 0:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && len(parts) == 1:
		h.handleRead(w, r, worldID)
	case r.Method == http.MethodDelete && len(parts) == 1:
		h.handleDelete(w, r, worldID)
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "treasure":
		h.handleCollectTreasure(w, r, worldID)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *WorldHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateWorldRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Invalid JSON in request body", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}

	var inst *game.Instance
	if req.Layout != "" {
		l, err := h.storage.GetLayout(r.Context(), req.Layout)
		if err != nil {
			h.logger.Warn("Failed to load layout", "layout", req.Layout, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Failed to load layout: "+err.Error())
			return
		}
		world := h.generator.FromLayout(l)
		inst, err = h.registry.Admit(r.Context(), world)
		if err != nil {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save world")
			return
		}
	} else {
		world := h.generator.Procedural()
		var err error
		inst, err = h.registry.Admit(r.Context(), world)
		if err != nil {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save world")
			return
		}
	}

	writeJSON(w, h.logger, http.StatusCreated, inst.World)
}

func (h *WorldHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	inst, err := h.registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world")
		return
	}
	if inst == nil {
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, inst.World)
}

func (h *WorldHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.registry.Remove(r.Context(), id); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete world")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorldHandler) handleCollectTreasure(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req CollectTreasureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.TreasureID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "treasure_id is required")
		return
	}

	inst, err := h.registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world")
		return
	}
	if inst == nil {
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}

	tr, err := inst.World.CollectTreasure(req.TreasureID)
	if err != nil {
		writeError(w, h.logger, http.StatusConflict, err.Error())
		return
	}

	if err := h.registry.Save(r.Context(), inst); err != nil {
		h.logger.Error("Failed to save world after treasure collection", "uuid", id, "error", err)
	}
	if h.hub != nil {
		h.hub.Broadcast(events.TypeWorldUpdate, map[string]interface{}{
			"world_id": id,
			"treasure": tr,
			"gold":     inst.World.Player.Gold,
		})
	}

	writeJSON(w, h.logger, http.StatusOK, tr)
}
