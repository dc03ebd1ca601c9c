package handlers

import (
	"log/slog"
	"net/http"

	"emberfall/internal/storage"
)

// LayoutsHandler lists the layout files available for world creation.
type LayoutsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewLayoutsHandler(storage storage.Storage, logger *slog.Logger) *LayoutsHandler {
	return &LayoutsHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *LayoutsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	layouts, err := h.storage.ListLayouts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list layouts", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list layouts")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, layouts)
}
