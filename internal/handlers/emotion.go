package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"emberfall/pkg/emotion"
)

// EmotionResponse reports pipeline state and the current estimate.
type EmotionResponse struct {
	State       emotion.State   `json:"state"`
	Current     *emotion.Sample `json:"current,omitempty"`
	Description string          `json:"description,omitempty"`
	Reason      string          `json:"reason,omitempty"` // set when enabling failed
}

// EmotionHandler exposes the pipeline lifecycle. When the classifier
// failed to load at startup, pipeline is nil and initErr holds the
// failure; enable requests then report the classified reason instead
// of touching the camera.
type EmotionHandler struct {
	pipeline *emotion.Pipeline
	initErr  error
	logger   *slog.Logger
}

func NewEmotionHandler(pipeline *emotion.Pipeline, initErr error, logger *slog.Logger) *EmotionHandler {
	return &EmotionHandler{
		pipeline: pipeline,
		initErr:  initErr,
		logger:   logger,
	}
}

// ServeHTTP routes emotion pipeline operations.
// Routes:
// GET /v1/emotion           - Current state and estimate
// POST /v1/emotion/enable   - Start capture and classification
// POST /v1/emotion/disable  - Stop and clear the estimate
func (h *EmotionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/emotion"), "/")

	switch {
	case r.Method == http.MethodGet && action == "":
		h.respondStatus(w)

	case r.Method == http.MethodPost && action == "enable":
		if h.pipeline == nil {
			reason := emotion.ClassifyAcquireError(h.initErr)
			h.logger.Warn("Emotion pipeline unavailable", "reason", reason, "error", h.initErr)
			writeJSON(w, h.logger, http.StatusServiceUnavailable, EmotionResponse{
				State:  emotion.StateDisabled,
				Reason: reason,
			})
			return
		}
		if err := h.pipeline.Enable(r.Context()); err != nil {
			reason := emotion.ClassifyAcquireError(err)
			h.logger.Warn("Emotion pipeline enable failed", "reason", reason, "error", err)
			writeJSON(w, h.logger, http.StatusServiceUnavailable, EmotionResponse{
				State:  h.pipeline.State(),
				Reason: reason,
			})
			return
		}
		h.respondStatus(w)

	case r.Method == http.MethodPost && action == "disable":
		if h.pipeline != nil {
			h.pipeline.Disable()
		}
		h.respondStatus(w)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *EmotionHandler) respondStatus(w http.ResponseWriter) {
	if h.pipeline == nil {
		writeJSON(w, h.logger, http.StatusOK, EmotionResponse{State: emotion.StateDisabled})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, EmotionResponse{
		State:       h.pipeline.State(),
		Current:     h.pipeline.Current(),
		Description: h.pipeline.Describe(),
	})
}
