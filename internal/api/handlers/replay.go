package handlers

import (
	"net/http"

	"github.com/wonny/tradingquiz/internal/replay"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// ReplayHandler records finished replay sessions
type ReplayHandler struct {
	service *replay.Service
	logger  *logger.Logger
}

// NewReplayHandler creates a new replay handler
func NewReplayHandler(service *replay.Service, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{service: service, logger: log}
}

// Submit scores a session for the authenticated user
// POST /api/replay/sessions
func (h *ReplayHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in replay.SessionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, h.logger, err, "")
		return
	}

	result, err := h.service.SubmitSession(r.Context(), UserID(r.Context()), in)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to record session")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
