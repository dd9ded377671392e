package handlers

import (
	"net/http"

	"github.com/wonny/tradingquiz/internal/quiz"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// ProfileHandler serves the authenticated user's statistics
type ProfileHandler struct {
	quiz   *quiz.Service
	logger *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(quizService *quiz.Service, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{quiz: quizService, logger: log}
}

// Me returns the caller's profile
// GET /api/profile/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.quiz.Profile(r.Context(), UserID(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
