package handlers

import (
	"net/http"

	"github.com/wonny/tradingquiz/internal/leaderboard"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// LeaderboardHandler serves the ranking
type LeaderboardHandler struct {
	service *leaderboard.Service
	logger  *logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *leaderboard.Service, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, logger: log}
}

// Top returns the top players
// GET /api/leaderboard?limit=100
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondServiceError(w, h.logger, err, "")
		return
	}

	entries, err := h.service.Top(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch leaderboard")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
