package handlers

import (
	"net/http"

	"github.com/wonny/tradingquiz/internal/auth"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	service *auth.Service
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: log}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err, "")
		return
	}

	session, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to register")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// Login exchanges credentials for a token
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err, "")
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to login")
		return
	}

	respondJSON(w, http.StatusOK, session)
}
