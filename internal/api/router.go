package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/tradingquiz/internal/api/handlers"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// Pinger reports backing store health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Routes bundles everything NewRouter mounts
type Routes struct {
	Auth        *handlers.AuthHandler
	Quiz        *handlers.QuizHandler
	Leaderboard *handlers.LeaderboardHandler
	Profile     *handlers.ProfileHandler
	Replay      *handlers.ReplayHandler
	Stream      http.Handler
	Tokens      TokenParser
	Health      Pinger // optional
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing is configured in this function only
func NewRouter(routes Routes, allowedOrigin string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(routes.Health)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Public endpoints
	api.HandleFunc("/auth/register", routes.Auth.Register).Methods("POST")
	api.HandleFunc("/auth/login", routes.Auth.Login).Methods("POST")
	api.HandleFunc("/quiz/btc-history", routes.Quiz.BTCHistory).Methods("GET")
	api.HandleFunc("/quiz/round", routes.Quiz.Round).Methods("GET")
	api.HandleFunc("/leaderboard", routes.Leaderboard.Top).Methods("GET")
	if routes.Stream != nil {
		api.Handle("/leaderboard/stream", routes.Stream).Methods("GET")
	}

	// Authenticated endpoints
	private := api.NewRoute().Subrouter()
	private.Use(authMiddleware(routes.Tokens))
	private.HandleFunc("/quiz/random", routes.Quiz.Random).Methods("GET")
	private.HandleFunc("/quiz/submit", routes.Quiz.Submit).Methods("POST")
	private.HandleFunc("/profile/me", routes.Profile.Me).Methods("GET")
	private.HandleFunc("/replay/sessions", routes.Replay.Submit).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondError(w, http.StatusNotFound, "Route not found")
	})

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return corsMiddleware(allowedOrigin, r)
}

// healthCheckHandler returns server health status
func healthCheckHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"service": "trading-quiz-api",
		})
	}
}
