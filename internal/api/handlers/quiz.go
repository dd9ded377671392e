package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/internal/market"
	"github.com/wonny/tradingquiz/internal/quiz"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// QuizHandler serves samples, predictions and price history
// ⭐ SSOT: quiz HTTP endpoints live here only
type QuizHandler struct {
	quiz    *quiz.Service
	history *market.HistoryService
	logger  *logger.Logger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *quiz.Service, history *market.HistoryService, log *logger.Logger) *QuizHandler {
	return &QuizHandler{quiz: quizService, history: history, logger: log}
}

// Random returns one chart without its outcome
// GET /api/quiz/random
func (h *QuizHandler) Random(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.RandomSample(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch chart")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type submitRequest struct {
	ChartID    string `json:"chartId"`
	Prediction string `json:"prediction"`
}

// Submit scores a prediction for the authenticated user
// POST /api/quiz/submit
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err, "")
		return
	}

	result, err := h.quiz.SubmitPrediction(r.Context(), UserID(r.Context()), req.ChartID, req.Prediction)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to submit answer")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// BTCHistory returns daily BTC closes
// GET /api/quiz/btc-history?days=180
func (h *QuizHandler) BTCHistory(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		respondServiceError(w, h.logger, err, "")
		return
	}

	hist, err := h.history.History(r.Context(), days)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch price history")
		return
	}
	respondJSON(w, http.StatusOK, hist)
}

// Round returns a series with its tail hidden
// GET /api/quiz/round?days=180&reveal=false
func (h *QuizHandler) Round(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		respondServiceError(w, h.logger, err, "")
		return
	}
	reveal, _ := strconv.ParseBool(r.URL.Query().Get("reveal"))

	round, err := h.history.Round(r.Context(), days, reveal)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build round")
		return
	}
	respondJSON(w, http.StatusOK, round)
}

// queryInt parses an optional integer query parameter; missing means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name}
	}
	return v, nil
}

type paramError struct{ name string }

func (e *paramError) Error() string { return e.name + " must be an integer" }

func (e *paramError) Unwrap() error { return contracts.ErrInvalidInput }
