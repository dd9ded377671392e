package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/logger"
)

const maxBodyBytes = 1 << 20

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID stores the authenticated user id on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id, or "" outside an authenticated route.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// RespondError writes the JSON error envelope. Exported for middleware.
func RespondError(w http.ResponseWriter, status int, message string) {
	respondError(w, status, message)
}

// StatusFor maps the domain error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, contracts.ErrNotFound), errors.Is(err, contracts.ErrNotAvailable):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrAlreadyExists), errors.Is(err, contracts.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, contracts.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes a mapped error. 5xx responses hide the cause
// behind fallback and are logged.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error(fallback)
		respondError(w, status, fallback)
		return
	}
	respondError(w, status, publicMessage(err))
}

// publicMessage returns the wrapped detail of a domain error, or the
// sentinel text when there is none.
func publicMessage(err error) string {
	for _, sentinel := range []error{
		contracts.ErrInvalidInput, contracts.ErrUnauthorized, contracts.ErrRateLimited,
	} {
		if errors.Is(err, sentinel) {
			return err.Error()
		}
	}
	switch {
	case errors.Is(err, contracts.ErrNotAvailable):
		return "No charts available"
	case errors.Is(err, contracts.ErrNotFound):
		return "Not found"
	case errors.Is(err, contracts.ErrAlreadyExists):
		return "Already exists"
	case errors.Is(err, contracts.ErrConflict):
		return "Concurrent update, please retry"
	}
	return err.Error()
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", contracts.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body", contracts.ErrInvalidInput)
	}
	return nil
}
