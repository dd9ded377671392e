package contracts

import "errors"

// Error taxonomy shared by stores, services and the HTTP layer.
// Wrap with fmt.Errorf("...: %w", err) and match with errors.Is.
// ⭐ SSOT: domain sentinel errors are declared here only
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotAvailable  = errors.New("not available")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
)
