package contracts

import "context"

// ⭐ SSOT: repository interfaces are defined here only

// UserRepository manages players.
type UserRepository interface {
	// Create fails with ErrAlreadyExists on a duplicate username.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Top orders by rating DESC, created_at ASC, id ASC.
	Top(ctx context.Context, limit int) ([]*User, error)
	// CountAbove counts users with a strictly higher rating.
	CountAbove(ctx context.Context, rating float64) (int, error)
}

// SampleRepository manages chart samples.
type SampleRepository interface {
	Create(ctx context.Context, sample *Sample) error
	CreateBatch(ctx context.Context, samples []*Sample) error
	GetByID(ctx context.Context, id string) (*Sample, error)
	// Random picks uniformly; ErrNotAvailable when empty.
	Random(ctx context.Context) (*Sample, error)
	Count(ctx context.Context) (int, error)
}

// PredictionRepository reads quiz attempts. Writes go through Tx.
type PredictionRepository interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*Prediction, error)
	StatsByUser(ctx context.Context, userID string) (PredictionStats, error)
}

// SessionRepository reads replay sessions. Writes go through Tx.
type SessionRepository interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*TradingSession, error)
}

// Tx is the unit of work for rating changes. LockUser serialises
// concurrent writers of the same user until the transaction ends.
type Tx interface {
	LockUser(ctx context.Context, id string) (*User, error)
	GetSample(ctx context.Context, id string) (*Sample, error)
	UpdateRating(ctx context.Context, userID string, rating float64) error
	InsertPrediction(ctx context.Context, p *Prediction) error
	InsertTradingSession(ctx context.Context, s *TradingSession) error
}

// Store bundles repositories with a transaction runner.
type Store interface {
	Users() UserRepository
	Samples() SampleRepository
	Predictions() PredictionRepository
	Sessions() SessionRepository
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
