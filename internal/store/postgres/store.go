// Package postgres implements contracts.Store on a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/database"
)

// Store implements contracts.Store
// ⭐ SSOT: SQL for users, samples, predictions and sessions lives in this package
type Store struct {
	pool        *pgxpool.Pool
	users       *UserRepository
	samples     *SampleRepository
	predictions *PredictionRepository
	sessions    *SessionRepository
}

// New creates a store backed by pool. The caller owns the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		users:       NewUserRepository(pool),
		samples:     NewSampleRepository(pool),
		predictions: NewPredictionRepository(pool),
		sessions:    NewSessionRepository(pool),
	}
}

func (s *Store) Users() contracts.UserRepository             { return s.users }
func (s *Store) Samples() contracts.SampleRepository         { return s.samples }
func (s *Store) Predictions() contracts.PredictionRepository { return s.predictions }
func (s *Store) Sessions() contracts.SessionRepository       { return s.sessions }

// Close is a no-op; pkg/database owns the pool lifecycle.
func (s *Store) Close() error { return nil }

// WithinTx runs fn in a read-committed transaction. Rows locked through
// Tx.LockUser stay locked until commit or rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx contracts.Tx) error) error {
	err := database.WithTx(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		func(ctx context.Context, tx pgx.Tx) error {
			return fn(ctx, &txStore{tx: tx})
		})
	return mapError(err)
}

// mapError converts driver errors into the domain taxonomy.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case database.IsSerializationFailure(err):
		return fmt.Errorf("%w: %v", contracts.ErrConflict, err)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", contracts.ErrAlreadyExists, err)
	default:
		return err
	}
}

// parseID maps malformed ids to ErrNotFound.
func parseID(what, id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %s: %w", what, id, contracts.ErrNotFound)
	}
	return u, nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, contracts.ErrNotFound)
	}
	return err
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) LockUser(ctx context.Context, id string) (*contracts.User, error) {
	query := `
		SELECT id::text, username, password_hash, rating, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	uid, err := parseID("user", id)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(t.tx.QueryRow(ctx, query, uid))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (t *txStore) GetSample(ctx context.Context, id string) (*contracts.Sample, error) {
	return getSample(ctx, t.tx, id)
}

func (t *txStore) UpdateRating(ctx context.Context, userID string, rating float64) error {
	uid, err := parseID("user", userID)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `UPDATE users SET rating = $2 WHERE id = $1`, uid, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, contracts.ErrNotFound)
	}
	return nil
}

func (t *txStore) InsertPrediction(ctx context.Context, p *contracts.Prediction) error {
	query := `
		INSERT INTO predictions (id, user_id, sample_id, guessed_direction, actual_outcome, delta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := t.tx.Exec(ctx, query,
		p.ID, p.UserID, p.SampleID, string(p.GuessedDirection), string(p.ActualOutcome), p.Delta, p.CreatedAt,
	)
	return err
}

func (t *txStore) InsertTradingSession(ctx context.Context, s *contracts.TradingSession) error {
	query := `
		INSERT INTO trading_sessions (id, user_id, start_balance, end_balance, percent_gain, trade_count, delta, created_at)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, $7, $8)
	`
	_, err := t.tx.Exec(ctx, query,
		s.ID, s.UserID, s.StartBalance.String(), s.EndBalance.String(), s.PercentGain, s.TradeCount, s.Delta, s.CreatedAt,
	)
	return err
}

var _ contracts.Store = (*Store)(nil)
