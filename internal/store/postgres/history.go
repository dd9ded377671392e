package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/tradingquiz/internal/contracts"
)

// PredictionRepository implements contracts.PredictionRepository
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// ListByUser returns the newest predictions first; limit <= 0 means all
func (r *PredictionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*contracts.Prediction, error) {
	query := `
		SELECT id::text, user_id::text, sample_id::text, guessed_direction, actual_outcome, delta, created_at
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0)
	`
	if limit < 0 {
		limit = 0
	}
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.Prediction
	for rows.Next() {
		var p contracts.Prediction
		var guess, actual string
		if err := rows.Scan(&p.ID, &p.UserID, &p.SampleID, &guess, &actual, &p.Delta, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.GuessedDirection = contracts.Direction(guess)
		p.ActualOutcome = contracts.Direction(actual)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// StatsByUser counts total and correct predictions
func (r *PredictionRepository) StatsByUser(ctx context.Context, userID string) (contracts.PredictionStats, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE guessed_direction = actual_outcome)
		FROM predictions
		WHERE user_id = $1
	`
	var stats contracts.PredictionStats
	uid, err := parseID("user", userID)
	if err != nil {
		return stats, err
	}
	err = r.pool.QueryRow(ctx, query, uid).Scan(&stats.Total, &stats.Correct)
	return stats, err
}

// SessionRepository implements contracts.SessionRepository
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// ListByUser returns the newest sessions first; limit <= 0 means all
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*contracts.TradingSession, error) {
	query := `
		SELECT id::text, user_id::text, start_balance::text, end_balance::text,
		       percent_gain, trade_count, delta, created_at
		FROM trading_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0)
	`
	if limit < 0 {
		limit = 0
	}
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*contracts.TradingSession
	for rows.Next() {
		var s contracts.TradingSession
		var start, end string
		if err := rows.Scan(&s.ID, &s.UserID, &start, &end, &s.PercentGain, &s.TradeCount, &s.Delta, &s.CreatedAt); err != nil {
			return nil, err
		}
		if s.StartBalance, err = decimal.NewFromString(start); err != nil {
			return nil, fmt.Errorf("parse start_balance: %w", err)
		}
		if s.EndBalance, err = decimal.NewFromString(end); err != nil {
			return nil, fmt.Errorf("parse end_balance: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
