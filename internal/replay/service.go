// Package replay scores simulated trading sessions.
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/internal/rating"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// Notifier is told about committed rating changes.
type Notifier interface {
	RatingChanged(ctx context.Context, userID string)
}

// SessionInput is a finished replay as submitted by the client. The balance
// is always recomputed from Trades.
type SessionInput struct {
	Trades []ClosedTrade `json:"trades"`
	// EndBalance is the client's own figure. When present it must match
	// the settled balance to the cent.
	EndBalance *decimal.Decimal `json:"endBalance,omitempty"`
}

// Service persists scored replay sessions
type Service struct {
	store    contracts.Store
	notifier Notifier
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a replay service. notifier may be nil.
func NewService(store contracts.Store, notifier Notifier, log *logger.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: log, now: time.Now}
}

// SubmitSession settles the session's trades, converts the percent gain into
// a rating delta and stores it with the session record in one transaction.
func (s *Service) SubmitSession(ctx context.Context, userID string, in SessionInput) (*contracts.SessionResult, error) {
	settled, err := Settle(in.Trades)
	if err != nil {
		return nil, err
	}
	if in.EndBalance != nil && !in.EndBalance.Round(2).Equal(settled.EndBalance) {
		return nil, fmt.Errorf("%w: endBalance %s does not match settled balance %s",
			contracts.ErrInvalidInput, in.EndBalance.String(), settled.EndBalance.StringFixed(2))
	}
	pct, err := rating.PercentGain(settled.StartBalance, settled.EndBalance)
	if err != nil {
		return nil, err
	}
	delta := rating.ScoreTradingSession(pct)

	result := contracts.SessionResult{
		SessionID:   uuid.NewString(),
		EndBalance:  settled.EndBalance,
		PercentGain: pct,
		Delta:       delta,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx contracts.Tx) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		newRating := rating.Apply(user.Rating, delta)
		if err := tx.UpdateRating(ctx, user.ID, newRating); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		if err := tx.InsertTradingSession(ctx, &contracts.TradingSession{
			ID:           result.SessionID,
			UserID:       user.ID,
			StartBalance: settled.StartBalance,
			EndBalance:   settled.EndBalance,
			PercentGain:  pct,
			TradeCount:   len(settled.Results),
			Delta:        delta,
			CreatedAt:    s.now().UTC(),
		}); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		result.NewRating = newRating
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":      userID,
		"trades":       len(settled.Results),
		"percent_gain": pct,
		"delta":        delta,
	}).Info("Replay session scored")

	if s.notifier != nil && delta != 0 {
		s.notifier.RatingChanged(ctx, userID)
	}
	return &result, nil
}
