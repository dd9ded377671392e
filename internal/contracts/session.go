package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingSession is the immutable audit record of a replay session.
type TradingSession struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	StartBalance decimal.Decimal `json:"start_balance"`
	EndBalance   decimal.Decimal `json:"end_balance"`
	PercentGain  float64         `json:"percent_gain"`
	TradeCount   int             `json:"trade_count"`
	Delta        int             `json:"delta"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SessionResult is returned after a replay session is scored.
type SessionResult struct {
	SessionID   string          `json:"sessionId"`
	EndBalance  decimal.Decimal `json:"endBalance"`
	PercentGain float64         `json:"percentGain"`
	Delta       int             `json:"eloChange"`
	NewRating   float64         `json:"newEloScore"`
}
