package replay

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/tradingquiz/internal/contracts"
)

// DefaultStartingBalance is the simulated cash a replay begins with.
var DefaultStartingBalance = decimal.NewFromInt(100000)

// Side is the direction of a position.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Position is an open replay position.
type Position struct {
	Side       Side            `json:"type"`
	EntryPrice decimal.Decimal `json:"entryPrice"`
	EntryTime  int64           `json:"entryTime"`
	Size       decimal.Decimal `json:"size"`
}

// TradeResult describes a closed position.
type TradeResult struct {
	EntryPrice    decimal.Decimal `json:"entryPrice"`
	ExitPrice     decimal.Decimal `json:"exitPrice"`
	Profit        decimal.Decimal `json:"profit"`
	PercentChange float64         `json:"percentChange"`
	TimeInTrade   int64           `json:"timeInTrade"`
}

// CloseTrade settles pos at exitPrice. Profit is the signed price move times
// size; PercentChange is that move relative to the entry price.
func CloseTrade(pos Position, exitPrice decimal.Decimal, exitTime int64) (TradeResult, error) {
	if !pos.EntryPrice.IsPositive() || !exitPrice.IsPositive() {
		return TradeResult{}, fmt.Errorf("%w: prices must be positive", contracts.ErrInvalidInput)
	}
	if !pos.Size.IsPositive() {
		return TradeResult{}, fmt.Errorf("%w: size must be positive", contracts.ErrInvalidInput)
	}

	var diff decimal.Decimal
	switch pos.Side {
	case Long:
		diff = exitPrice.Sub(pos.EntryPrice)
	case Short:
		diff = pos.EntryPrice.Sub(exitPrice)
	default:
		return TradeResult{}, fmt.Errorf("%w: position type must be long or short", contracts.ErrInvalidInput)
	}

	return TradeResult{
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     exitPrice,
		Profit:        diff.Mul(pos.Size),
		PercentChange: diff.Div(pos.EntryPrice).Mul(decimal.NewFromInt(100)).InexactFloat64(),
		TimeInTrade:   exitTime - pos.EntryTime,
	}, nil
}

// MaxTrades bounds the trades accepted in one session.
const MaxTrades = 1000

// MaxBalance bounds a settled balance; it keeps sessions within the
// NUMERIC(20, 2) columns they are stored in.
var MaxBalance = decimal.New(1, 12)

// ClosedTrade is a position together with where and when it was closed.
type ClosedTrade struct {
	Position
	ExitPrice decimal.Decimal `json:"exitPrice"`
	ExitTime  int64           `json:"exitTime"`
}

// Settlement is the server-side outcome of a session's trades.
type Settlement struct {
	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal
	Results      []TradeResult
}

// Settle replays trades in order starting from DefaultStartingBalance. Only
// one position is open at a time and a position may not cost more than the
// cash available when it opens. A balance driven below zero is liquidated
// to zero. The end balance is rounded to cents.
func Settle(trades []ClosedTrade) (Settlement, error) {
	if len(trades) > MaxTrades {
		return Settlement{}, fmt.Errorf("%w: at most %d trades per session", contracts.ErrInvalidInput, MaxTrades)
	}

	balance := DefaultStartingBalance
	results := make([]TradeResult, 0, len(trades))
	var lastExit int64

	for i, tr := range trades {
		if tr.ExitTime < tr.EntryTime {
			return Settlement{}, fmt.Errorf("%w: trade %d exits before it opens", contracts.ErrInvalidInput, i)
		}
		if i > 0 && tr.EntryTime < lastExit {
			return Settlement{}, fmt.Errorf("%w: trade %d opens before trade %d closes", contracts.ErrInvalidInput, i, i-1)
		}

		res, err := CloseTrade(tr.Position, tr.ExitPrice, tr.ExitTime)
		if err != nil {
			return Settlement{}, fmt.Errorf("trade %d: %w", i, err)
		}
		if tr.EntryPrice.Mul(tr.Size).GreaterThan(balance) {
			return Settlement{}, fmt.Errorf("%w: trade %d costs more than the available balance %s",
				contracts.ErrInvalidInput, i, balance.StringFixed(2))
		}

		balance = balance.Add(res.Profit)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		if balance.GreaterThan(MaxBalance) {
			return Settlement{}, fmt.Errorf("%w: trade %d pushes the balance past %s",
				contracts.ErrInvalidInput, i, MaxBalance.String())
		}

		lastExit = tr.ExitTime
		results = append(results, res)
	}

	return Settlement{
		StartBalance: DefaultStartingBalance,
		EndBalance:   balance.Round(2),
		Results:      results,
	}, nil
}
