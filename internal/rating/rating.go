// Package rating holds the pure scoring rules that turn quiz answers and
// replay sessions into rating deltas.
package rating

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/tradingquiz/internal/contracts"
)

const (
	// K is the sensitivity of a single prediction.
	K = 32.0
	// Expected is the expected score of a binary 50/50 guess.
	Expected = 0.5

	// SessionMultiplier converts a percent gain into rating points.
	SessionMultiplier = 10.0
	// SessionCap bounds a replay session delta in both directions.
	SessionCap = 100
)

// ScoreSinglePrediction returns +16 for a correct guess and -16 otherwise.
func ScoreSinglePrediction(correct bool) int {
	actual := 0.0
	if correct {
		actual = 1.0
	}
	return int(math.Round(K * (actual - Expected)))
}

// Apply adds delta to the current rating. The rating has no floor or ceiling.
func Apply(current float64, delta int) float64 {
	return current + float64(delta)
}

// ScoreTradingSession returns clamp(round(percentGain*10), -100, 100).
// NaN scores 0.
func ScoreTradingSession(percentGain float64) int {
	if math.IsNaN(percentGain) {
		return 0
	}
	raw := math.Round(percentGain * SessionMultiplier)
	if raw > SessionCap {
		return SessionCap
	}
	if raw < -SessionCap {
		return -SessionCap
	}
	return int(raw)
}

// PercentGain returns (end-start)/start*100.
func PercentGain(start, end decimal.Decimal) (float64, error) {
	if !start.IsPositive() {
		return 0, fmt.Errorf("%w: start balance must be positive", contracts.ErrInvalidInput)
	}
	pct := end.Sub(start).Div(start).Mul(decimal.NewFromInt(100))
	return pct.InexactFloat64(), nil
}
