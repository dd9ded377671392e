package market

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/wonny/tradingquiz/internal/contracts"
)

// PickCutoff returns a uniform index in [floor(0.6n), floor(0.8n)]. Points
// before the cutoff are shown; the rest are hidden until reveal.
// intn must return a value in [0, k); nil uses math/rand/v2.
func PickCutoff(n int, intn func(k int) int) (int, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: need at least 2 points, got %d", contracts.ErrInvalidInput, n)
	}
	if intn == nil {
		intn = rand.IntN
	}
	lo := n * 6 / 10
	hi := n * 8 / 10
	return lo + intn(hi-lo+1), nil
}

// OutcomeAt compares the last visible close with the final close.
func OutcomeAt(points []Point, cutoff int) contracts.Direction {
	if points[cutoff-1].Value < points[len(points)-1].Value {
		return contracts.DirectionUp
	}
	return contracts.DirectionDown
}

// Round builds a quiz round over days of history.
func (s *HistoryService) Round(ctx context.Context, days int, reveal bool) (*Round, error) {
	h, err := s.History(ctx, days)
	if err != nil {
		return nil, err
	}
	cutoff, err := PickCutoff(len(h.Data), nil)
	if err != nil {
		return nil, err
	}

	data := h.Data
	if !reveal {
		data = data[:cutoff]
	}
	return &Round{
		Symbol:   h.Symbol,
		Source:   h.Source,
		Data:     data,
		Cutoff:   cutoff,
		Total:    len(h.Data),
		Revealed: reveal,
	}, nil
}
