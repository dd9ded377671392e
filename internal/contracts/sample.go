package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the price move of a sample after its cutoff.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up" or "down" (case-insensitive, trimmed).
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	default:
		return "", fmt.Errorf("%w: direction must be up or down, got %q", ErrInvalidInput, s)
	}
}

// Valid reports whether d is up or down.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Sample is a chart snapshot with a fixed ground-truth outcome.
type Sample struct {
	ID        string    `json:"id"`
	AssetName string    `json:"asset_name"`
	Timeframe string    `json:"timeframe"`
	ImageRef  string    `json:"image_ref"`
	Outcome   Direction `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// SampleView is what a player sees before guessing. It never carries the outcome.
type SampleView struct {
	ID            string `json:"id"`
	ChartImageURL string `json:"chartImageUrl"`
	AssetName     string `json:"assetName"`
	Timeframe     string `json:"timeframe"`
}

// View hides the outcome.
func (s *Sample) View() SampleView {
	return SampleView{
		ID:            s.ID,
		ChartImageURL: s.ImageRef,
		AssetName:     s.AssetName,
		Timeframe:     s.Timeframe,
	}
}
