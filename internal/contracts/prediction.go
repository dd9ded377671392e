package contracts

import "time"

// Prediction is the immutable audit record of one quiz attempt.
type Prediction struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	SampleID         string    `json:"sample_id"`
	GuessedDirection Direction `json:"guessed_direction"`
	ActualOutcome    Direction `json:"actual_outcome"`
	Delta            int       `json:"delta"`
	CreatedAt        time.Time `json:"created_at"`
}

// Correct reports whether the guess matched the outcome.
func (p *Prediction) Correct() bool {
	return p.GuessedDirection == p.ActualOutcome
}

// PredictionStats summarises a user's attempts.
type PredictionStats struct {
	Total   int
	Correct int
}

// WinRate returns round(correct/total*100), or 0 without attempts.
func (s PredictionStats) WinRate() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Correct*200 + s.Total) / (s.Total * 2)
}

// SubmitResult is returned after a prediction is scored.
type SubmitResult struct {
	Correct   bool    `json:"correct"`
	Delta     int     `json:"eloChange"`
	NewRating float64 `json:"newEloScore"`
}
