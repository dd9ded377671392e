package contracts

// LeaderboardEntry is one ranked row. Rank is 1-based.
type LeaderboardEntry struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Rating   float64 `json:"eloScore"`
	Rank     int     `json:"rank"`
}
