package contracts

import "time"

// InitialRating is the rating every new user starts with.
const InitialRating = 1000.0

// User is a registered player.
// Rating is unbounded and only changes through a scored prediction or session.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Rating       float64   `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the user shape returned to clients.
type PublicUser struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	EloScore float64 `json:"eloScore"`
}

// Public strips the credential hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		EloScore: u.Rating,
	}
}

// Profile aggregates a user's quiz statistics.
type Profile struct {
	ID                 string  `json:"id"`
	Username           string  `json:"username"`
	EloScore           float64 `json:"eloScore"`
	TotalQuizzes       int     `json:"totalQuizzes"`
	CorrectPredictions int     `json:"correctPredictions"`
	WinRate            int     `json:"winRate"` // percent, rounded
	Rank               int     `json:"rank"`
}
