package realtime

import "time"

// EventType names a broadcast message.
type EventType string

const (
	// EventLeaderboard carries a fresh leaderboard snapshot.
	EventLeaderboard EventType = "leaderboard"
)

// Event is one broadcast message.
// ⭐ SSOT: realtime wire shape
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
