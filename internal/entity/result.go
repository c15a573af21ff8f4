package entity

import "time"

// MatchResult - the archived record of one finished game. Written once when a
// room's game reaches a terminal state; rooms themselves are never persisted.
type MatchResult struct {
	RoomToken  string    `json:"room_token"`
	Winner     string    `json:"winner"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}
