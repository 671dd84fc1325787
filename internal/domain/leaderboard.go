package domain

import "time"

// ScoreSubmission represents a single score reported for a player
type ScoreSubmission struct {
	PlayerID int64 `json:"player_id"`
	Score    int64 `json:"score"`
}

// BatchScoreSubmission represents multiple score submissions
type BatchScoreSubmission struct {
	Scores []ScoreSubmission `json:"scores"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
// It is derived from the score ledger on every read.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

// ScoreEvent represents an accepted score submission
type ScoreEvent struct {
	PlayerID  int64     `json:"player_id"`
	Username  string    `json:"username"`
	Score     int64     `json:"score"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Sources of score submissions
const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
)
