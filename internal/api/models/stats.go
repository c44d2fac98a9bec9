package models

import "time"

// PlayerStats are a user's lifetime totals.
type PlayerStats struct {
	UserID      int64     `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	GamesPlayed int       `db:"games_played" json:"games_played"`
	GamesWon    int       `db:"games_won" json:"games_won"`
	TotalScore  int       `db:"total_score" json:"total_score"`
	BestScore   int       `db:"best_score" json:"best_score"`
	LastPlayed  time.Time `db:"last_played" json:"last_played"`
}

// GameLine is one player's result in a finished game.
type GameLine struct {
	UserID int64
	Score  int
	Won    bool
}

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
}
