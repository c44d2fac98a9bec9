package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ctchen222/DrawSync/internal/api/models"

	"github.com/jmoiron/sqlx"
)

// StatsRepository persists lifetime player statistics.
type StatsRepository interface {
	RecordGame(ctx context.Context, lines []models.GameLine, at time.Time) error
	GetStats(ctx context.Context, userID int64) (*models.PlayerStats, error)
}

type sqliteStatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new SQLite-based StatsRepository.
func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &sqliteStatsRepository{db: db}
}

const upsertStats = `
INSERT INTO player_stats (user_id, games_played, games_won, total_score, best_score, last_played)
VALUES (?, 1, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	games_played = games_played + 1,
	games_won = games_won + excluded.games_won,
	total_score = total_score + excluded.total_score,
	best_score = MAX(best_score, excluded.best_score),
	last_played = excluded.last_played`

// RecordGame adds one finished game to every listed player's totals in a
// single transaction.
func (r *sqliteStatsRepository) RecordGame(ctx context.Context, lines []models.GameLine, at time.Time) error {
	ctx, span := tracer.Start(ctx, "StatsRepository.RecordGame")
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	for _, l := range lines {
		won := 0
		if l.Won {
			won = 1
		}
		if _, err := tx.ExecContext(ctx, upsertStats, l.UserID, won, l.Score, l.Score, at.UTC()); err != nil {
			return fmt.Errorf("failed to record stats for user %d: %w", l.UserID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats: %w", err)
	}
	return nil
}

// GetStats returns a user's totals, zeroed if they never finished a game,
// or nil if the user does not exist.
func (r *sqliteStatsRepository) GetStats(ctx context.Context, userID int64) (*models.PlayerStats, error) {
	ctx, span := tracer.Start(ctx, "StatsRepository.GetStats")
	defer span.End()

	var row struct {
		UserID      int64        `db:"user_id"`
		Username    string       `db:"username"`
		GamesPlayed int          `db:"games_played"`
		GamesWon    int          `db:"games_won"`
		TotalScore  int          `db:"total_score"`
		BestScore   int          `db:"best_score"`
		LastPlayed  sql.NullTime `db:"last_played"`
	}
	query := `
SELECT u.id AS user_id, u.username,
	COALESCE(s.games_played, 0) AS games_played,
	COALESCE(s.games_won, 0) AS games_won,
	COALESCE(s.total_score, 0) AS total_score,
	COALESCE(s.best_score, 0) AS best_score,
	s.last_played
FROM users u LEFT JOIN player_stats s ON s.user_id = u.id
WHERE u.id = ?`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := &models.PlayerStats{
		UserID:      row.UserID,
		Username:    row.Username,
		GamesPlayed: row.GamesPlayed,
		GamesWon:    row.GamesWon,
		TotalScore:  row.TotalScore,
		BestScore:   row.BestScore,
	}
	if row.LastPlayed.Valid {
		stats.LastPlayed = row.LastPlayed.Time
	}
	return stats, nil
}
