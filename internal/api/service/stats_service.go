package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ctchen222/DrawSync/internal/api/models"
	apirepo "ctchen222/DrawSync/internal/api/repository"
	"ctchen222/DrawSync/internal/events"
	"ctchen222/DrawSync/internal/repository"
	"ctchen222/DrawSync/internal/room"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("api.service")

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

var ErrUserNotFound = errors.New("user not found")

// EventPublisher publishes cluster events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// StatsService reads player statistics and records finished games.
type StatsService interface {
	GetStats(ctx context.Context, userID int64) (*models.PlayerStats, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	room.ScoreSink
}

type statsService struct {
	stats       apirepo.StatsRepository
	users       apirepo.UserRepository
	leaderboard repository.LeaderboardRepository
	publisher   EventPublisher
}

// NewStatsService creates a StatsService. publisher may be nil.
func NewStatsService(stats apirepo.StatsRepository, users apirepo.UserRepository, leaderboard repository.LeaderboardRepository, publisher EventPublisher) StatsService {
	return &statsService{stats: stats, users: users, leaderboard: leaderboard, publisher: publisher}
}

func (s *statsService) GetStats(ctx context.Context, userID int64) (*models.PlayerStats, error) {
	stats, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, ErrUserNotFound
	}
	return stats, nil
}

// Leaderboard returns the top cumulative scores with usernames resolved.
// limit is clamped to [1, MaxLeaderboardSize].
func (s *statsService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	limit = min(limit, MaxLeaderboardSize)

	top, err := s.leaderboard.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]models.LeaderboardEntry, 0, len(top))
	for _, e := range top {
		user, err := s.users.GetUserByID(ctx, e.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:     len(entries) + 1,
			UserID:   e.UserID,
			Username: user.Username,
			Score:    e.Score,
		})
	}
	return entries, nil
}

// RecordGame persists a finished game: sqlite totals first, then the redis
// leaderboard and a game_completed event. A failed leaderboard update or
// publish is logged and does not fail the call.
func (s *statsService) RecordGame(ctx context.Context, result room.GameResult) error {
	ctx, span := tracer.Start(ctx, "StatsService.RecordGame")
	defer span.End()
	span.SetAttributes(attribute.String("room.id", result.RoomID), attribute.Int("game.players", len(result.Scores)))

	lines := make([]models.GameLine, 0, len(result.Scores))
	scores := make(map[int64]int, len(result.Scores))
	for _, ps := range result.Scores {
		lines = append(lines, models.GameLine{UserID: ps.PlayerID, Score: ps.Score, Won: ps.Winner})
		scores[ps.PlayerID] = ps.Score
	}
	if err := s.stats.RecordGame(ctx, lines, result.EndedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record stats")
		return fmt.Errorf("failed to record game for room %s: %w", result.RoomID, err)
	}

	for _, ps := range result.Scores {
		if ps.Score <= 0 {
			continue
		}
		if err := s.leaderboard.AddScore(ctx, ps.PlayerID, ps.Score); err != nil {
			slog.WarnContext(ctx, "Failed to update leaderboard", "player.id", ps.PlayerID, "error", err)
		}
	}

	if s.publisher != nil {
		payload := events.GameCompletedPayload{RoomID: result.RoomID, Scores: scores}
		if err := s.publisher.Publish(ctx, events.TypeGameCompleted, payload); err != nil {
			slog.WarnContext(ctx, "Failed to publish game_completed", "room.id", result.RoomID, "error", err)
		}
	}
	return nil
}
