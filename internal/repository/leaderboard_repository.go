package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const leaderboardKey = "leaderboard:score"

// LeaderboardEntry is one user's cumulative score.
type LeaderboardEntry struct {
	UserID int64
	Score  int64
}

// LeaderboardRepository keeps a global ranking of cumulative scores.
type LeaderboardRepository interface {
	AddScore(ctx context.Context, userID int64, score int) error
	Top(ctx context.Context, n int) ([]LeaderboardEntry, error)
}

type redisLeaderboardRepository struct {
	rdb *redis.Client
}

// NewLeaderboardRepository creates a new Redis-based LeaderboardRepository.
func NewLeaderboardRepository(rdb *redis.Client) LeaderboardRepository {
	return &redisLeaderboardRepository{rdb: rdb}
}

// AddScore adds score to the user's running total.
func (r *redisLeaderboardRepository) AddScore(ctx context.Context, userID int64, score int) error {
	ctx, span := tracer.Start(ctx, "LeaderboardRepository.AddScore")
	defer span.End()

	member := strconv.FormatInt(userID, 10)
	if err := r.rdb.ZIncrBy(ctx, leaderboardKey, float64(score), member).Err(); err != nil {
		return fmt.Errorf("failed to increment leaderboard score: %w", err)
	}
	return nil
}

// Top returns the n highest totals, best first.
func (r *redisLeaderboardRepository) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	ctx, span := tracer.Start(ctx, "LeaderboardRepository.Top")
	defer span.End()

	if n <= 0 {
		return nil, nil
	}
	res, err := r.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(res))
	for _, z := range res {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{UserID: id, Score: int64(z.Score)})
	}
	return entries, nil
}
