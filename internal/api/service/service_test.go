package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ctchen222/DrawSync/internal/api/models"
	apirepo "ctchen222/DrawSync/internal/api/repository"
	"ctchen222/DrawSync/internal/events"
	"ctchen222/DrawSync/internal/repository"
	"ctchen222/DrawSync/internal/room"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

type stubIssuer struct{}

func (stubIssuer) Issue(userID int64, username string) (string, error) {
	return "token-" + username, nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	users := apirepo.NewMockUserRepository(ctrl)
	svc := NewUserService(users, stubIssuer{})

	t.Run("creates user", func(t *testing.T) {
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(nil, nil)
		users.EXPECT().CreateUser(gomock.Any(), gomock.Any(), "secret1").
			DoAndReturn(func(_ context.Context, u *models.User, _ string) error {
				u.ID = 1
				return nil
			})

		user, err := svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("username taken", func(t *testing.T) {
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(&models.User{ID: 1, Username: "alice"}, nil)

		_, err := svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "secret1"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	users := apirepo.NewMockUserRepository(ctrl)
	svc := NewUserService(users, stubIssuer{})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := &models.User{ID: 7, Username: "alice", PasswordHash: string(hash)}

	t.Run("ok", func(t *testing.T) {
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(alice, nil)
		resp, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, &models.LoginResponse{Token: "token-alice", UserID: 7, Username: "alice"}, resp)
	})

	t.Run("wrong password", func(t *testing.T) {
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(alice, nil)
		_, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		users.EXPECT().GetUserByUsername(gomock.Any(), "ghost").Return(nil, nil)
		_, err := svc.Login(ctx, &models.LoginRequest{Username: "ghost", Password: "secret1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

type fakeStats struct {
	lines []models.GameLine
	at    time.Time
	err   error
}

func (f *fakeStats) RecordGame(_ context.Context, lines []models.GameLine, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.lines, f.at = lines, at
	return nil
}

func (f *fakeStats) GetStats(_ context.Context, userID int64) (*models.PlayerStats, error) {
	if userID != 7 {
		return nil, nil
	}
	return &models.PlayerStats{UserID: 7, Username: "alice", GamesPlayed: 3}, nil
}

type fakeLeaderboard struct {
	added map[int64]int
	top   []repository.LeaderboardEntry
}

func (f *fakeLeaderboard) AddScore(_ context.Context, userID int64, score int) error {
	if f.added == nil {
		f.added = map[int64]int{}
	}
	f.added[userID] += score
	return nil
}

func (f *fakeLeaderboard) Top(_ context.Context, n int) ([]repository.LeaderboardEntry, error) {
	return f.top[:min(n, len(f.top))], nil
}

type fakePublisher struct {
	eventType string
	payload   any
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, payload any) error {
	f.eventType, f.payload = eventType, payload
	return errors.New("redis unavailable")
}

func TestRecordGame(t *testing.T) {
	stats := &fakeStats{}
	board := &fakeLeaderboard{}
	pub := &fakePublisher{}
	svc := NewStatsService(stats, nil, board, pub)

	ended := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	result := room.GameResult{
		RoomID: "r1",
		Scores: []room.PlayerScore{
			{PlayerID: 1, Username: "alice", Score: 150, Winner: true},
			{PlayerID: 2, Username: "bob", Score: 0},
		},
		EndedAt: ended,
	}

	require.NoError(t, svc.RecordGame(context.Background(), result))
	assert.Equal(t, []models.GameLine{{UserID: 1, Score: 150, Won: true}, {UserID: 2, Score: 0}}, stats.lines)
	assert.Equal(t, ended, stats.at)
	assert.Equal(t, map[int64]int{1: 150}, board.added)
	assert.Equal(t, events.TypeGameCompleted, pub.eventType)
	assert.Equal(t, events.GameCompletedPayload{RoomID: "r1", Scores: map[int64]int{1: 150, 2: 0}}, pub.payload)
}

func TestRecordGameStoreFailure(t *testing.T) {
	board := &fakeLeaderboard{}
	svc := NewStatsService(&fakeStats{err: errors.New("disk full")}, nil, board, nil)

	err := svc.RecordGame(context.Background(), room.GameResult{
		RoomID: "r1",
		Scores: []room.PlayerScore{{PlayerID: 1, Score: 100, Winner: true}},
	})
	assert.Error(t, err)
	assert.Empty(t, board.added)
}

func TestLeaderboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := apirepo.NewMockUserRepository(ctrl)
	board := &fakeLeaderboard{top: []repository.LeaderboardEntry{
		{UserID: 2, Score: 300},
		{UserID: 9, Score: 200},
		{UserID: 1, Score: 100},
	}}
	svc := NewStatsService(&fakeStats{}, users, board, nil)

	users.EXPECT().GetUserByID(gomock.Any(), int64(2)).Return(&models.User{ID: 2, Username: "bob"}, nil)
	users.EXPECT().GetUserByID(gomock.Any(), int64(9)).Return(nil, nil)
	users.EXPECT().GetUserByID(gomock.Any(), int64(1)).Return(&models.User{ID: 1, Username: "alice"}, nil)

	entries, err := svc.Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{
		{Rank: 1, UserID: 2, Username: "bob", Score: 300},
		{Rank: 2, UserID: 1, Username: "alice", Score: 100},
	}, entries)
}

func TestGetStats(t *testing.T) {
	svc := NewStatsService(&fakeStats{}, nil, &fakeLeaderboard{}, nil)

	stats, err := svc.GetStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.GamesPlayed)

	_, err = svc.GetStats(context.Background(), 8)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
