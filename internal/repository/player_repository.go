package repository

import (
	"context"
	"fmt"

	"ctchen222/DrawSync/internal/player"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository")

const (
	fieldServerID         = "server_id"
	fieldRoomID           = "room_id"
	fieldConnectionStatus = "connection_status"
)

// Presence is what the cluster knows about a user's live session.
type Presence struct {
	ServerID         string
	RoomID           string
	ConnectionStatus player.PlayerStatus
}

// PlayerRepository stores per-user presence in a redis hash.
type PlayerRepository interface {
	SetOnline(ctx context.Context, id int64, serverID string) error
	SetRoom(ctx context.Context, id int64, roomID string) error
	UpdateConnectionStatus(ctx context.Context, id int64, status player.PlayerStatus) error
	Find(ctx context.Context, id int64) (*Presence, error)
	SetOffline(ctx context.Context, id int64) error
}

type redisPlayerRepository struct {
	rdb *redis.Client
}

// NewPlayerRepository creates a new Redis-based PlayerRepository.
func NewPlayerRepository(rdb *redis.Client) PlayerRepository {
	return &redisPlayerRepository{rdb: rdb}
}

func playerKey(id int64) string {
	return fmt.Sprintf("player:%d", id)
}

// SetOnline records that the user authenticated on serverID.
func (r *redisPlayerRepository) SetOnline(ctx context.Context, id int64, serverID string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.SetOnline", trace.WithAttributes(attribute.Int64("player.id", id)))
	defer span.End()

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, playerKey(id), fieldServerID, serverID)
	pipe.HSet(ctx, playerKey(id), fieldConnectionStatus, string(player.StatusConnected))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set player online: %w", err)
	}
	return nil
}

// SetRoom records the user's current room; an empty roomID clears it.
func (r *redisPlayerRepository) SetRoom(ctx context.Context, id int64, roomID string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.SetRoom", trace.WithAttributes(
		attribute.Int64("player.id", id),
		attribute.String("room.id", roomID),
	))
	defer span.End()

	if roomID == "" {
		return r.rdb.HDel(ctx, playerKey(id), fieldRoomID).Err()
	}
	return r.rdb.HSet(ctx, playerKey(id), fieldRoomID, roomID).Err()
}

// UpdateConnectionStatus updates only the connection status of a player.
func (r *redisPlayerRepository) UpdateConnectionStatus(ctx context.Context, id int64, status player.PlayerStatus) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.UpdateConnectionStatus")
	defer span.End()

	return r.rdb.HSet(ctx, playerKey(id), fieldConnectionStatus, string(status)).Err()
}

// Find returns the user's presence, or nil if nothing is recorded.
func (r *redisPlayerRepository) Find(ctx context.Context, id int64) (*Presence, error) {
	ctx, span := tracer.Start(ctx, "PlayerRepository.Find")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, playerKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get presence from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &Presence{
		ServerID:         data[fieldServerID],
		RoomID:           data[fieldRoomID],
		ConnectionStatus: player.PlayerStatus(data[fieldConnectionStatus]),
	}, nil
}

// SetOffline marks a player as disconnected and drops their room.
func (r *redisPlayerRepository) SetOffline(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.SetOffline")
	defer span.End()

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, playerKey(id), fieldConnectionStatus, string(player.StatusDisconnected))
	pipe.HDel(ctx, playerKey(id), fieldRoomID)
	_, err := pipe.Exec(ctx)
	return err
}
