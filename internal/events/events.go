package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types.
const (
	TypeRoomDeleteRequested = "room_delete_requested"
	TypePlayerDisconnected  = "player_disconnected"
	TypeGameCompleted       = "game_completed"
)

var tracer = otel.Tracer("events")

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// RoomDeleteRequestedPayload asks whichever server hosts the room to delete it.
// RequestedBy is the user id of the requester; 0 means an operator.
type RoomDeleteRequestedPayload struct {
	RoomID      string `json:"room_id"`
	RequestedBy int64  `json:"requested_by"`
}

// PlayerDisconnectedPayload is the payload for the "player_disconnected" event.
type PlayerDisconnectedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID int64  `json:"player_id"`
}

// GameCompletedPayload announces final scores of a finished game.
type GameCompletedPayload struct {
	RoomID string        `json:"room_id"`
	Scores map[int64]int `json:"scores"`
}

// Publisher wraps payloads in an Event envelope and publishes them.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish sends an event of eventType carrying payload on EventsChannel.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	ctx, span := tracer.Start(ctx, "events.Publish", trace.WithAttributes(
		attribute.String("event.type", eventType),
	))
	defer span.End()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	event, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, EventsChannel, event).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Decode unmarshals an event envelope from a pub/sub payload.
func Decode(data string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event without type")
	}
	return &event, nil
}
