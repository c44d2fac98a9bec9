package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ctchen222/DrawSync/internal/events"
	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/room"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunEventSubscriber consumes cluster events until ctx is cancelled. It
// returns immediately when no redis client is configured.
func (h *Hub) RunEventSubscriber(ctx context.Context) error {
	if h.opts.Redis == nil {
		return nil
	}
	pubsub := h.opts.Redis.Subscribe(ctx, events.EventsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Event subscriber started", "channel", events.EventsChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.handleEvent(ctx, msg.Payload)
		}
	}
}

func (h *Hub) handleEvent(ctx context.Context, data string) {
	ctx, span := tracer.Start(ctx, "hub.handleEvent", trace.WithAttributes(
		attribute.String("event.channel", events.EventsChannel),
	))
	defer span.End()

	event, err := events.Decode(data)
	if err != nil {
		slog.ErrorContext(ctx, "Could not decode global event", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not decode global event")
		return
	}
	span.SetAttributes(attribute.String("event.type", event.Type))

	switch event.Type {
	case events.TypeRoomDeleteRequested:
		var payload events.RoomDeleteRequestedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			slog.ErrorContext(ctx, "Could not unmarshal room_delete_requested payload", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Could not unmarshal room_delete_requested payload")
			return
		}
		h.handleRoomDeleteRequested(ctx, &payload)
	default:
		slog.DebugContext(ctx, "Ignoring global event", "event.type", event.Type)
	}
}

func (h *Hub) handleRoomDeleteRequested(ctx context.Context, payload *events.RoomDeleteRequestedPayload) {
	ctx, span := tracer.Start(ctx, "hub.handleRoomDeleteRequested", trace.WithAttributes(
		attribute.String("room.id", payload.RoomID),
		attribute.Int64("player.id", payload.RequestedBy),
	))
	defer span.End()

	r := h.room(payload.RoomID)
	if r == nil {
		// Hosted elsewhere, or already gone.
		return
	}
	err := r.Delete(ctx, payload.RequestedBy)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Room deleted on request", "room.id", payload.RoomID, "player.id", payload.RequestedBy)
	case errors.Is(err, room.ErrClosed):
	case errors.Is(err, game.ErrNotRoomOwner):
		slog.WarnContext(ctx, "Rejected room deletion by non-owner", "room.id", payload.RoomID, "player.id", payload.RequestedBy)
	default:
		slog.ErrorContext(ctx, "Room deletion failed", "room.id", payload.RoomID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Room deletion failed")
	}
}
