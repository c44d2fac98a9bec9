package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/room"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/internal/transport"
	"ctchen222/DrawSync/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// dispatch routes one client message. Any error is reported privately to
// the sender; nothing here tears the connection down.
func (h *Hub) dispatch(ctx context.Context, conn *transport.Conn, msg *proto.ClientMessage) {
	ctx, span := tracer.Start(ctx, "hub.dispatch", trace.WithAttributes(
		attribute.String("conn.id", conn.ID()),
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	err := h.route(ctx, conn, msg)
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(game.CodeOf(err)))
	slog.DebugContext(ctx, "Message rejected", "conn.id", conn.ID(), "message.type", msg.Type, "error", err)
	h.opts.Router.SendPrivate(ctx, conn.ID(), proto.NewErrorMessage(err))
}

func (h *Hub) route(ctx context.Context, conn *transport.Conn, msg *proto.ClientMessage) error {
	if !isKnownType(msg.Type) {
		return game.ErrUnknownType.WithMessage(fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
	if err := requireFields(msg); err != nil {
		return err
	}
	if msg.Type == proto.TypeAuthenticate {
		return h.handleAuthenticate(ctx, conn, msg)
	}

	identity, ok := h.opts.Sessions.Identity(conn.ID())
	if !ok {
		return game.ErrNotAuthenticated
	}

	switch msg.Type {
	case proto.TypeJoinRoom:
		return h.handleJoinRoom(ctx, conn.ID(), identity, string(msg.RoomID))
	case proto.TypeLeaveRoom:
		return h.handleLeaveRoom(ctx, conn.ID(), identity)
	case proto.TypeDeleteRoom:
		return h.handleDeleteRoom(ctx, conn.ID(), identity)
	default:
		return h.forward(ctx, conn.ID(), identity, msg)
	}
}

func (h *Hub) handleJoinRoom(ctx context.Context, connID string, identity session.Identity, roomID string) error {
	ctx, span := tracer.Start(ctx, "hub.handleJoinRoom", trace.WithAttributes(
		attribute.String("room.id", roomID),
		attribute.Int64("player.id", identity.ID),
	))
	defer span.End()

	if current := h.opts.Sessions.CurrentRoom(connID); current != "" && current != roomID {
		h.leaveRoom(ctx, connID, identity, current)
	}

	for range joinAttempts {
		r := h.getOrCreateRoom(ctx, roomID)
		err := r.Join(ctx, identity, connID)
		if errors.Is(err, room.ErrClosed) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "join rejected")
			return err
		}
		h.opts.Sessions.SetRoom(connID, roomID)
		h.setPresenceRoom(ctx, identity.ID, roomID)
		return nil
	}
	span.SetStatus(codes.Error, "room kept closing")
	return game.ErrRoomNotFound
}

func (h *Hub) handleLeaveRoom(ctx context.Context, connID string, identity session.Identity) error {
	roomID := h.opts.Sessions.CurrentRoom(connID)
	if roomID == "" {
		return game.ErrNotInRoom
	}
	h.leaveRoom(ctx, connID, identity, roomID)
	return nil
}

func (h *Hub) handleDeleteRoom(ctx context.Context, connID string, identity session.Identity) error {
	roomID := h.opts.Sessions.CurrentRoom(connID)
	if roomID == "" {
		return game.ErrNotInRoom
	}
	r := h.room(roomID)
	if r == nil {
		h.opts.Sessions.ClearRoom(connID, roomID)
		return game.ErrRoomNotFound
	}
	err := r.Delete(ctx, identity.ID)
	if errors.Is(err, room.ErrClosed) {
		h.opts.Sessions.ClearRoom(connID, roomID)
		return game.ErrRoomNotFound
	}
	return err
}

// forward hands an in-room action to the sender's room.
func (h *Hub) forward(ctx context.Context, connID string, identity session.Identity, msg *proto.ClientMessage) error {
	roomID := h.opts.Sessions.CurrentRoom(connID)
	if roomID == "" {
		return game.ErrNotInRoom
	}
	r := h.room(roomID)
	if r == nil {
		h.opts.Sessions.ClearRoom(connID, roomID)
		return game.ErrNotInRoom
	}
	if err := r.Handle(ctx, identity.ID, connID, msg); err != nil {
		if errors.Is(err, room.ErrClosed) {
			h.opts.Sessions.ClearRoom(connID, roomID)
			return game.ErrNotInRoom
		}
		return err
	}
	return nil
}

func (h *Hub) leaveRoom(ctx context.Context, connID string, identity session.Identity, roomID string) {
	h.opts.Sessions.ClearRoom(connID, roomID)
	if r := h.room(roomID); r != nil {
		if err := r.Leave(ctx, identity.ID, connID); err != nil {
			slog.DebugContext(ctx, "Room gone before leave", "room.id", roomID, "error", err)
		}
	}
	h.setPresenceRoom(ctx, identity.ID, "")
}
