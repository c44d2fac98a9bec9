package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"ctchen222/DrawSync/internal/events"
	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/player"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/internal/transport"
	"ctchen222/DrawSync/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Serve runs conn until its socket closes. Every transport, websocket or raw
// TCP, ends up here.
func (h *Hub) Serve(ctx context.Context, conn *transport.Conn) {
	connID := conn.ID()
	h.opts.Router.Register(conn)
	h.opts.Sessions.Open(connID)
	h.track(conn)
	h.opts.Metrics.ConnectionOpened(ctx)
	slog.InfoContext(ctx, "Connection opened", "conn.id", connID)

	go conn.WritePump()
	defer h.teardown(context.WithoutCancel(ctx), conn)

	for {
		msg, err := conn.ReceiveNext()
		if errors.Is(err, game.ErrMalformedMessage) {
			h.opts.Router.SendPrivate(ctx, connID, proto.NewErrorMessage(err))
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.WarnContext(ctx, "Connection read failed", "conn.id", connID, "error", err)
			}
			return
		}
		h.dispatch(ctx, conn, msg)
	}
}

func (h *Hub) handleAuthenticate(ctx context.Context, conn *transport.Conn, msg *proto.ClientMessage) error {
	ctx, span := tracer.Start(ctx, "hub.handleAuthenticate", trace.WithAttributes(
		attribute.String("conn.id", conn.ID()),
	))
	defer span.End()

	identity, err := h.opts.Sessions.Authenticate(ctx, msg.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authentication failed")
		return err
	}
	span.SetAttributes(attribute.Int64("player.id", identity.ID))

	// Switching identity on a live connection leaves the old identity's room.
	if prev, ok := h.opts.Sessions.Identity(conn.ID()); ok && prev.ID != identity.ID {
		if roomID := h.opts.Sessions.CurrentRoom(conn.ID()); roomID != "" {
			h.leaveRoom(ctx, conn.ID(), prev, roomID)
		}
	}

	if superseded := h.opts.Sessions.Bind(ctx, conn.ID(), identity); superseded != "" {
		slog.InfoContext(ctx, "Closing superseded connection", "player.id", identity.ID, "conn.id", superseded)
		h.closeConn(superseded)
	}

	if h.opts.Presence != nil {
		if err := h.opts.Presence.SetOnline(ctx, identity.ID, h.opts.ServerID); err != nil {
			slog.WarnContext(ctx, "Failed to record presence", "player.id", identity.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Connection authenticated", "conn.id", conn.ID(), "player.id", identity.ID)
	h.opts.Router.SendPrivate(ctx, conn.ID(), proto.NewAuthenticated(identity.ID, identity.Username))
	return nil
}

// teardown releases everything conn held. The player is reported to its
// room as disconnected; the room decides whether to keep it for a reconnect.
func (h *Hub) teardown(ctx context.Context, conn *transport.Conn) {
	ctx, span := tracer.Start(ctx, "hub.teardown", trace.WithAttributes(
		attribute.String("conn.id", conn.ID()),
	))
	defer span.End()

	identity, roomID := h.opts.Sessions.Unbind(conn.ID())
	if identity != nil && roomID != "" {
		if r := h.room(roomID); r != nil {
			if err := r.Disconnect(ctx, identity.ID, conn.ID()); err != nil {
				slog.DebugContext(ctx, "Room gone before disconnect", "room.id", roomID, "error", err)
			}
		}
	}

	h.opts.Router.Unregister(conn.ID())
	conn.Close()
	h.untrack(conn)
	h.opts.Metrics.ConnectionClosed(ctx)

	if identity != nil && !h.opts.Sessions.Bound(identity.ID) {
		h.reportOffline(ctx, identity, roomID)
	}
	slog.InfoContext(ctx, "Connection closed", "conn.id", conn.ID())
}

func (h *Hub) reportOffline(ctx context.Context, identity *session.Identity, roomID string) {
	if h.opts.Presence != nil {
		var err error
		if roomID != "" {
			err = h.opts.Presence.UpdateConnectionStatus(ctx, identity.ID, player.StatusDisconnected)
		} else {
			err = h.opts.Presence.SetOffline(ctx, identity.ID)
		}
		if err != nil {
			slog.WarnContext(ctx, "Failed to update presence", "player.id", identity.ID, "error", err)
		}
	}
	if h.opts.Publisher != nil && roomID != "" {
		payload := events.PlayerDisconnectedPayload{RoomID: roomID, PlayerID: identity.ID}
		if err := h.opts.Publisher.Publish(ctx, events.TypePlayerDisconnected, payload); err != nil {
			slog.WarnContext(ctx, "Failed to publish player_disconnected", "player.id", identity.ID, "error", err)
		}
	}
}
