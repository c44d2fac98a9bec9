package hub

import (
	"context"
	"log/slog"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/pkg/proto"
)

const maxRoomIDLength = 64

func isKnownType(t string) bool {
	switch t {
	case proto.TypeAuthenticate, proto.TypeJoinRoom, proto.TypeLeaveRoom, proto.TypeDeleteRoom,
		proto.TypeReady, proto.TypeStartGame, proto.TypeDraw, proto.TypeChatMessage,
		proto.TypeGuessWord, proto.TypeSkipTurn, proto.TypeClearCanvas:
		return true
	}
	return false
}

// requireFields checks the per-type mandatory fields.
func requireFields(msg *proto.ClientMessage) error {
	switch msg.Type {
	case proto.TypeAuthenticate:
		if msg.Token == "" {
			return game.ErrMalformedMessage.WithMessage("token is required")
		}
	case proto.TypeJoinRoom:
		if msg.RoomID == "" {
			return game.ErrMalformedMessage.WithMessage("room_id is required")
		}
		if len(msg.RoomID) > maxRoomIDLength {
			return game.ErrMalformedMessage.WithMessage("room_id is too long")
		}
	case proto.TypeDraw:
		if msg.X == nil || msg.Y == nil {
			return game.ErrMalformedMessage.WithMessage("x and y are required")
		}
	case proto.TypeChatMessage:
		if msg.Message == "" {
			return game.ErrMalformedMessage.WithMessage("message is required")
		}
	case proto.TypeGuessWord:
		if msg.Guess == "" {
			return game.ErrMalformedMessage.WithMessage("guess is required")
		}
	}
	return nil
}

func (h *Hub) setPresenceRoom(ctx context.Context, playerID int64, roomID string) {
	if h.opts.Presence == nil {
		return
	}
	if err := h.opts.Presence.SetRoom(ctx, playerID, roomID); err != nil {
		slog.WarnContext(ctx, "Failed to record presence room", "player.id", playerID, "room.id", roomID, "error", err)
	}
}
