package room

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/player"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleJoin appends a new player or rebinds a returning one.
func (r *Room) handleJoin(ctx context.Context, id session.Identity, connID string) error {
	ctx, span := tracer.Start(ctx, "room.handleJoin", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int64("player.id", id.ID),
		attribute.String("conn.id", connID),
	))
	defer span.End()

	if _, p := r.findPlayer(id.ID); p != nil {
		r.rebind(ctx, p, connID)
		return nil
	}

	if len(r.players) >= r.settings.MaxPlayers {
		span.SetStatus(codes.Error, "Room full")
		return game.ErrRoomFull
	}

	p := player.NewPlayer(id.ID, id.Username, connID)
	p.LastSeen = r.now()
	r.players = append(r.players, p)
	r.opts.Router.Attach(r.ID, connID)

	slog.InfoContext(ctx, "Player joined room", "room.id", r.ID, "player.id", p.ID, "players.count", len(r.players))
	r.broadcast(ctx, proto.NewPlayerMessage(proto.TypePlayerJoined, p.ID, p.Username), connID)
	r.sendJoinState(ctx, p)
	return nil
}

func (r *Room) rebind(ctx context.Context, p *player.Player, connID string) {
	if p.ConnID != "" && p.ConnID != connID {
		r.opts.Router.Detach(r.ID, p.ConnID)
	}
	wasConnected := p.Connected() && p.ConnID == connID
	p.Rebind(connID, r.now())
	r.opts.Router.Attach(r.ID, connID)

	if !wasConnected {
		slog.InfoContext(ctx, "Player reconnected to room", "room.id", r.ID, "player.id", p.ID)
		r.broadcast(ctx, proto.NewPlayerMessage(proto.TypePlayerReconnected, p.ID, p.Username), connID)
	}
	r.sendJoinState(ctx, p)
}

// sendJoinState gives a (re)joining player the roster and, during a game,
// a private snapshot followed by the round's strokes in order.
func (r *Room) sendJoinState(ctx context.Context, p *player.Player) {
	r.sendPrivate(ctx, p.ConnID, proto.NewRoomJoined(r.ID, r.roster()))
	if r.phase == game.PhaseLobby {
		return
	}

	isDrawer := r.isDrawer(p)
	word := game.Mask(r.round.Word)
	if isDrawer {
		word = r.round.Word
	}
	r.sendPrivate(ctx, p.ConnID, &proto.GameStateMessage{
		Type:          proto.TypeGameState,
		CurrentRound:  r.round.Number,
		MaxRounds:     r.settings.MaxRounds,
		TimeRemaining: r.round.TimeRemaining(r.now()),
		GameStarted:   true,
		Players:       r.roster(),
		Word:          word,
		IsDrawer:      isDrawer,
	})
	if r.phase != game.PhaseDrawing {
		return
	}
	for _, s := range r.round.Strokes {
		r.sendPrivate(ctx, p.ConnID, proto.NewDrawData(s))
	}
	for _, c := range r.chat {
		r.sendPrivate(ctx, p.ConnID, c)
	}
}

func (r *Room) handleLeave(ctx context.Context, playerID int64, connID string) {
	idx, p := r.findPlayer(playerID)
	if p == nil || (connID != "" && p.ConnID != connID) {
		return
	}
	r.removePlayer(ctx, idx, proto.TypePlayerLeft)
}

// handleDisconnect keeps a dropped player in the roster for the reconnect
// window. The drawer of an active round is removed immediately so the round
// can end.
func (r *Room) handleDisconnect(ctx context.Context, playerID int64, connID string) {
	idx, p := r.findPlayer(playerID)
	if p == nil || p.ConnID != connID {
		return
	}

	drawing := r.phase == game.PhaseDrawing && p.ID == r.round.DrawerID
	if r.settings.ReconnectGrace <= 0 || drawing {
		r.removePlayer(ctx, idx, proto.TypePlayerDisconnected)
		return
	}

	r.opts.Router.Detach(r.ID, connID)
	p.Disconnect(r.now())
	slog.InfoContext(ctx, "Player disconnected, holding seat", "room.id", r.ID, "player.id", p.ID, "grace", r.settings.ReconnectGrace)
	r.broadcast(ctx, proto.NewPlayerMessage(proto.TypePlayerDisconnected, p.ID, p.Username), "")
}

func (r *Room) sweepDisconnected(ctx context.Context, now time.Time) {
	for i := 0; i < len(r.players) && !r.closed; {
		p := r.players[i]
		if !p.Connected() && now.Sub(p.LastSeen) > r.settings.ReconnectGrace {
			slog.InfoContext(ctx, "Player exceeded reconnection grace period", "room.id", r.ID, "player.id", p.ID)
			r.removePlayer(ctx, i, proto.TypePlayerLeft)
			continue
		}
		i++
	}
}

// removePlayer drops roster[idx], keeps the drawer index pointing at the
// same player, ends the round if the drawer left, and closes the room when
// nobody is left.
func (r *Room) removePlayer(ctx context.Context, idx int, notice string) {
	ctx, span := tracer.Start(ctx, "room.removePlayer", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int64("player.id", r.players[idx].ID),
	))
	defer span.End()

	p := r.players[idx]
	wasDrawer := r.phase == game.PhaseDrawing && p.ID == r.round.DrawerID

	r.players = slices.Delete(r.players, idx, idx+1)
	if p.ConnID != "" {
		r.opts.Router.Detach(r.ID, p.ConnID)
	}
	if idx < r.drawerIdx || wasDrawer {
		// The drawer's successor slid into idx; endRound advances onto it.
		r.drawerIdx--
	}

	slog.InfoContext(ctx, "Player removed from room", "room.id", r.ID, "player.id", p.ID, "players.count", len(r.players))
	r.broadcast(ctx, proto.NewPlayerMessage(notice, p.ID, p.Username), "")

	if len(r.players) == 0 {
		r.close(ctx)
		return
	}
	if wasDrawer {
		r.endRound(ctx)
	}
}
