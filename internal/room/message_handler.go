package room

import (
	"context"
	"log/slog"
	"time"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/player"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStrokeColor = "#000000"
	defaultBrushSize   = 2
)

type event interface{}

type joinEvent struct {
	ctx      context.Context
	identity session.Identity
	connID   string
	reply    chan<- error
}

type leaveEvent struct {
	ctx      context.Context
	playerID int64
	connID   string
}

type disconnectEvent struct {
	ctx      context.Context
	playerID int64
	connID   string
}

type actionEvent struct {
	ctx      context.Context
	playerID int64
	connID   string
	msg      *proto.ClientMessage
}

type deleteEvent struct {
	ctx       context.Context
	requester int64
	reply     chan<- error
}

type timerKind int

const (
	timerRoundTimeout timerKind = iota
	timerNextRound
)

type timerEvent struct {
	kind       timerKind
	generation uint64
}

// handle applies one event. It runs only on the room goroutine.
func (r *Room) handle(ev event) {
	if r.closed {
		return
	}
	switch ev := ev.(type) {
	case *joinEvent:
		ev.reply <- r.handleJoin(ev.ctx, ev.identity, ev.connID)
	case *leaveEvent:
		r.handleLeave(ev.ctx, ev.playerID, ev.connID)
	case *disconnectEvent:
		r.handleDisconnect(ev.ctx, ev.playerID, ev.connID)
	case *actionEvent:
		r.handleAction(ev.ctx, ev.playerID, ev.connID, ev.msg)
	case *deleteEvent:
		ev.reply <- r.handleDelete(ev.ctx, ev.requester)
	case *timerEvent:
		r.handleTimer(ev)
	}
	if !r.closed {
		r.publishSummary()
	}
}

// handleAction dispatches an in-room client message from a roster member.
func (r *Room) handleAction(ctx context.Context, playerID int64, connID string, msg *proto.ClientMessage) {
	ctx, span := tracer.Start(ctx, "room.handleAction", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int64("player.id", playerID),
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	_, p := r.findPlayer(playerID)
	if p == nil || p.ConnID != connID {
		slog.WarnContext(ctx, "ignoring message from a connection not bound in this room", "room.id", r.ID, "player.id", playerID, "conn.id", connID)
		span.SetStatus(codes.Error, "Connection not bound in room")
		r.sendError(ctx, connID, game.ErrNotInRoom)
		return
	}

	switch msg.Type {
	case proto.TypeReady:
		r.handleReady(ctx, p, msg.Ready)
	case proto.TypeStartGame:
		if err := r.startGame(ctx, p); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to start game")
			r.sendError(ctx, connID, err)
		}
	case proto.TypeDraw:
		r.handleDraw(ctx, p, msg)
	case proto.TypeChatMessage:
		r.handleChat(ctx, p, msg.Message)
	case proto.TypeGuessWord:
		r.handleGuess(ctx, p, msg.Guess)
	case proto.TypeClearCanvas:
		r.handleClearCanvas(ctx, p)
	case proto.TypeSkipTurn:
		r.handleSkipTurn(ctx, p)
	default:
		r.sendError(ctx, connID, game.ErrUnknownType)
	}
}

func (r *Room) handleReady(ctx context.Context, p *player.Player, ready bool) {
	p.Ready = ready
	r.broadcast(ctx, proto.NewPlayerReady(p.ID, p.Username, ready), "")
}

// handleDraw relays a stroke from the current drawer. Strokes from anyone
// else are dropped without an error since they come from stale UIs.
func (r *Room) handleDraw(ctx context.Context, p *player.Player, msg *proto.ClientMessage) {
	if !r.isDrawer(p) {
		slog.DebugContext(ctx, "dropping stroke from non-drawer", "room.id", r.ID, "player.id", p.ID)
		return
	}

	stroke := game.Stroke{
		UserID:       p.ID,
		Username:     p.Username,
		IsDrawing:    msg.IsDrawing,
		IsFirstPoint: msg.IsFirstPoint,
		Color:        msg.Color,
		BrushSize:    defaultBrushSize,
		Timestamp:    float64(r.now().UnixMilli()),
	}
	if msg.X != nil {
		stroke.X = *msg.X
	}
	if msg.Y != nil {
		stroke.Y = *msg.Y
	}
	if stroke.Color == "" {
		stroke.Color = defaultStrokeColor
	}
	if msg.BrushSize != nil {
		stroke.BrushSize = *msg.BrushSize
	}
	if msg.Timestamp != nil {
		stroke.Timestamp = *msg.Timestamp
	}

	r.round.Strokes = append(r.round.Strokes, stroke)
	r.broadcast(ctx, proto.NewDrawData(stroke), p.ConnID)
}

func (r *Room) handleChat(ctx context.Context, p *player.Player, text string) {
	ts := float64(r.now().UnixMilli()) / 1000
	chat := proto.NewChatMessage(p.ID, p.Username, text, ts)
	r.broadcast(ctx, chat, "")

	if r.phase != game.PhaseDrawing {
		return
	}
	r.chat = append(r.chat, chat)
	r.handleGuess(ctx, p, text)
}

// handleGuess evaluates text as a guess. Incorrect and rejected guesses
// produce no messages.
func (r *Room) handleGuess(ctx context.Context, p *player.Player, text string) {
	if r.phase != game.PhaseDrawing {
		return
	}

	result := r.round.Evaluate(p.ID, text)
	if result != game.GuessCorrect {
		slog.DebugContext(ctx, "guess not accepted", "room.id", r.ID, "player.id", p.ID, "guess.result", result.String())
		return
	}

	remaining := r.round.TimeRemaining(r.now())
	p.Score += game.GuessScore(r.settings.GuessBaseScore, remaining)
	if _, drawer := r.findPlayer(r.round.DrawerID); drawer != nil {
		drawer.Score += r.settings.DrawerBonus
	}
	r.opts.Metrics.CorrectGuess(ctx, r.ID)

	slog.InfoContext(ctx, "Correct guess", "room.id", r.ID, "player.id", p.ID, "round", r.round.Number, "time_remaining", remaining)
	r.broadcast(ctx, proto.NewCorrectGuess(p.ID, p.Username, r.round.Word), "")
	r.endRound(ctx)
}

func (r *Room) handleClearCanvas(ctx context.Context, p *player.Player) {
	if !r.isDrawer(p) {
		r.sendError(ctx, p.ConnID, game.ErrNotYourTurn)
		return
	}
	r.round.Strokes = nil
	r.broadcast(ctx, proto.NewCanvasCleared(p.ID, p.Username), "")
}

func (r *Room) handleSkipTurn(ctx context.Context, p *player.Player) {
	if !r.isDrawer(p) {
		r.sendError(ctx, p.ConnID, game.ErrNotYourTurn)
		return
	}
	slog.InfoContext(ctx, "Drawer skipped turn", "room.id", r.ID, "player.id", p.ID, "round", r.round.Number)
	r.endRound(ctx)
}

// handleDelete broadcasts room_deleted, evicts every member and closes the
// room. Only the owner, the first player in the roster, may delete.
func (r *Room) handleDelete(ctx context.Context, requester int64) error {
	ctx, span := tracer.Start(ctx, "room.handleDelete", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int64("player.id", requester),
	))
	defer span.End()

	if requester != 0 && (len(r.players) == 0 || r.players[0].ID != requester) {
		span.SetStatus(codes.Error, "Requester is not the room owner")
		return game.ErrNotRoomOwner
	}

	r.broadcast(ctx, proto.NewRoomDeleted(), "")
	for _, p := range r.players {
		if p.ConnID == "" {
			continue
		}
		r.opts.Router.Detach(r.ID, p.ConnID)
		if r.opts.OnEvict != nil {
			r.opts.OnEvict(p.ConnID)
		}
	}
	r.players = nil
	slog.InfoContext(ctx, "Room deleted", "room.id", r.ID, "requested_by", requester)
	r.close(ctx)
	return nil
}

func (r *Room) handleTimer(ev *timerEvent) {
	ctx := context.Background()
	if ev.generation != r.round.Generation {
		slog.DebugContext(ctx, "ignoring stale timer", "room.id", r.ID, "timer.generation", ev.generation, "round.generation", r.round.Generation)
		return
	}
	switch {
	case ev.kind == timerRoundTimeout && r.phase == game.PhaseDrawing:
		slog.InfoContext(ctx, "Round timed out", "room.id", r.ID, "round", r.round.Number)
		r.endRound(ctx)
	case ev.kind == timerNextRound && r.phase == game.PhaseRoundEnd:
		r.enterDrawing(ctx)
	}
}

// tick drives the once-a-second countdown and expires players whose
// reconnect window has passed.
func (r *Room) tick(ctx context.Context, now time.Time) {
	if r.phase == game.PhaseDrawing {
		r.broadcast(ctx, proto.NewTimeUpdate(r.round.TimeRemaining(now)), "")
	}
	r.sweepDisconnected(ctx, now)
	if !r.closed {
		r.publishSummary()
	}
}
