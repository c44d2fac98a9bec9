package room

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/player"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/internal/telemetry"
	"ctchen222/DrawSync/pkg/proto"

	"go.opentelemetry.io/otel"
)

const (
	tickInterval = time.Second
	inboxSize    = 64
	sinkTimeout  = 5 * time.Second
)

var tracer = otel.Tracer("room")

// ErrClosed is returned to callers that reach a room after it shut down.
var ErrClosed = errors.New("room closed")

//go:generate mockgen -destination=mock_room.go -package=room . WordSource,ScoreSink

// WordSource supplies secret words.
type WordSource interface {
	RandomWord(difficulty string) string
}

// ScoreSink persists final scores. Calls are fire-and-forget.
type ScoreSink interface {
	RecordGame(ctx context.Context, result GameResult) error
}

// Router delivers messages to the connections attached to a room.
type Router interface {
	Attach(roomID, connID string)
	Detach(roomID, connID string)
	Broadcast(ctx context.Context, roomID string, msg any, except string)
	SendPrivate(ctx context.Context, connID string, msg any)
}

// PlayerScore is one line of a finished game's scoreboard.
type PlayerScore struct {
	PlayerID int64
	Username string
	Score    int
	Winner   bool
}

// GameResult is handed to the ScoreSink when a game ends.
type GameResult struct {
	RoomID  string
	Scores  []PlayerScore
	EndedAt time.Time
}

// Summary is a read-only snapshot of a room for listings.
type Summary struct {
	ID         string     `json:"id"`
	OwnerID    int64      `json:"owner_id"`
	Owner      string     `json:"owner"`
	Players    int        `json:"players"`
	MaxPlayers int        `json:"max_players"`
	Phase      game.Phase `json:"phase"`
	Round      int        `json:"round"`
	MaxRounds  int        `json:"max_rounds"`
}

// Options are the room's collaborators. Only Router and Words are required.
type Options struct {
	Router  Router
	Words   WordSource
	Sink    ScoreSink
	Metrics *telemetry.Metrics

	// OnClose runs on the room goroutine right before the room stops
	// accepting events.
	OnClose func(r *Room)
	// OnEvict runs for every connection detached by a room deletion.
	OnEvict func(connID string)

	Clock func() time.Time
}

// Room is a single game instance. All of its state is owned by the Run
// goroutine; other goroutines talk to it through the inbox.
type Room struct {
	ID       string
	settings game.Settings
	opts     Options
	now      func() time.Time

	inbox   chan event
	done    chan struct{}
	closed  bool
	summary atomic.Pointer[Summary]

	players   []*player.Player
	phase     game.Phase
	round     game.Round
	drawerIdx int
	chat      []*proto.ChatMessage
	timer     *time.Timer
}

// New creates a room in the lobby. Call Run to start processing events.
func New(id string, settings game.Settings, opts Options) *Room {
	r := &Room{
		ID:       id,
		settings: settings,
		opts:     opts,
		now:      opts.Clock,
		inbox:    make(chan event, inboxSize),
		done:     make(chan struct{}),
		players:  make([]*player.Player, 0, settings.MaxPlayers),
		phase:    game.PhaseLobby,
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.publishSummary()
	return r
}

// Run processes events until the room closes or ctx is cancelled.
func (r *Room) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	r.opts.Metrics.RoomOpened(ctx)
	defer r.opts.Metrics.RoomClosed(ctx)

	slog.InfoContext(ctx, "Room started", "room.id", r.ID)
	for !r.closed {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Room stopping on shutdown", "room.id", r.ID)
			r.close(ctx)
		case ev := <-r.inbox:
			r.handle(ev)
		case now := <-ticker.C:
			r.tick(ctx, now)
		}
	}
}

// Done is closed once the room has shut down.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Summary returns the latest published snapshot.
func (r *Room) Summary() Summary {
	return *r.summary.Load()
}

// Join adds identity to the room on connID, or rebinds it if the identity
// is already in the roster.
func (r *Room) Join(ctx context.Context, id session.Identity, connID string) error {
	reply := make(chan error, 1)
	if err := r.post(ctx, &joinEvent{ctx: ctx, identity: id, connID: connID, reply: reply}); err != nil {
		return err
	}
	return r.await(ctx, reply)
}

// Leave removes the player from the room.
func (r *Room) Leave(ctx context.Context, playerID int64, connID string) error {
	return r.post(ctx, &leaveEvent{ctx: ctx, playerID: playerID, connID: connID})
}

// Disconnect reports that connID, bound to playerID, has gone away.
func (r *Room) Disconnect(ctx context.Context, playerID int64, connID string) error {
	return r.post(ctx, &disconnectEvent{ctx: ctx, playerID: playerID, connID: connID})
}

// Handle queues an in-room client action.
func (r *Room) Handle(ctx context.Context, playerID int64, connID string, msg *proto.ClientMessage) error {
	return r.post(ctx, &actionEvent{ctx: ctx, playerID: playerID, connID: connID, msg: msg})
}

// Delete tears the room down. A requester of 0 is an administrative delete
// and skips the ownership check.
func (r *Room) Delete(ctx context.Context, requester int64) error {
	reply := make(chan error, 1)
	if err := r.post(ctx, &deleteEvent{ctx: ctx, requester: requester, reply: reply}); err != nil {
		return err
	}
	return r.await(ctx, reply)
}

func (r *Room) post(ctx context.Context, ev event) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	select {
	case r.inbox <- ev:
		return nil
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-r.done:
		// The reply may have been sent just before the room closed.
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) close(ctx context.Context) {
	if r.closed {
		return
	}
	r.stopTimer()
	r.closed = true
	for _, p := range r.players {
		if p.ConnID != "" {
			r.opts.Router.Detach(r.ID, p.ConnID)
		}
	}
	r.players = nil
	r.publishSummary()
	if r.opts.OnClose != nil {
		r.opts.OnClose(r)
	}
	close(r.done)
	slog.InfoContext(ctx, "Room closed", "room.id", r.ID)
}

func (r *Room) publishSummary() {
	s := &Summary{
		ID:         r.ID,
		Players:    len(r.players),
		MaxPlayers: r.settings.MaxPlayers,
		Phase:      r.phase,
		Round:      r.round.Number,
		MaxRounds:  r.settings.MaxRounds,
	}
	if len(r.players) > 0 {
		s.OwnerID = r.players[0].ID
		s.Owner = r.players[0].Username
	}
	r.summary.Store(s)
}
