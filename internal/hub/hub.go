package hub

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"ctchen222/DrawSync/internal/broadcast"
	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/repository"
	"ctchen222/DrawSync/internal/room"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/internal/telemetry"
	"ctchen222/DrawSync/internal/transport"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hub")

// joinAttempts bounds how often a join is retried against a room that
// closed between lookup and join.
const joinAttempts = 3

// Publisher publishes cluster events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Options are the hub's collaborators. Sessions, Router and Words are
// required; the rest may be nil.
type Options struct {
	Settings game.Settings
	ServerID string

	Sessions *session.Registry
	Router   *broadcast.Router
	Words    room.WordSource
	Sink     room.ScoreSink
	Metrics  *telemetry.Metrics

	Presence  repository.PlayerRepository
	Publisher Publisher
	Redis     *redis.Client
}

// Hub exclusively owns every room hosted by this process and dispatches
// client messages from connections to them.
type Hub struct {
	opts Options

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	rooms map[string]*room.Room
	conns map[string]*transport.Conn
}

// NewHub creates a hub with no rooms.
func NewHub(opts Options) *Hub {
	base, cancel := context.WithCancel(context.Background())
	return &Hub{
		opts:   opts,
		base:   base,
		cancel: cancel,
		rooms:  make(map[string]*room.Room),
		conns:  make(map[string]*transport.Conn),
	}
}

// Rooms lists the live rooms ordered by id.
func (h *Hub) Rooms() []room.Summary {
	h.mu.Lock()
	summaries := make([]room.Summary, 0, len(h.rooms))
	for _, r := range h.rooms {
		summaries = append(summaries, r.Summary())
	}
	h.mu.Unlock()

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

// Lookup returns the summary of a live room.
func (h *Hub) Lookup(id string) (room.Summary, bool) {
	r := h.room(id)
	if r == nil {
		return room.Summary{}, false
	}
	return r.Summary(), true
}

// Shutdown stops every room, closes every connection and waits for the
// room goroutines to exit or ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	h.mu.Lock()
	conns := make([]*transport.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.InfoContext(ctx, "Hub stopped", "connections.closed", len(conns))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) room(id string) *room.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[id]
}

// getOrCreateRoom returns the room with id, starting a new one if needed.
func (h *Hub) getOrCreateRoom(ctx context.Context, id string) *room.Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[id]; ok {
		return r
	}

	r := room.New(id, h.opts.Settings, room.Options{
		Router:  h.opts.Router,
		Words:   h.opts.Words,
		Sink:    h.opts.Sink,
		Metrics: h.opts.Metrics,
		OnClose: h.forgetRoom,
		OnEvict: func(connID string) { h.evict(id, connID) },
	})
	h.rooms[id] = r

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		r.Run(h.base)
	}()
	slog.InfoContext(ctx, "Room created", "room.id", id)
	return r
}

// forgetRoom runs on the room's goroutine as it closes.
func (h *Hub) forgetRoom(r *room.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[r.ID] == r {
		delete(h.rooms, r.ID)
	}
}

// evict runs on the room's goroutine for every connection a deletion
// detached.
func (h *Hub) evict(roomID, connID string) {
	h.opts.Sessions.ClearRoom(connID, roomID)
	if id, ok := h.opts.Sessions.Identity(connID); ok && h.opts.Presence != nil {
		go h.setPresenceRoom(context.WithoutCancel(h.base), id.ID, "")
	}
}

func (h *Hub) track(c *transport.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

func (h *Hub) untrack(c *transport.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.ID()] == c {
		delete(h.conns, c.ID())
	}
}

func (h *Hub) closeConn(connID string) {
	h.mu.Lock()
	c := h.conns[connID]
	h.mu.Unlock()
	if c != nil {
		c.Close()
	}
}
