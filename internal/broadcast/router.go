package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"ctchen222/DrawSync/internal/telemetry"
)

// Conn is the outbound half of a client connection.
type Conn interface {
	ID() string
	Enqueue(data []byte) error
	Close()
}

// Router fans messages out to the connections attached to a room. Sends
// never block: a connection whose queue is full or closed is dropped and
// torn down in the background while delivery to everyone else continues.
type Router struct {
	metrics *telemetry.Metrics

	mu      sync.RWMutex
	conns   map[string]Conn
	members map[string]map[string]struct{}
	order   map[string][]string
}

func NewRouter(metrics *telemetry.Metrics) *Router {
	return &Router{
		metrics: metrics,
		conns:   make(map[string]Conn),
		members: make(map[string]map[string]struct{}),
		order:   make(map[string][]string),
	}
}

// Register makes conn addressable by its id.
func (r *Router) Register(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
}

// Unregister forgets connID everywhere.
func (r *Router) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
	for roomID := range r.members {
		r.detachLocked(roomID, connID)
	}
}

// Attach adds connID to roomID's audience.
func (r *Router) Attach(roomID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[roomID]
	if !ok {
		set = make(map[string]struct{})
		r.members[roomID] = set
	}
	if _, ok := set[connID]; ok {
		return
	}
	set[connID] = struct{}{}
	r.order[roomID] = append(r.order[roomID], connID)
}

// Detach removes connID from roomID's audience.
func (r *Router) Detach(roomID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detachLocked(roomID, connID)
}

func (r *Router) detachLocked(roomID, connID string) {
	set, ok := r.members[roomID]
	if !ok {
		return
	}
	if _, ok := set[connID]; !ok {
		return
	}
	delete(set, connID)
	ids := r.order[roomID]
	for i, id := range ids {
		if id == connID {
			r.order[roomID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(set) == 0 {
		delete(r.members, roomID)
		delete(r.order, roomID)
	}
}

// Members returns the connection ids attached to roomID in attach order.
func (r *Router) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order[roomID]...)
}

// Broadcast serializes msg once and queues it for every connection in
// roomID except the one named by except ("" for none).
func (r *Router) Broadcast(ctx context.Context, roomID string, msg any, except string) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal broadcast", "room.id", roomID, "error", err)
		return
	}

	r.mu.RLock()
	targets := make([]Conn, 0, len(r.order[roomID]))
	for _, id := range r.order[roomID] {
		if id == except {
			continue
		}
		if c, ok := r.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		r.deliver(ctx, c, data)
	}
}

// SendPrivate queues msg for a single connection.
func (r *Router) SendPrivate(ctx context.Context, connID string, msg any) {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		slog.DebugContext(ctx, "Private send to unknown connection", "conn.id", connID)
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal private message", "conn.id", connID, "error", err)
		return
	}
	r.deliver(ctx, c, data)
}

func (r *Router) deliver(ctx context.Context, c Conn, data []byte) {
	if err := c.Enqueue(data); err != nil {
		slog.WarnContext(ctx, "Dropping connection after failed send", "conn.id", c.ID(), "error", err)
		r.metrics.SendDropped(ctx)
		go c.Close()
	}
}
