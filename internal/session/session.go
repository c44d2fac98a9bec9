package session

import (
	"context"
	"sync"

	"ctchen222/DrawSync/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

// Identity is a verified user.
type Identity struct {
	ID       int64
	Username string
}

//go:generate mockgen -destination=mock_session.go -package=session . TokenVerifier

// TokenVerifier maps an opaque token to an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type entry struct {
	identity *Identity
	roomID   string
}

// Registry tracks, per connection, who is behind it and which room it is in.
// An identity is bound to at most one connection at a time.
type Registry struct {
	verifier TokenVerifier

	mu     sync.Mutex
	conns  map[string]*entry
	owners map[int64]string
}

func NewRegistry(verifier TokenVerifier) *Registry {
	return &Registry{
		verifier: verifier,
		conns:    make(map[string]*entry),
		owners:   make(map[int64]string),
	}
}

// Authenticate resolves token through the verifier. Every failure is
// reported as game.ErrInvalidToken.
func (r *Registry) Authenticate(ctx context.Context, token string) (Identity, error) {
	ctx, span := tracer.Start(ctx, "session.Authenticate")
	defer span.End()

	if token == "" {
		span.SetStatus(codes.Error, "empty token")
		return Identity{}, game.ErrInvalidToken
	}
	id, err := r.verifier.Verify(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token rejected")
		return Identity{}, game.ErrInvalidToken
	}
	span.SetAttributes(attribute.Int64("player.id", id.ID))
	return id, nil
}

// Open registers a new, unauthenticated connection.
func (r *Registry) Open(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &entry{}
}

// Bind attaches identity to connID. If the identity was bound to another
// connection, that connection id is returned so the caller can close it.
func (r *Registry) Bind(ctx context.Context, connID string, identity Identity) (superseded string) {
	_, span := tracer.Start(ctx, "session.Bind", trace.WithAttributes(
		attribute.String("conn.id", connID),
		attribute.Int64("player.id", identity.ID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		e = &entry{}
		r.conns[connID] = e
	}
	if e.identity != nil && e.identity.ID != identity.ID {
		if r.owners[e.identity.ID] == connID {
			delete(r.owners, e.identity.ID)
		}
	}
	if prev, ok := r.owners[identity.ID]; ok && prev != connID {
		superseded = prev
	}
	e.identity = &identity
	r.owners[identity.ID] = connID
	return superseded
}

// Identity returns the identity bound to connID, if any.
func (r *Registry) Identity(connID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[connID]
	if !ok || e.identity == nil {
		return Identity{}, false
	}
	return *e.identity, true
}

// CurrentRoom returns the room connID is a member of, or "".
func (r *Registry) CurrentRoom(connID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[connID]; ok {
		return e.roomID
	}
	return ""
}

// SetRoom records connID's room membership; "" clears it.
func (r *Registry) SetRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[connID]; ok {
		e.roomID = roomID
	}
}

// ClearRoom clears connID's membership only if it still points at roomID.
func (r *Registry) ClearRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[connID]; ok && e.roomID == roomID {
		e.roomID = ""
	}
}

// Unbind forgets connID and returns what it was bound to.
func (r *Registry) Unbind(connID string) (identity *Identity, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil, ""
	}
	delete(r.conns, connID)
	if e.identity != nil && r.owners[e.identity.ID] == connID {
		delete(r.owners, e.identity.ID)
	}
	return e.identity, e.roomID
}

// Bound reports whether identityID currently owns a connection.
func (r *Registry) Bound(identityID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.owners[identityID]
	return ok
}

// Len is the number of open connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
