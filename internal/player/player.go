package player

import "time"

// PlayerStatus is the connection state of a player within a room.
type PlayerStatus string

const (
	StatusConnected    PlayerStatus = "connected"
	StatusDisconnected PlayerStatus = "disconnected"
)

// Player is one identity's participation in one room. The connection is
// referenced by id only; the transport layer owns it.
type Player struct {
	ID       int64
	Username string
	Score    int
	Ready    bool
	ConnID   string
	Status   PlayerStatus
	LastSeen time.Time
}

// NewPlayer creates a connected player bound to connID.
func NewPlayer(id int64, username, connID string) *Player {
	return &Player{
		ID:       id,
		Username: username,
		ConnID:   connID,
		Status:   StatusConnected,
		LastSeen: time.Now(),
	}
}

// Connected reports whether the player currently has a live connection.
func (p *Player) Connected() bool {
	return p.Status == StatusConnected
}

// Disconnect marks the player as dropped at t.
func (p *Player) Disconnect(t time.Time) {
	p.Status = StatusDisconnected
	p.ConnID = ""
	p.LastSeen = t
}

// Rebind attaches a new connection to the player.
func (p *Player) Rebind(connID string, t time.Time) {
	p.Status = StatusConnected
	p.ConnID = connID
	p.LastSeen = t
}
