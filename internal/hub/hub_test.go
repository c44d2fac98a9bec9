package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"ctchen222/DrawSync/internal/broadcast"
	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

type tokenVerifier map[string]session.Identity

func (v tokenVerifier) Verify(_ context.Context, token string) (session.Identity, error) {
	id, ok := v[token]
	if !ok {
		return session.Identity{}, game.ErrInvalidToken
	}
	return id, nil
}

type constWords string

func (w constWords) RandomWord(string) string { return string(w) }

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	settings := game.DefaultSettings()
	settings.GraceDelay = time.Hour
	settings.ReconnectGrace = time.Hour

	h := NewHub(Options{
		Settings: settings,
		ServerID: "test",
		Sessions: session.NewRegistry(tokenVerifier{
			"alice-token": {ID: 1, Username: "alice"},
			"bob-token":   {ID: 2, Username: "bob"},
		}),
		Router: broadcast.NewRouter(nil),
		Words:  constWords("apple"),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, h.Shutdown(ctx))
	})
	return h
}

type client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func connect(t *testing.T, h *Hub) *client {
	t.Helper()
	server, cli := net.Pipe()
	go h.Serve(context.Background(), transport.NewConn(transport.NewLineSocket(server)))
	c := &client{t: t, conn: cli, reader: bufio.NewReader(cli)}
	t.Cleanup(func() { cli.Close() })
	return c
}

func (c *client) send(line string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(readTimeout)))
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *client) next() (map[string]any, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, err
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	var msg map[string]any
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// expect reads until a message of type typ arrives, skipping others.
func (c *client) expect(typ string) map[string]any {
	c.t.Helper()
	for range 50 {
		msg, err := c.next()
		require.NoError(c.t, err, "waiting for %s", typ)
		if msg["type"] == typ {
			return msg
		}
	}
	c.t.Fatalf("no %s message", typ)
	return nil
}

func (c *client) expectError(code game.Code) {
	c.t.Helper()
	msg := c.expect("error")
	assert.Equal(c.t, string(code), msg["code"])
}

func (c *client) login(token string) {
	c.t.Helper()
	c.send(`{"type":"authenticate","token":"` + token + `"}`)
	c.expect("authenticated")
}

func TestProtocolErrorsKeepConnectionOpen(t *testing.T) {
	h := newTestHub(t)
	c := connect(t, h)

	c.send(`{"type":"join_room","room_id":"r1"}`)
	c.expectError(game.CodeNotAuthenticated)

	c.send(`{"type":"bogus"}`)
	c.expectError(game.CodeUnknownType)

	c.send(`not json at all`)
	c.send(`{"room_id":"r1"}`)
	c.expectError(game.CodeMalformedMessage)

	c.send(`{"type":"authenticate","token":"wrong"}`)
	c.expectError(game.CodeInvalidToken)

	c.send(`{"type":"authenticate"}`)
	c.expectError(game.CodeMalformedMessage)

	c.login("alice-token")

	c.send(`{"type":"join_room"}`)
	c.expectError(game.CodeMalformedMessage)

	c.send(`{"type":"start_game"}`)
	c.expectError(game.CodeNotInRoom)

	c.send(`{"type":"leave_room"}`)
	c.expectError(game.CodeNotInRoom)

	assert.Empty(t, h.Rooms())
}

func TestGameFlowOverSockets(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h)
	bob := connect(t, h)

	alice.login("alice-token")
	alice.send(`{"type":"join_room","room_id":"r1"}`)
	joined := alice.expect("room_joined")
	assert.Equal(t, "r1", joined["room_id"])

	bob.login("bob-token")
	bob.send(`{"type":"join_room","room_id":"r1"}`)
	bob.expect("room_joined")
	assert.Equal(t, float64(2), alice.expect("player_joined")["user_id"])

	require.Eventually(t, func() bool {
		summary, ok := h.Lookup("r1")
		return ok && summary.Players == 2 && summary.OwnerID == 1
	}, readTimeout, 10*time.Millisecond)

	alice.send(`{"type":"start_game"}`)
	alice.expect("game_started")
	bob.expect("game_started")
	assert.Equal(t, "apple", alice.expect("word_assigned")["word"])
	assert.Equal(t, "_____", bob.expect("word_assigned")["word"])

	bob.send(`{"type":"draw","x":1,"y":2}`)
	bob.send(`{"type":"draw"}`)
	bob.expectError(game.CodeMalformedMessage)

	alice.send(`{"type":"draw","x":1,"y":2,"is_drawing":true}`)
	bob.expect("draw_data")

	bob.send(`{"type":"guess_word","guess":"Apple"}`)
	guess := alice.expect("correct_guess")
	assert.Equal(t, "bob", guess["username"])
	bob.expect("round_ended")

	// Bob drops; he is not drawing, so he stays in the roster for a reconnect.
	require.NoError(t, bob.conn.Close())
	assert.Equal(t, "bob", alice.expect("player_disconnected")["username"])

	bob2 := connect(t, h)
	bob2.login("bob-token")
	bob2.send(`{"type":"join_room","room_id":"r1"}`)
	bob2.expect("room_joined")
	assert.Equal(t, "bob", alice.expect("player_reconnected")["username"])

	alice.send(`{"type":"delete_room"}`)
	alice.expect("room_deleted")
	bob2.expect("room_deleted")
	require.Eventually(t, func() bool { return len(h.Rooms()) == 0 }, readTimeout, 10*time.Millisecond)

	bob2.send(`{"type":"chat_message","message":"hello?"}`)
	bob2.expectError(game.CodeNotInRoom)
}

func TestNonOwnerCannotDelete(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h)
	bob := connect(t, h)

	alice.login("alice-token")
	alice.send(`{"type":"join_room","room_id":"r1"}`)
	alice.expect("room_joined")
	bob.login("bob-token")
	bob.send(`{"type":"join_room","room_id":"r1"}`)
	bob.expect("room_joined")

	bob.send(`{"type":"delete_room"}`)
	bob.expectError(game.CodeNotRoomOwner)
	_, ok := h.Lookup("r1")
	assert.True(t, ok)
}

func TestReauthenticationSupersedesConnection(t *testing.T) {
	h := newTestHub(t)
	first := connect(t, h)
	first.login("alice-token")

	second := connect(t, h)
	second.login("alice-token")

	require.Eventually(t, func() bool {
		_, err := first.next()
		return err != nil && !isTimeout(err)
	}, readTimeout*2, 10*time.Millisecond)

	second.send(`{"type":"join_room","room_id":"r2"}`)
	second.expect("room_joined")
}

func TestSwitchingRoomsLeavesThePreviousOne(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h)
	alice.login("alice-token")

	alice.send(`{"type":"join_room","room_id":"r1"}`)
	alice.expect("room_joined")
	alice.send(`{"type":"join_room","room_id":"r2"}`)
	alice.expect("room_joined")

	require.Eventually(t, func() bool {
		rooms := h.Rooms()
		return len(rooms) == 1 && rooms[0].ID == "r2"
	}, readTimeout, 10*time.Millisecond)
}

func TestRoomDeleteRequestedEvent(t *testing.T) {
	h := newTestHub(t)
	alice := connect(t, h)
	alice.login("alice-token")
	alice.send(`{"type":"join_room","room_id":"r1"}`)
	alice.expect("room_joined")

	ctx := context.Background()
	h.handleEvent(ctx, `{"event":"room_delete_requested","payload":{"room_id":"r1","requested_by":2}}`)
	_, ok := h.Lookup("r1")
	assert.True(t, ok, "non-owner request must be ignored")

	h.handleEvent(ctx, `{"event":"room_delete_requested","payload":{"room_id":"nope","requested_by":1}}`)
	h.handleEvent(ctx, `garbage`)

	h.handleEvent(ctx, `{"event":"room_delete_requested","payload":{"room_id":"r1","requested_by":1}}`)
	alice.expect("room_deleted")
	_, ok = h.Lookup("r1")
	assert.False(t, ok)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
