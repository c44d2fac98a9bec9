package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/pkg/proto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newPipeConn(t *testing.T, opts ...Option) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	c := NewConn(NewLineSocket(server), opts...)
	t.Cleanup(func() {
		c.Close()
		client.Close()
	})
	return c, client
}

func writeAsync(client net.Conn, data string) {
	go func() { _, _ = client.Write([]byte(data)) }()
}

func TestReceiveNext_SplitsLinesAndSkipsGarbage(t *testing.T) {
	c, client := newPipeConn(t)
	writeAsync(client, "{\"type\":\"ready\",\"ready\":true}\nnot json\n\n{\"type\":\"chat_message\",\"message\":\"hi\"}\n")

	msg, err := c.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, proto.TypeReady, msg.Type)
	assert.True(t, msg.Ready)

	msg, err = c.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, proto.TypeChatMessage, msg.Type)
	assert.Equal(t, "hi", msg.Message)
}

func TestReceiveNext_MissingTypeIsMalformed(t *testing.T) {
	c, client := newPipeConn(t)
	writeAsync(client, "{\"room_id\":\"r1\"}\n{\"type\":\"leave_room\"}\n")

	_, err := c.ReceiveNext()
	require.Error(t, err)
	assert.True(t, errors.Is(err, game.ErrMalformedMessage))

	msg, err := c.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, proto.TypeLeaveRoom, msg.Type)
}

func TestReceiveNext_EndOfStream(t *testing.T) {
	c, client := newPipeConn(t)
	go func() {
		_, _ = client.Write([]byte("{\"type\":\"ready\"}\n{\"type\":\"partial\""))
		client.Close()
	}()

	msg, err := c.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, proto.TypeReady, msg.Type)

	_, err = c.ReceiveNext()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReceiveNext_RateLimited(t *testing.T) {
	c, client := newPipeConn(t, WithRateLimit(rate.Every(time.Hour), 1))
	go func() {
		_, _ = client.Write([]byte("{\"type\":\"chat_message\",\"message\":\"one\"}\n{\"type\":\"chat_message\",\"message\":\"two\"}\n"))
		client.Close()
	}()

	msg, err := c.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, "one", msg.Message)

	_, err = c.ReceiveNext()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWritePump_DeliversNewlineFramedJSON(t *testing.T) {
	c, client := newPipeConn(t)
	go c.WritePump()

	require.NoError(t, c.Send(proto.NewTimeUpdate(42)))

	reader := bufio.NewReader(client)
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"time_update","time_remaining":42}`, line[:len(line)-1])
}

func TestEnqueue_FullBufferDoesNotBlock(t *testing.T) {
	c, _ := newPipeConn(t, WithSendBuffer(1))

	require.NoError(t, c.Enqueue([]byte("a")))
	assert.ErrorIs(t, c.Enqueue([]byte("b")), ErrSendBufferFull)
}

func TestClose_IsIdempotent(t *testing.T) {
	c, _ := newPipeConn(t)
	c.Close()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
	assert.ErrorIs(t, c.Enqueue([]byte("x")), ErrClosed)
	_, err := c.ReceiveNext()
	assert.ErrorIs(t, err, io.EOF)
}
