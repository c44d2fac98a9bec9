package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/validator"
	"ctchen222/DrawSync/pkg/proto"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const sendBufferSize = 256

var (
	ErrClosed         = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is one client's message stream: a lazy sequence of inbound messages
// and a buffered, non-blocking outbound queue drained by WritePump.
type Conn struct {
	id      string
	socket  Socket
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	pending [][]byte
}

// Option configures a Conn.
type Option func(*Conn)

// WithRateLimit drops inbound messages beyond limit per second with burst.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Conn) {
		if limit > 0 {
			c.limiter = rate.NewLimiter(limit, burst)
		}
	}
}

// WithSendBuffer overrides the outbound queue length.
func WithSendBuffer(n int) Option {
	return func(c *Conn) {
		c.send = make(chan []byte, n)
	}
}

// NewConn wraps socket with a fresh connection id.
func NewConn(socket Socket, opts ...Option) *Conn {
	c := &Conn{
		id:     uuid.NewString(),
		socket: socket,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Conn) ID() string {
	return c.id
}

// Done is closed once the connection has been torn down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// ReceiveNext blocks until the next well-formed message. Unparseable frames
// are logged and skipped. A frame that parses but lacks a type yields an
// error matching game.ErrMalformedMessage; the stream stays usable. Any other
// error, io.EOF included, ends the stream.
func (c *Conn) ReceiveNext() (*proto.ClientMessage, error) {
	for {
		frame, err := c.nextFrame()
		if err != nil {
			return nil, err
		}

		if c.limiter != nil && !c.limiter.Allow() {
			slog.Debug("rate limit exceeded, dropping frame", "conn.id", c.id)
			continue
		}

		var msg proto.ClientMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			slog.Warn("dropping unparseable frame", "conn.id", c.id, "error", err)
			continue
		}
		if err := validator.GetValidator().Struct(msg); err != nil {
			return nil, game.ErrMalformedMessage.WithMessage("message type is required")
		}
		return &msg, nil
	}
}

func (c *Conn) nextFrame() ([]byte, error) {
	for len(c.pending) == 0 {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil, io.EOF
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %w", game.ErrTransport, err)
		}
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if line = bytes.TrimSpace(line); len(line) > 0 {
				c.pending = append(c.pending, line)
			}
		}
	}
	frame := c.pending[0]
	c.pending = c.pending[1:]
	return frame, nil
}

// Send serializes msg and queues it without blocking.
func (c *Conn) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.Enqueue(data)
}

// Enqueue queues an already-serialized frame. It never blocks: a full queue
// returns ErrSendBufferFull and the caller is expected to drop the client.
func (c *Conn) Enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrSendBufferFull
	}
}

// WritePump is the only writer to the socket. It returns when the
// connection is closed or a write fails.
func (c *Conn) WritePump() {
	var ping <-chan time.Time
	pinger, canPing := c.socket.(Pinger)
	if canPing {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.socket.WriteMessage(TextMessage, data); err != nil {
				slog.Warn("write failed, closing connection", "conn.id", c.id, "error", err)
				c.Close()
				return
			}
		case <-ping:
			if err := pinger.Ping(); err != nil {
				slog.Warn("ping failed, closing connection", "conn.id", c.id, "error", err)
				c.Close()
				return
			}
		}
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		if err := c.socket.Close(); err != nil {
			slog.Debug("socket close", "conn.id", c.id, "error", err)
		}
	})
}
