package transport

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// TextMessage is the only frame kind the engine writes.
	TextMessage = websocket.TextMessage

	// Time allowed to write a frame to a client.
	writeWait = 10 * time.Second

	// Time allowed between pongs before a websocket is considered dead.
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait.
	pingInterval = 50 * time.Second

	// Strokes and chat lines are small; anything larger is hostile.
	maxFrameSize = 64 * 1024
)

// ErrFrameTooLarge is returned when a client sends a line longer than maxFrameSize.
var ErrFrameTooLarge = errors.New("frame too large")

// Socket abstracts a duplex message stream. *websocket.Conn satisfies it
// directly; LineSocket adapts a raw TCP connection.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Pinger is implemented by sockets that need keepalive frames.
type Pinger interface {
	Ping() error
}

// LineSocket frames a byte stream as newline-delimited messages.
type LineSocket struct {
	conn    net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex
}

// NewLineSocket wraps a raw stream connection.
func NewLineSocket(conn net.Conn) *LineSocket {
	return &LineSocket{conn: conn, reader: bufio.NewReaderSize(conn, 4096)}
}

// ReadMessage returns the next complete line without its terminator being
// interpreted. A trailing partial line at end of stream is discarded.
func (s *LineSocket) ReadMessage() (int, []byte, error) {
	var frame []byte
	for {
		chunk, err := s.reader.ReadSlice('\n')
		frame = append(frame, chunk...)
		if err == nil {
			return TextMessage, frame, nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(frame) > maxFrameSize {
				return 0, nil, ErrFrameTooLarge
			}
			continue
		}
		return 0, nil, err
	}
}

// WriteMessage writes data followed by a newline.
func (s *LineSocket) WriteMessage(_ int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')
	_, err := s.conn.Write(frame)
	return err
}

func (s *LineSocket) Close() error {
	return s.conn.Close()
}

// WebsocketSocket adds read limits and ping/pong deadlines to a websocket.
type WebsocketSocket struct {
	*websocket.Conn
}

// NewWebsocketSocket configures conn for long-lived game traffic.
func NewWebsocketSocket(conn *websocket.Conn) *WebsocketSocket {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &WebsocketSocket{Conn: conn}
}

func (s *WebsocketSocket) WriteMessage(messageType int, data []byte) error {
	if err := s.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.Conn.WriteMessage(messageType, data)
}

func (s *WebsocketSocket) Ping() error {
	if err := s.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.Conn.WriteMessage(websocket.PingMessage, nil)
}
