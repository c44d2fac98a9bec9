package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"ctchen222/DrawSync/internal/api/controller"
	"ctchen222/DrawSync/internal/hub"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/internal/transport"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// API groups the HTTP controllers. Nil controllers are not routed.
type API struct {
	Users    *controller.UserController
	Stats    *controller.StatsController
	Rooms    *controller.RoomController
	Verifier session.TokenVerifier
}

type Server struct {
	hub      *hub.Hub
	api      API
	connOpts []transport.Option
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

// NewServer builds the gin engine. connOpts apply to every client
// connection, websocket or raw TCP.
func NewServer(h *hub.Hub, api API, connOpts ...transport.Option) *Server {
	s := &Server{
		hub:      h,
		api:      api,
		connOpts: connOpts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.engine = s.routes()
	return s
}

// Engine returns the HTTP handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", s.handleWebSocket)
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api")
	if s.api.Users != nil {
		api.POST("/auth/register", s.api.Users.Register)
		api.POST("/auth/login", s.api.Users.Login)
	}
	if s.api.Stats != nil {
		api.GET("/users/:id/stats", s.api.Stats.GetStats)
		api.GET("/leaderboard", s.api.Stats.Leaderboard)
	}
	if s.api.Rooms != nil {
		api.GET("/rooms", s.api.Rooms.List)
		if s.api.Verifier != nil {
			api.DELETE("/rooms/:id", controller.RequireAuth(s.api.Verifier), s.api.Rooms.Delete)
		}
	}
	return r
}

// handleWebSocket upgrades the request and serves the connection until it
// closes. Authentication happens in-band with an authenticate message.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("http.method", c.Request.Method),
	))

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		span.End()
		return
	}
	conn := transport.NewConn(transport.NewWebsocketSocket(ws), s.connOpts...)
	span.SetAttributes(attribute.String("conn.id", conn.ID()))
	span.End()

	s.hub.Serve(context.WithoutCancel(ctx), conn)
}

// ServeSocket accepts newline-delimited JSON clients on ln until ctx is
// cancelled.
func (s *Server) ServeSocket(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	slog.InfoContext(ctx, "Socket server listening", "addr", ln.Addr().String())
	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}
		conn := transport.NewConn(transport.NewLineSocket(raw), s.connOpts...)
		slog.DebugContext(ctx, "Socket client accepted", "conn.id", conn.ID(), "remote.addr", raw.RemoteAddr().String())
		go s.hub.Serve(ctx, conn)
	}
}
