// Package ws upgrades HTTP requests to WebSocket connections and pumps
// frames between the sockets and the engine.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/darkkD11/CardArena/internal/services/directory"
)

// Handler receives connection lifecycle events. The engine implements it.
type Handler interface {
	Connect(conn directory.Conn)
	Receive(conn directory.Conn, data []byte)
	Disconnect(conn directory.Conn)
	Alive(conn directory.Conn)
}

// Config holds per-connection limits
type Config struct {
	MaxMessageSize int64
	SendBuffer     int
	WriteWait      time.Duration
}

// DefaultConfig returns default connection limits
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 16 * 1024,
		SendBuffer:     64,
		WriteWait:      10 * time.Second,
	}
}

// Server is the http.Handler for the WebSocket endpoint
type Server struct {
	upgrader websocket.Upgrader
	handler  Handler
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewServer creates a Server delivering events to handler
func NewServer(handler Handler, cfg Config, logger *slog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaults.SendBuffer
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaults.WriteWait
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "ws")),
		clients: make(map[*Client]struct{}),
	}
}

// ServeHTTP upgrades the request and starts the client's pumps
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(uuid.NewString(), conn, s.handler, s.cfg, s.logger)
	s.logger.Debug("websocket connected",
		slog.String("conn", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))

	s.track(client)
	s.handler.Connect(client)
	go client.writePump()
	go func() {
		defer s.untrack(client)
		client.readPump()
	}()
}

func (s *Server) track(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) untrack(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// Open returns the number of upgraded sockets not yet closed
func (s *Server) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// CloseAll sends a going-away close frame to every open socket and waits,
// up to the write wait, for the frames to go out. http.Server does not
// track hijacked connections, so this is registered as a shutdown hook.
func (s *Server) CloseAll() {
	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	if len(clients) == 0 {
		return
	}
	for _, c := range clients {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteWait)
	defer cancel()
	pending := 0
	for _, c := range clients {
		select {
		case <-c.finished:
		case <-ctx.Done():
			pending++
		}
	}
	s.logger.Info("closed websocket connections",
		slog.Int("count", len(clients)),
		slog.Int("unflushed", pending))
}
