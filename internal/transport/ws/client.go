package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeWait bounds the final flush once a client is closed
const closeWait = time.Second

var (
	// ErrClosed is returned when sending to a closed client
	ErrClosed = errors.New("connection closed")
	// ErrSlowConsumer is returned when a client's send buffer is full
	ErrSlowConsumer = errors.New("send buffer full")
)

// Client is one upgraded socket. It satisfies directory.Conn.
type Client struct {
	id      string
	conn    *websocket.Conn
	handler Handler
	cfg     Config
	logger  *slog.Logger

	send      chan []byte
	ping      chan struct{}
	done      chan struct{}
	finished  chan struct{} // closed when writePump has released the socket
	closeMsg  []byte
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, handler Handler, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		id:       id,
		conn:     conn,
		handler:  handler,
		cfg:      cfg,
		logger:   logger.With(slog.String("conn", id)),
		send:     make(chan []byte, cfg.SendBuffer),
		ping:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// ID returns the socket identifier
func (c *Client) ID() string {
	return c.id
}

// Send queues a text frame. A client that cannot keep up is closed.
func (c *Client) Send(data []byte) error {
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
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrSlowConsumer
	}
}

// Ping asks the write pump for a ping frame. A ping already pending is
// not doubled up.
func (c *Client) Ping() error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.ping <- struct{}{}:
	default:
	}
	return nil
}

// Close hands the socket to the write pump, which flushes queued frames,
// sends a close frame and tears it down. The read pump then reports the
// disconnect.
func (c *Client) Close() error {
	c.closeWith(websocket.CloseNormalClosure, "")
	return nil
}

func (c *Client) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeMsg = websocket.FormatCloseMessage(code, reason)
		close(c.done)
	})
}

func (c *Client) readPump() {
	defer func() {
		c.handler.Disconnect(c)
		_ = c.Close()
	}()

	// Liveness is the heartbeat monitor's job; drop any deadline left by the HTTP server.
	_ = c.conn.SetReadDeadline(time.Time{})
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.handler.Alive(c)
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}
		if messageType == websocket.TextMessage {
			c.handler.Receive(c, data)
		}
	}
}

// writePump is the only goroutine that writes to the socket
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
		close(c.finished)
	}()

	for {
		select {
		case <-c.done:
			c.flush()
			return
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", slog.String("error", err.Error()))
				_ = c.Close()
				return
			}
		case <-c.ping:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", slog.String("error", err.Error()))
				_ = c.Close()
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// flush writes what is still queued followed by the close frame
func (c *Client) flush() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(closeWait))
	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			_ = c.conn.WriteMessage(websocket.CloseMessage, c.closeMsg)
			return
		}
	}
}
