package testutil

import (
	"encoding/json"
	"errors"
	"sync"
)

// ErrConnClosed is returned by FakeConn.Send after Close
var ErrConnClosed = errors.New("connection closed")

// FakeConn records frames, probes and closes for assertions
type FakeConn struct {
	Name string

	mu     sync.Mutex
	sent   [][]byte
	pings  int
	closed bool
}

// NewFakeConn creates a FakeConn with the given name
func NewFakeConn(name string) *FakeConn {
	return &FakeConn{Name: name}
}

// ID returns the connection name
func (c *FakeConn) ID() string { return c.Name }

// Send records data unless the connection is closed
func (c *FakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

// Ping counts a probe
func (c *FakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.pings++
	return nil
}

// Close marks the connection closed
func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Pings returns the number of probes received
func (c *FakeConn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

// Frames returns the raw frames sent so far
func (c *FakeConn) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

// Message is a decoded outbound frame
type Message map[string]any

// Type returns the frame's type field
func (m Message) Type() string {
	t, _ := m["type"].(string)
	return t
}

// Messages decodes every frame sent so far
func (c *FakeConn) Messages() []Message {
	frames := c.Frames()
	out := make([]Message, 0, len(frames))
	for _, f := range frames {
		var m Message
		if err := json.Unmarshal(f, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// Types returns the type of every frame sent so far
func (c *FakeConn) Types() []string {
	msgs := c.Messages()
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i] = m.Type()
	}
	return types
}

// Last returns the most recent frame of the given type
func (c *FakeConn) Last(msgType string) (Message, bool) {
	msgs := c.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type() == msgType {
			return msgs[i], true
		}
	}
	return nil, false
}

// Reset forgets recorded frames
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}
