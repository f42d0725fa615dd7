// Package directory tracks open connections and which player each one speaks for.
package directory

import (
	"log/slog"
	"sync"

	"github.com/darkkD11/CardArena/internal/model"
)

// Conn is an open client connection
type Conn interface {
	// ID identifies the socket for logging
	ID() string
	// Send queues a text frame
	Send(data []byte) error
	// Ping sends a liveness probe
	Ping() error
	// Close terminates the socket
	Close() error
}

// Binding is the identity attached to a connection after identify
type Binding struct {
	PlayerID     model.PlayerID
	ConnectionID string
	Name         string
}

type entry struct {
	binding *Binding
	alive   bool
}

// Directory maps connections to players and back
type Directory struct {
	mu      sync.RWMutex
	conns   map[Conn]*entry
	players map[model.PlayerID]Conn
	logger  *slog.Logger
}

// New creates an empty Directory
func New(logger *slog.Logger) *Directory {
	return &Directory{
		conns:   make(map[Conn]*entry),
		players: make(map[model.PlayerID]Conn),
		logger:  logger.With(slog.String("component", "directory")),
	}
}

// Add registers a freshly opened, unidentified connection
func (d *Directory) Add(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.conns[conn]; !ok {
		d.conns[conn] = &entry{alive: true}
	}
}

// Bind attaches a player identity to conn. If the player was bound to a
// different connection, that connection loses its identity and is returned;
// its socket is left open.
func (d *Directory) Bind(conn Conn, playerID model.PlayerID, connectionID, name string) Conn {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.conns[conn]
	if !ok {
		e = &entry{alive: true}
		d.conns[conn] = e
	}
	if e.binding != nil && e.binding.PlayerID != playerID && d.players[e.binding.PlayerID] == conn {
		delete(d.players, e.binding.PlayerID)
	}

	var orphaned Conn
	if old, ok := d.players[playerID]; ok && old != conn {
		if oldEntry, ok := d.conns[old]; ok {
			oldEntry.binding = nil
		}
		orphaned = old
		d.logger.Info("connection orphaned by newer identify",
			slog.String("player_id", string(playerID)),
			slog.String("conn", old.ID()))
	}

	e.binding = &Binding{PlayerID: playerID, ConnectionID: connectionID, Name: name}
	d.players[playerID] = conn
	return orphaned
}

// Resolve returns the connection currently bound to playerID
func (d *Directory) Resolve(playerID model.PlayerID) (Conn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, ok := d.players[playerID]
	return conn, ok
}

// Lookup returns the identity bound to conn, if any
func (d *Directory) Lookup(conn Conn) (Binding, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.conns[conn]
	if !ok || e.binding == nil {
		return Binding{}, false
	}
	return *e.binding, true
}

// Unbind forgets conn entirely, returning the identity it held
func (d *Directory) Unbind(conn Conn) (Binding, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.conns[conn]
	if !ok {
		return Binding{}, false
	}
	delete(d.conns, conn)
	if e.binding == nil {
		return Binding{}, false
	}
	if d.players[e.binding.PlayerID] == conn {
		delete(d.players, e.binding.PlayerID)
	}
	return *e.binding, true
}

// MarkAlive records a liveness response from conn
func (d *Directory) MarkAlive(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.conns[conn]; ok {
		e.alive = true
	}
}

// Probe clears conn's liveness flag and reports whether it was set
func (d *Directory) Probe(conn Conn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.conns[conn]
	if !ok {
		return false
	}
	wasAlive := e.alive
	e.alive = false
	return wasAlive
}

// SendTo delivers data to playerID's connection. Send failures are logged and dropped.
func (d *Directory) SendTo(playerID model.PlayerID, data []byte) bool {
	conn, ok := d.Resolve(playerID)
	if !ok {
		return false
	}
	d.deliver(conn, data)
	return true
}

// SendConn delivers data to a specific connection, dropping failures
func (d *Directory) SendConn(conn Conn, data []byte) {
	d.deliver(conn, data)
}

// Broadcast delivers data to every open connection, identified or not
func (d *Directory) Broadcast(data []byte) {
	for _, conn := range d.All() {
		d.deliver(conn, data)
	}
}

func (d *Directory) deliver(conn Conn, data []byte) {
	if err := conn.Send(data); err != nil {
		d.logger.Debug("send failed", slog.String("conn", conn.ID()), slog.String("error", err.Error()))
	}
}

// All returns a snapshot of open connections
func (d *Directory) All() []Conn {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conns := make([]Conn, 0, len(d.conns))
	for conn := range d.conns {
		conns = append(conns, conn)
	}
	return conns
}

// Count returns the number of open connections
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}

// PlayerCount returns the number of identified players
func (d *Directory) PlayerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.players)
}
