package reconnect

import (
	"log/slog"
	"sync"
	"time"

	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/model"
)

// DefaultGracePeriod is how long a disconnected player's seat is held
const DefaultGracePeriod = 60 * time.Second

// Record is a seat held for a player who dropped out of a playing room
type Record struct {
	RoomID         model.RoomID
	DisconnectedAt time.Time
	Member         model.Member

	timer clock.Timer
}

// Manager holds disconnected players until they reclaim their seat or the
// grace period runs out.
type Manager struct {
	mu      sync.Mutex
	records map[model.PlayerID]*Record
	clock   clock.Clock
	grace   time.Duration
	logger  *slog.Logger
}

// New creates a Manager with the given grace period
func New(clock clock.Clock, grace time.Duration, logger *slog.Logger) *Manager {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Manager{
		records: make(map[model.PlayerID]*Record),
		clock:   clock,
		grace:   grace,
		logger:  logger.With(slog.String("component", "reconnect")),
	}
}

// GracePeriod returns the configured grace period
func (m *Manager) GracePeriod() time.Duration {
	return m.grace
}

// Hold stores a record for member and arms its grace timer. onExpire runs
// on the clock's goroutine once the grace period elapses; it is expected to
// hand off to the caller's event loop and call Expire there.
// A record already held for the same player is replaced and its timer stopped.
func (m *Manager) Hold(roomID model.RoomID, member model.Member, onExpire func(model.PlayerID)) *Record {
	member.Disconnected = true
	record := &Record{
		RoomID:         roomID,
		DisconnectedAt: m.clock.Now(),
		Member:         member,
	}

	m.mu.Lock()
	if prev, ok := m.records[member.ID]; ok && prev.timer != nil {
		prev.timer.Stop()
	}
	m.records[member.ID] = record
	m.mu.Unlock()

	playerID := member.ID
	timer := m.clock.AfterFunc(m.grace, func() { onExpire(playerID) })

	m.mu.Lock()
	// The timer may already have fired and the record been consumed.
	if m.records[playerID] == record {
		record.timer = timer
	}
	m.mu.Unlock()

	m.logger.Info("seat held",
		slog.String("player_id", string(playerID)),
		slog.String("room_id", string(roomID)),
		slog.Duration("grace", m.grace))

	return record
}

// Reclaim consumes the record for playerID and stops its grace timer
func (m *Manager) Reclaim(playerID model.PlayerID) (*Record, bool) {
	m.mu.Lock()
	record, ok := m.records[playerID]
	if ok {
		delete(m.records, playerID)
	}
	m.mu.Unlock()

	if !ok {
		return nil, false
	}
	if record.timer != nil {
		record.timer.Stop()
	}
	record.Member.Disconnected = false

	m.logger.Info("seat reclaimed",
		slog.String("player_id", string(playerID)),
		slog.Duration("away", m.clock.Now().Sub(record.DisconnectedAt)))

	return record, true
}

// Expire consumes the record for playerID once its grace period has
// elapsed. It reports false when the player already reclaimed the seat or
// the record was replaced by a newer disconnect.
func (m *Manager) Expire(playerID model.PlayerID) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[playerID]
	if !ok {
		return nil, false
	}
	if m.clock.Now().Sub(record.DisconnectedAt) < m.grace {
		return nil, false
	}
	delete(m.records, playerID)
	return record, true
}

// Drop discards every record held for roomID without firing expiry
func (m *Manager) Drop(roomID model.RoomID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, record := range m.records {
		if record.RoomID != roomID {
			continue
		}
		if record.timer != nil {
			record.timer.Stop()
		}
		delete(m.records, id)
		dropped++
	}
	return dropped
}

// Has reports whether a seat is held for playerID
func (m *Manager) Has(playerID model.PlayerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[playerID]
	return ok
}

// Count returns the number of held seats
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
