package heartbeat

import (
	"log/slog"
	"time"

	"github.com/darkkD11/CardArena/internal/services/directory"
)

// DefaultInterval is the time between liveness probes
const DefaultInterval = 30 * time.Second

// Monitor probes every open connection and terminates the ones that missed
// the previous probe. A half-open socket never reports a close, so this is
// the only way it gets noticed.
type Monitor struct {
	dir      *directory.Directory
	interval time.Duration
	logger   *slog.Logger
}

// New creates a Monitor over dir
func New(dir *directory.Directory, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		dir:      dir,
		interval: interval,
		logger:   logger.With(slog.String("component", "heartbeat")),
	}
}

// Interval returns the probe interval
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Tick runs one probe round. Connections that did not answer the previous
// probe are closed and returned so the caller can run its disconnect path.
func (m *Monitor) Tick() []directory.Conn {
	var dead []directory.Conn
	for _, conn := range m.dir.All() {
		if !m.dir.Probe(conn) {
			dead = append(dead, conn)
			if err := conn.Close(); err != nil {
				m.logger.Debug("close failed", slog.String("conn", conn.ID()), slog.String("error", err.Error()))
			}
			continue
		}
		if err := conn.Ping(); err != nil {
			m.logger.Debug("ping failed", slog.String("conn", conn.ID()), slog.String("error", err.Error()))
		}
	}

	if len(dead) > 0 {
		m.logger.Info("terminated unresponsive connections", slog.Int("count", len(dead)))
	}
	return dead
}
