package response

import (
	"runtime"
	"time"

	"github.com/darkkD11/CardArena/internal/engine"
	"github.com/darkkD11/CardArena/internal/protocol"
	"github.com/darkkD11/CardArena/internal/services/sweeper"
)

// Health is the liveness response
type Health struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Memory reports Go runtime memory usage
type Memory struct {
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapInuse  uint64 `json:"heap_inuse"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// ReadMemory samples the runtime's memory statistics
func ReadMemory() Memory {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Memory{
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		Sys:        ms.Sys,
		NumGC:      ms.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}

// Stats is the /stats response
type Stats struct {
	engine.Stats
	UptimeSeconds int64  `json:"uptime_seconds"`
	Memory        Memory `json:"memory"`
}

// NewStats combines engine counters with process information
func NewStats(s engine.Stats, uptime time.Duration) Stats {
	return Stats{
		Stats:         s,
		UptimeSeconds: int64(uptime.Seconds()),
		Memory:        ReadMemory(),
	}
}

// Cleanup is the /debug/cleanup response
type Cleanup struct {
	Report sweeper.Report `json:"report"`
	After  engine.Stats   `json:"after"`
}

// Rooms is the public room list
type Rooms struct {
	Rooms []protocol.Room `json:"rooms"`
}

// Room wraps a single room view
type Room struct {
	Room    protocol.Room `json:"room"`
	JoinURL string        `json:"join_url"`
}
