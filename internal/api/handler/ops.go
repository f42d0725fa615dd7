package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/darkkD11/CardArena/internal/api/apierr"
	"github.com/darkkD11/CardArena/internal/api/response"
	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/engine"
	"github.com/darkkD11/CardArena/internal/protocol"
	"github.com/darkkD11/CardArena/internal/services/sweeper"
)

// Engine is the slice of the engine the HTTP surface reads from
type Engine interface {
	Stats(ctx context.Context) (engine.Stats, error)
	RunSweep(ctx context.Context) (sweeper.Report, error)
	Lobby(ctx context.Context) (protocol.RoomsList, error)
	Room(ctx context.Context, ref string) (protocol.Room, error)
}

// OpsHandler serves the operational endpoints
type OpsHandler struct {
	engine    Engine
	clock     clock.Clock
	startedAt time.Time
}

// NewOpsHandler creates a new OpsHandler. Uptime is measured from now.
func NewOpsHandler(engine Engine, clock clock.Clock) *OpsHandler {
	return &OpsHandler{
		engine:    engine,
		clock:     clock,
		startedAt: clock.Now(),
	}
}

func (h *OpsHandler) uptime() time.Duration {
	return h.clock.Now().Sub(h.startedAt)
}

// Health handles GET /health
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:        "ok",
		UptimeSeconds: int64(h.uptime().Seconds()),
	})
}

// Stats handles GET /stats
func (h *OpsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.NewStats(stats, h.uptime()))
}

// Cleanup handles POST|GET /debug/cleanup by running a sweep immediately
func (h *OpsHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.RunSweep(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Cleanup{Report: report, After: stats})
}
