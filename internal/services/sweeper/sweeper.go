// Package sweeper reclaims idle rooms, stale games, rate-limit windows and sessions.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/services/game"
	"github.com/darkkD11/CardArena/internal/services/ratelimit"
	"github.com/darkkD11/CardArena/internal/services/reconnect"
	"github.com/darkkD11/CardArena/internal/services/room"
	"github.com/darkkD11/CardArena/internal/services/session"
)

// Config holds sweep thresholds and timing
type Config struct {
	InitialDelay    time.Duration
	Interval        time.Duration
	IdleRoomTimeout time.Duration
	StaleGameAge    time.Duration
	RateLimitMaxAge time.Duration
	SessionTimeout  time.Duration
}

// DefaultConfig returns default sweep settings
func DefaultConfig() Config {
	return Config{
		InitialDelay:    time.Minute,
		Interval:        time.Hour,
		IdleRoomTimeout: 30 * time.Minute,
		StaleGameAge:    24 * time.Hour,
		RateLimitMaxAge: 5 * time.Minute,
		SessionTimeout:  24 * time.Hour,
	}
}

// Report summarises one sweep
type Report struct {
	RoomsDeleted     int `json:"rooms_deleted"`
	GamesDropped     int `json:"games_dropped"`
	RateLimitsPurged int `json:"rate_limits_purged"`
	SessionsExpired  int `json:"sessions_expired"`
	SeatsReleased    int `json:"seats_released"`
}

// Sweeper runs maintenance passes. It is not safe to run concurrently with
// room mutations; the engine calls it from its own loop.
type Sweeper struct {
	rooms    room.ControllerInterface
	games    game.ControllerInterface
	limiter  *ratelimit.Limiter
	sessions *session.Service
	seats    *reconnect.Manager
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
}

// New creates a Sweeper
func New(
	rooms room.ControllerInterface,
	games game.ControllerInterface,
	limiter *ratelimit.Limiter,
	sessions *session.Service,
	seats *reconnect.Manager,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		rooms:    rooms,
		games:    games,
		limiter:  limiter,
		sessions: sessions,
		seats:    seats,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
}

// Config returns the sweep settings
func (s *Sweeper) Config() Config {
	return s.cfg
}

// Sweep runs one maintenance pass. A failing step is logged and the
// remaining steps still run.
func (s *Sweeper) Sweep(ctx context.Context) Report {
	var report Report

	report.RoomsDeleted, report.SeatsReleased = s.sweepIdleRooms(ctx)

	dropped, err := s.games.DropStale(ctx, s.cfg.StaleGameAge)
	if err != nil {
		s.logger.Error("failed to drop stale games", slog.String("error", err.Error()))
	}
	report.GamesDropped = dropped

	purged, err := s.limiter.PurgeStale(ctx, s.cfg.RateLimitMaxAge)
	if err != nil {
		s.logger.Error("failed to purge rate limits", slog.String("error", err.Error()))
	}
	report.RateLimitsPurged = purged

	report.SessionsExpired = s.sessions.ExpireInactive(s.cfg.SessionTimeout)

	s.logger.Info("sweep complete",
		slog.Int("rooms_deleted", report.RoomsDeleted),
		slog.Int("games_dropped", report.GamesDropped),
		slog.Int("rate_limits_purged", report.RateLimitsPurged),
		slog.Int("sessions_expired", report.SessionsExpired))

	return report
}

// sweepIdleRooms deletes rooms without human members that outlived the idle timeout
func (s *Sweeper) sweepIdleRooms(ctx context.Context) (deleted, released int) {
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		s.logger.Error("failed to list rooms", slog.String("error", err.Error()))
		return 0, 0
	}

	cutoff := s.clock.Now().Add(-s.cfg.IdleRoomTimeout)
	for _, r := range rooms {
		if r.HumanCount() > 0 || !r.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.rooms.Delete(ctx, r.ID); err != nil {
			s.logger.Error("failed to delete idle room",
				slog.String("room_id", string(r.ID)),
				slog.String("error", err.Error()))
			continue
		}
		released += s.seats.Drop(r.ID)
		deleted++
	}
	return deleted, released
}
