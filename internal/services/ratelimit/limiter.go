package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/storage"
)

// Config holds the fixed-window limits
type Config struct {
	Window time.Duration
	Max    int
}

// DefaultConfig returns 20 messages per second
func DefaultConfig() Config {
	return Config{
		Window: time.Second,
		Max:    20,
	}
}

// Limiter admits at most Max messages per player within each fixed window
type Limiter struct {
	store  storage.RateLimitStore
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// New creates a Limiter backed by store
func New(store storage.RateLimitStore, clock clock.Clock, cfg Config, logger *slog.Logger) *Limiter {
	defaults := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.Max <= 0 {
		cfg.Max = defaults.Max
	}
	return &Limiter{
		store:  store,
		clock:  clock,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ratelimit")),
	}
}

// Allow counts one message from playerID and reports whether it is admitted.
// If the store is unreachable the message is admitted.
func (l *Limiter) Allow(ctx context.Context, playerID model.PlayerID) bool {
	hit, err := l.store.Hit(ctx, string(playerID), l.clock.Now(), l.cfg.Window, l.cfg.Max)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()))
		return true
	}
	if !hit.Allowed {
		l.logger.Debug("rate limited",
			slog.String("player_id", string(playerID)),
			slog.Int("count", hit.Count))
		return false
	}
	return true
}

// Forget drops playerID's window
func (l *Limiter) Forget(ctx context.Context, playerID model.PlayerID) {
	if err := l.store.Forget(ctx, string(playerID)); err != nil {
		l.logger.Warn("failed to forget rate limit window",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()))
	}
}

// PurgeStale drops windows that reset more than olderThan ago
func (l *Limiter) PurgeStale(ctx context.Context, olderThan time.Duration) (int, error) {
	return l.store.Purge(ctx, l.clock.Now().Add(-olderThan))
}

// Count returns the number of tracked windows
func (l *Limiter) Count(ctx context.Context) (int, error) {
	return l.store.Count(ctx)
}
