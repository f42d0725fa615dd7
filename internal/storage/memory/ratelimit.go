package memory

import (
	"context"
	"sync"
	"time"

	"github.com/darkkD11/CardArena/internal/storage"
)

type window struct {
	count int
	reset time.Time
}

// RateLimits is an in-memory fixed-window counter table
type RateLimits struct {
	mu      sync.Mutex
	windows map[string]*window
}

// NewRateLimits creates an empty counter table
func NewRateLimits() *RateLimits {
	return &RateLimits{windows: make(map[string]*window)}
}

// Ensure RateLimits implements the interface
var _ storage.RateLimitStore = (*RateLimits)(nil)

func (r *RateLimits) Hit(ctx context.Context, key string, now time.Time, length time.Duration, limit int) (storage.HitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(length)}
		r.windows[key] = w
	}
	if w.count >= limit {
		return storage.HitResult{Count: w.count, Reset: w.reset}, nil
	}
	w.count++
	return storage.HitResult{Count: w.count, Reset: w.reset, Allowed: true}, nil
}

func (r *RateLimits) Forget(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.windows, key)
	return nil
}

func (r *RateLimits) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for key, w := range r.windows {
		if w.reset.Before(cutoff) {
			delete(r.windows, key)
			purged++
		}
	}
	return purged, nil
}

func (r *RateLimits) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows), nil
}
