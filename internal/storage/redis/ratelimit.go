package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darkkD11/CardArena/internal/storage"
)

// hitScript counts one message and arms the window expiry on the first hit.
//
// KEYS[1]: counter key
// ARGV[1]: window length in milliseconds
//
// Returns {count, remaining window in milliseconds}.
// KEYS[1] counter, ARGV[1] window in ms, ARGV[2] limit. Returns {count, ttl, allowed}.
var hitScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local allowed = 0
if count < tonumber(ARGV[2]) then
    count = redis.call('INCR', KEYS[1])
    allowed = 1
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
elseif ttl < 0 then
    ttl = tonumber(ARGV[1])
end
return {count, ttl, allowed}
`)

// RateLimits keeps fixed-window counters in Redis. Windows end through key
// expiry, so Purge has nothing to do.
type RateLimits struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection
func New(cfg Config) (*RateLimits, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultConfig().DialTimeout
	}
	opts.DialTimeout = dialTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *RateLimits {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &RateLimits{client: client, prefix: prefix}
}

// Close closes the Redis connection
func (r *RateLimits) Close() error {
	return r.client.Close()
}

// Ensure RateLimits implements the interface
var _ storage.RateLimitStore = (*RateLimits)(nil)

func (r *RateLimits) Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (storage.HitResult, error) {
	res, err := hitScript.Run(ctx, r.client, []string{r.key(key)}, window.Milliseconds(), limit).Int64Slice()
	if err != nil {
		return storage.HitResult{}, fmt.Errorf("rate limit hit: %w", err)
	}
	if len(res) != 3 {
		return storage.HitResult{}, fmt.Errorf("rate limit hit: unexpected reply %v", res)
	}
	return storage.HitResult{
		Count:   int(res[0]),
		Reset:   now.Add(time.Duration(res[1]) * time.Millisecond),
		Allowed: res[2] == 1,
	}, nil
}

func (r *RateLimits) Forget(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RateLimits) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (r *RateLimits) Count(ctx context.Context) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, r.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("rate limit count: %w", err)
	}
	return count, nil
}

func (r *RateLimits) key(playerKey string) string {
	return fmt.Sprintf("%s:ratelimit:%s", r.prefix, playerKey)
}
