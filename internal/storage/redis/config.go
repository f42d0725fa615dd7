package redis

import "time"

// Config holds Redis connection settings for the shared rate-limit store
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	PoolSize     int
	MinIdleConns int
	// DialTimeout bounds connecting and the startup ping
	DialTimeout time.Duration

	// KeyPrefix namespaces every key this process writes, so several
	// deployments can share one Redis
	KeyPrefix string
}

// DefaultConfig returns defaults for a local Redis
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		KeyPrefix:    "cardarena",
	}
}
