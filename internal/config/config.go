// Package config loads server settings from flags, CARDARENA_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darkkD11/CardArena/internal/api"
	"github.com/darkkD11/CardArena/internal/engine"
	"github.com/darkkD11/CardArena/internal/services/ratelimit"
	"github.com/darkkD11/CardArena/internal/services/reconnect"
	"github.com/darkkD11/CardArena/internal/services/room"
	"github.com/darkkD11/CardArena/internal/services/session"
	"github.com/darkkD11/CardArena/internal/services/sweeper"
	redisstorage "github.com/darkkD11/CardArena/internal/storage/redis"
	"github.com/darkkD11/CardArena/internal/transport/ws"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "CARDARENA"

// Rate-limit store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the complete server configuration
type Config struct {
	Server     api.ServerConfig
	PublicURL  string
	AdminToken string

	LogLevel  string
	LogFormat string

	Engine    engine.Config
	Session   session.Config
	Room      room.Config
	RateLimit ratelimit.Config
	WebSocket ws.Config
	Sweep     sweeper.Config

	RateLimitStore string
	Redis          redisstorage.Config

	HeartbeatInterval time.Duration
	GracePeriod       time.Duration
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Server:            api.DefaultServerConfig(),
		LogLevel:          "info",
		LogFormat:         "json",
		Engine:            engine.DefaultConfig(),
		Session:           session.DefaultConfig(),
		Room:              room.DefaultConfig(),
		RateLimit:         ratelimit.DefaultConfig(),
		WebSocket:         ws.DefaultConfig(),
		Sweep:             sweeper.DefaultConfig(),
		RateLimitStore:    StoreMemory,
		Redis:             redisstorage.DefaultConfig(),
		HeartbeatInterval: 30 * time.Second,
		GracePeriod:       reconnect.DefaultGracePeriod,
	}
}

// RegisterFlags defines a flag for every setting, defaulted from Default
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.String("config", "", "path to a YAML config file (env: CARDARENA_CONFIG)")

	fs.String("host", d.Server.Host, "address to bind to")
	fs.IntP("port", "p", d.Server.Port, "port to listen on")
	fs.Duration("shutdown-timeout", d.Server.ShutdownTimeout, "time allowed for in-flight requests on shutdown")
	fs.String("public-url", d.PublicURL, "base URL players open to join, used in QR codes")
	fs.String("admin-token", d.AdminToken, "bearer token required by /debug endpoints; empty leaves them open")

	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: json, text")

	fs.Int("name-max-length", d.Engine.NameMaxLength, "maximum player name length")
	fs.Int("chat-max-length", d.Engine.ChatMaxLength, "maximum chat message length")
	fs.Int("event-buffer", d.Engine.EventBuffer, "capacity of the engine event queue")
	fs.Int("room-name-max-length", d.Room.RoomNameMaxLength, "maximum room name length")
	fs.Int("password-max-length", d.Room.PasswordMaxLength, "maximum room password length")
	fs.Int("min-players", d.Room.MinPlayers, "smallest allowed room capacity")
	fs.Int("max-players", d.Room.MaxPlayers, "largest allowed room capacity")
	fs.Int("max-rooms", d.Room.MaxRooms, "maximum number of concurrent rooms")
	fs.Int("bcrypt-cost", d.Room.BcryptCost, "bcrypt cost for room passwords")

	fs.Duration("session-timeout", d.Session.SessionTimeout, "inactivity after which sessions are expired")
	fs.String("token-secret", d.Session.TokenSecret, "HMAC secret for session tokens; empty issues unsigned tokens")

	fs.Duration("rate-limit-window", d.RateLimit.Window, "rate-limit window length")
	fs.Int("rate-limit-max", d.RateLimit.Max, "messages allowed per player per window")
	fs.String("rate-limit-store", d.RateLimitStore, "rate-limit counter store: memory, redis")
	fs.String("redis-url", d.Redis.URL, "redis URL for the redis rate-limit store")
	fs.String("redis-key-prefix", d.Redis.KeyPrefix, "prefix for redis keys")
	fs.Int("redis-pool-size", d.Redis.PoolSize, "maximum redis connections")
	fs.Duration("redis-dial-timeout", d.Redis.DialTimeout, "timeout for connecting to redis")

	fs.Duration("heartbeat-interval", d.HeartbeatInterval, "interval between liveness probes")
	fs.Duration("reconnect-grace", d.GracePeriod, "how long a disconnected player's seat is held")
	fs.Int64("max-message-size", d.WebSocket.MaxMessageSize, "largest accepted websocket frame in bytes")

	fs.Duration("sweep-initial-delay", d.Sweep.InitialDelay, "delay before the first maintenance sweep")
	fs.Duration("sweep-interval", d.Sweep.Interval, "interval between maintenance sweeps")
	fs.Duration("idle-room-timeout", d.Sweep.IdleRoomTimeout, "age after which rooms without humans are deleted")
	fs.Duration("stale-game-age", d.Sweep.StaleGameAge, "age after which game state is dropped")
	fs.Duration("rate-limit-max-age", d.Sweep.RateLimitMaxAge, "age after which rate-limit windows are purged")
}

// Load resolves the settings for the flags registered on fs
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Default()

	cfg.Server.Host = v.GetString("host")
	cfg.Server.Port = v.GetInt("port")
	cfg.Server.ShutdownTimeout = v.GetDuration("shutdown-timeout")
	cfg.PublicURL = v.GetString("public-url")
	cfg.AdminToken = v.GetString("admin-token")

	cfg.LogLevel = v.GetString("log-level")
	cfg.LogFormat = v.GetString("log-format")

	cfg.Engine.NameMaxLength = v.GetInt("name-max-length")
	cfg.Engine.ChatMaxLength = v.GetInt("chat-max-length")
	cfg.Engine.EventBuffer = v.GetInt("event-buffer")
	cfg.Room.RoomNameMaxLength = v.GetInt("room-name-max-length")
	cfg.Room.PasswordMaxLength = v.GetInt("password-max-length")
	cfg.Room.MinPlayers = v.GetInt("min-players")
	cfg.Room.MaxPlayers = v.GetInt("max-players")
	cfg.Room.MaxRooms = v.GetInt("max-rooms")
	cfg.Room.BcryptCost = v.GetInt("bcrypt-cost")

	cfg.Session.SessionTimeout = v.GetDuration("session-timeout")
	cfg.Session.TokenSecret = v.GetString("token-secret")

	cfg.RateLimit.Window = v.GetDuration("rate-limit-window")
	cfg.RateLimit.Max = v.GetInt("rate-limit-max")
	cfg.RateLimitStore = strings.ToLower(v.GetString("rate-limit-store"))
	cfg.Redis.URL = v.GetString("redis-url")
	cfg.Redis.KeyPrefix = v.GetString("redis-key-prefix")
	cfg.Redis.PoolSize = v.GetInt("redis-pool-size")
	cfg.Redis.DialTimeout = v.GetDuration("redis-dial-timeout")

	cfg.HeartbeatInterval = v.GetDuration("heartbeat-interval")
	cfg.GracePeriod = v.GetDuration("reconnect-grace")
	cfg.WebSocket.MaxMessageSize = v.GetInt64("max-message-size")

	cfg.Sweep.InitialDelay = v.GetDuration("sweep-initial-delay")
	cfg.Sweep.Interval = v.GetDuration("sweep-interval")
	cfg.Sweep.IdleRoomTimeout = v.GetDuration("idle-room-timeout")
	cfg.Sweep.StaleGameAge = v.GetDuration("stale-game-age")
	cfg.Sweep.RateLimitMaxAge = v.GetDuration("rate-limit-max-age")
	cfg.Sweep.SessionTimeout = cfg.Session.SessionTimeout

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 0-65535 inclusive): %d", c.Server.Port)
	}
	if c.Room.MinPlayers < 2 || c.Room.MinPlayers > c.Room.MaxPlayers {
		return fmt.Errorf("invalid player bounds: min %d, max %d", c.Room.MinPlayers, c.Room.MaxPlayers)
	}
	if c.Room.MaxRooms < 1 {
		return errors.New("max-rooms must be at least 1")
	}
	if c.RateLimit.Max < 1 || c.RateLimit.Window <= 0 {
		return errors.New("rate-limit-max and rate-limit-window must be positive")
	}
	if c.HeartbeatInterval <= 0 || c.GracePeriod <= 0 {
		return errors.New("heartbeat-interval and reconnect-grace must be positive")
	}
	if c.Sweep.Interval <= 0 {
		return errors.New("sweep-interval must be positive")
	}
	switch c.RateLimitStore {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return errors.New("redis-url is required when rate-limit-store is redis")
		}
	default:
		return fmt.Errorf("invalid rate-limit-store %q: must be memory or redis", c.RateLimitStore)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log-format %q: must be json or text", c.LogFormat)
	}
	return nil
}
