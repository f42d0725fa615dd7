package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/darkkD11/CardArena/internal/api"
	"github.com/darkkD11/CardArena/internal/config"
	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/dependencies/random"
	"github.com/darkkD11/CardArena/internal/engine"
	"github.com/darkkD11/CardArena/internal/services/bot"
	"github.com/darkkD11/CardArena/internal/services/directory"
	"github.com/darkkD11/CardArena/internal/services/game"
	"github.com/darkkD11/CardArena/internal/services/heartbeat"
	"github.com/darkkD11/CardArena/internal/services/ratelimit"
	"github.com/darkkD11/CardArena/internal/services/reconnect"
	"github.com/darkkD11/CardArena/internal/services/room"
	"github.com/darkkD11/CardArena/internal/services/session"
	"github.com/darkkD11/CardArena/internal/services/sweeper"
	"github.com/darkkD11/CardArena/internal/storage"
	"github.com/darkkD11/CardArena/internal/storage/memory"
	redisstorage "github.com/darkkD11/CardArena/internal/storage/redis"
	"github.com/darkkD11/CardArena/internal/transport/ws"
)

// App contains all wired application components
type App struct {
	Config config.Config
	Logger *slog.Logger

	// Storage
	Storage    storage.Storage
	RateLimits storage.RateLimitStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Sessions  *session.Service
	Directory *directory.Directory
	Bots      *bot.Service
	Rooms     *room.Controller
	Games     *game.Controller
	Seats     *reconnect.Manager
	Limiter   *ratelimit.Limiter
	Heartbeat *heartbeat.Monitor
	Sweeper   *sweeper.Sweeper

	// Serving
	Engine    *engine.Engine
	WebSocket *ws.Server
	Router    http.Handler

	closers []io.Closer
}

// New creates a new application with all dependencies wired
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		limits  storage.RateLimitStore
		closers []io.Closer
	)
	switch cfg.RateLimitStore {
	case config.StoreMemory:
		limits = memory.NewRateLimits()
	case config.StoreRedis:
		redisLimits, err := redisstorage.New(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect rate-limit store: %w", err)
		}
		limits = redisLimits
		closers = append(closers, redisLimits)
	default:
		return nil, errors.New("invalid rate-limit store: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(cfg, memory.New(), limits, clock.New(), random.New(), logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg config.Config,
	store storage.Storage,
	limits storage.RateLimitStore,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	sessions := session.New(clk, cfg.Session, logger)
	dir := directory.New(logger)
	bots := bot.NewService(rnd, logger)
	rooms := room.NewController(store, bots, clk, rnd, cfg.Room, logger)
	games := game.NewController(store, clk, rnd, logger)
	seats := reconnect.New(clk, cfg.GracePeriod, logger)
	limiter := ratelimit.New(limits, clk, cfg.RateLimit, logger)
	monitor := heartbeat.New(dir, cfg.HeartbeatInterval, logger)
	sweep := sweeper.New(rooms, games, limiter, sessions, seats, clk, cfg.Sweep, logger)

	eng := engine.New(sessions, dir, rooms, games, seats, limiter, monitor, sweep, clk, cfg.Engine, logger)
	wsServer := ws.NewServer(eng, cfg.WebSocket, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Engine:     eng,
		Clock:      clk,
		WebSocket:  wsServer,
		PublicURL:  cfg.PublicURL,
		AdminToken: cfg.AdminToken,
	})

	return &App{
		Config:     cfg,
		Logger:     logger,
		Storage:    store,
		RateLimits: limits,
		Clock:      clk,
		Random:     rnd,
		Sessions:   sessions,
		Directory:  dir,
		Bots:       bots,
		Rooms:      rooms,
		Games:      games,
		Seats:      seats,
		Limiter:    limiter,
		Heartbeat:  monitor,
		Sweeper:    sweep,
		Engine:     eng,
		WebSocket:  wsServer,
		Router:     router,
	}
}

// Close releases external connections held by the app
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
