// Package engine applies client messages, disconnects and timer expiries to
// the room, game and session state, one at a time, and fans the results out
// to connected clients.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/protocol"
	"github.com/darkkD11/CardArena/internal/services/directory"
	"github.com/darkkD11/CardArena/internal/services/game"
	"github.com/darkkD11/CardArena/internal/services/heartbeat"
	"github.com/darkkD11/CardArena/internal/services/ratelimit"
	"github.com/darkkD11/CardArena/internal/services/reconnect"
	"github.com/darkkD11/CardArena/internal/services/room"
	"github.com/darkkD11/CardArena/internal/services/session"
	"github.com/darkkD11/CardArena/internal/services/sweeper"
)

// Config holds message limits applied by the engine
type Config struct {
	NameMaxLength int
	ChatMaxLength int
	// EventBuffer is the capacity of the event queue feeding Run
	EventBuffer int
}

// DefaultConfig returns default engine limits
func DefaultConfig() Config {
	return Config{
		NameMaxLength: 20,
		ChatMaxLength: 200,
		EventBuffer:   256,
	}
}

// Engine owns every mutation of shared game state. Once Run is started all
// work is funnelled through its event queue; before that, Submit runs work
// inline, which is what tests rely on.
type Engine struct {
	sessions  *session.Service
	dir       *directory.Directory
	rooms     room.ControllerInterface
	games     game.ControllerInterface
	seats     *reconnect.Manager
	limiter   *ratelimit.Limiter
	heartbeat *heartbeat.Monitor
	sweeper   *sweeper.Sweeper
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger

	events  chan func()
	running atomic.Bool
	started chan struct{}
	stopped chan struct{}
}

// New creates an Engine
func New(
	sessions *session.Service,
	dir *directory.Directory,
	rooms room.ControllerInterface,
	games game.ControllerInterface,
	seats *reconnect.Manager,
	limiter *ratelimit.Limiter,
	monitor *heartbeat.Monitor,
	sweep *sweeper.Sweeper,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	defaults := DefaultConfig()
	if cfg.NameMaxLength <= 0 {
		cfg.NameMaxLength = defaults.NameMaxLength
	}
	if cfg.ChatMaxLength <= 0 {
		cfg.ChatMaxLength = defaults.ChatMaxLength
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaults.EventBuffer
	}
	return &Engine{
		sessions:  sessions,
		dir:       dir,
		rooms:     rooms,
		games:     games,
		seats:     seats,
		limiter:   limiter,
		heartbeat: monitor,
		sweeper:   sweep,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "engine")),
		events:    make(chan func(), cfg.EventBuffer),
		started:   make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// HandleConnect registers a freshly opened connection
func (e *Engine) HandleConnect(conn directory.Conn) {
	e.dir.Add(conn)
	e.logger.Debug("connection opened", slog.String("conn", conn.ID()))
}

// HandleMessage decodes and applies one text frame from conn
func (e *Engine) HandleMessage(ctx context.Context, conn directory.Conn, data []byte) {
	req, err := protocol.Decode(data)
	switch {
	case errors.Is(err, protocol.ErrMalformed), errors.Is(err, protocol.ErrUnknownType):
		e.logger.Debug("frame dropped", slog.String("conn", conn.ID()), slog.String("error", err.Error()))
		return
	case err != nil:
		e.sendError(conn, err)
		return
	}

	switch r := req.(type) {
	case protocol.Identify:
		e.reply(conn, e.identify(ctx, conn, r))
		return
	case protocol.ListRooms:
		e.sendLobby(ctx, conn)
		return
	}

	binding, ok := e.dir.Lookup(conn)
	if !ok || !e.sessions.Validate(binding.PlayerID, binding.ConnectionID) {
		e.sendError(conn, model.ErrUnauthorized)
		return
	}
	if !e.limiter.Allow(ctx, binding.PlayerID) {
		e.sendError(conn, model.ErrRateLimitExceeded)
		return
	}

	e.reply(conn, e.dispatch(ctx, conn, binding, req))
}

func (e *Engine) dispatch(ctx context.Context, conn directory.Conn, caller directory.Binding, req protocol.Request) error {
	switch r := req.(type) {
	case protocol.CreateRoom:
		return e.createRoom(ctx, conn, caller, r)
	case protocol.JoinRoom:
		return e.joinRoom(ctx, conn, caller, r.RoomID, r.Password)
	case protocol.JoinByCode:
		return e.joinRoom(ctx, conn, caller, r.Code, r.Password)
	case protocol.LeaveRoom:
		return e.leaveRoom(ctx, conn, caller)
	case protocol.Chat:
		return e.chat(ctx, caller, r)
	case protocol.PlayerReady:
		return e.setReady(ctx, caller, r)
	case protocol.AddBot:
		return e.addBot(ctx, caller, r)
	case protocol.KickPlayer:
		return e.kick(ctx, caller, r)
	case protocol.StartGame:
		return e.startGame(ctx, caller)
	case protocol.PlayCards:
		return e.playCards(ctx, caller, r)
	case protocol.Pass:
		return e.pass(ctx, caller, r)
	case protocol.Check:
		return e.check(ctx, caller, r)
	default:
		return model.ErrInvalidPayload
	}
}

// HandleDisconnect runs the departure path for a closed connection. It is
// safe to call more than once for the same connection.
func (e *Engine) HandleDisconnect(ctx context.Context, conn directory.Conn) {
	binding, ok := e.dir.Unbind(conn)
	if !ok {
		return
	}

	e.logger.Info("player disconnected",
		slog.String("player_id", string(binding.PlayerID)),
		slog.String("conn", conn.ID()))

	e.sessions.Remove(binding.PlayerID, binding.ConnectionID)
	e.limiter.Forget(ctx, binding.PlayerID)
	e.depart(ctx, binding.PlayerID)
}

// HandleAlive records a liveness response from conn
func (e *Engine) HandleAlive(conn directory.Conn) {
	e.dir.MarkAlive(conn)
}

// Heartbeat runs one liveness round, disconnecting connections that missed the last probe
func (e *Engine) Heartbeat(ctx context.Context) {
	for _, conn := range e.heartbeat.Tick() {
		e.HandleDisconnect(ctx, conn)
	}
}

// Sweep runs one maintenance pass and refreshes lobby views
func (e *Engine) Sweep(ctx context.Context) sweeper.Report {
	report := e.sweeper.Sweep(ctx)
	if report.RoomsDeleted > 0 {
		e.publishLobby(ctx)
	}
	return report
}

// Stats is a point-in-time snapshot of engine state
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
	Players     int `json:"players"`
	Sessions    int `json:"sessions"`
	HeldSeats   int `json:"held_seats"`
	RateLimits  int `json:"rate_limits"`
}

// Stats reads counters from the component tables. It does not go through
// the event queue.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	rooms, err := e.rooms.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	limits, err := e.limiter.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Rooms:       rooms,
		Connections: e.dir.Count(),
		Players:     e.dir.PlayerCount(),
		Sessions:    e.sessions.Count(),
		HeldSeats:   e.seats.Count(),
		RateLimits:  limits,
	}, nil
}

// Message helpers

func (e *Engine) send(conn directory.Conn, msgType string, payload any) {
	e.dir.SendConn(conn, protocol.Encode(msgType, payload))
}

func (e *Engine) sendError(conn directory.Conn, err error) {
	e.dir.SendConn(conn, protocol.EncodeError(err))
}

// reply reports err to conn. Unexpected errors are logged as well.
func (e *Engine) reply(conn directory.Conn, err error) {
	if err == nil {
		return
	}
	if !protocol.Recognized(err) {
		e.logger.Error("request failed", slog.String("conn", conn.ID()), slog.String("error", err.Error()))
	}
	e.sendError(conn, err)
}

// toRoom delivers a frame to every connected human member of r
func (e *Engine) toRoom(r *model.Room, msgType string, payload any) {
	data := protocol.Encode(msgType, payload)
	for _, m := range r.Players {
		if !m.IsBot {
			e.dir.SendTo(m.ID, data)
		}
	}
}

func (e *Engine) publishRoom(r *model.Room) {
	e.toRoom(r, protocol.TypeRoomUpdated, protocol.RoomPayload{Room: protocol.RoomFromModel(r)})
}

func (e *Engine) lobby(ctx context.Context) (protocol.RoomsList, error) {
	rooms, err := e.rooms.ListPublic(ctx)
	if err != nil {
		return protocol.RoomsList{}, err
	}
	return protocol.RoomsList{Rooms: protocol.RoomsFromModel(rooms)}, nil
}

func (e *Engine) sendLobby(ctx context.Context, conn directory.Conn) {
	list, err := e.lobby(ctx)
	if err != nil {
		e.logger.Error("failed to list rooms", slog.String("error", err.Error()))
		return
	}
	e.send(conn, protocol.TypeRoomsList, list)
}

// publishLobby sends the public room list to every open connection
func (e *Engine) publishLobby(ctx context.Context) {
	list, err := e.lobby(ctx)
	if err != nil {
		e.logger.Error("failed to list rooms", slog.String("error", err.Error()))
		return
	}
	e.dir.Broadcast(protocol.Encode(protocol.TypeRoomsList, list))
}
