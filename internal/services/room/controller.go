package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/dependencies/random"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/services/bot"
	"github.com/darkkD11/CardArena/internal/storage"
	"github.com/darkkD11/CardArena/internal/validation"
)

const (
	// CodeLength is the length of generated join codes
	CodeLength = 6
	// CodeAlphabet is the characters used in join codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Config holds room limits
type Config struct {
	MaxRooms          int
	MinPlayers        int
	MaxPlayers        int
	RoomNameMaxLength int
	PasswordMaxLength int
	BcryptCost        int
}

// DefaultConfig returns default room limits
func DefaultConfig() Config {
	return Config{
		MaxRooms:          100,
		MinPlayers:        2,
		MaxPlayers:        8,
		RoomNameMaxLength: 30,
		PasswordMaxLength: 20,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// CreateOptions are the client-supplied settings of a new room
type CreateOptions struct {
	Name     string
	Capacity int
	Private  bool
	Password string
}

// Controller owns the room lifecycle: create, join, ready, bots, kick and leave
type Controller struct {
	storage storage.Storage
	bots    *bot.Service
	clock   clock.Clock
	random  random.Random
	cfg     Config
	logger  *slog.Logger
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	bots *bot.Service,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Controller{
		storage: storage,
		bots:    bots,
		clock:   clock,
		random:  random,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "room")),
	}
}

// CreateRoom creates a room with owner as its sole, ready member and host.
// callerID is the authenticated identity and must match the owner.
func (c *Controller) CreateRoom(ctx context.Context, callerID model.PlayerID, owner model.Member, opts CreateOptions) (*model.Room, error) {
	if owner.ID != callerID {
		return nil, model.ErrUnauthorized
	}

	name := validation.Sanitize(opts.Name, c.cfg.RoomNameMaxLength)
	if name == "" {
		return nil, model.ErrInvalidRoomName
	}
	if !validation.PlayerCount(opts.Capacity, c.cfg.MinPlayers, c.cfg.MaxPlayers) {
		return nil, model.ErrInvalidPlayerCount
	}

	count, err := c.storage.CountRooms(ctx)
	if err != nil {
		return nil, err
	}
	if count >= c.cfg.MaxRooms {
		return nil, model.ErrServerFull
	}

	code, err := c.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	var hash string
	if password := validation.Sanitize(opts.Password, c.cfg.PasswordMaxLength); password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), c.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash room password: %w", err)
		}
		hash = string(b)
	}

	owner.Ready = true
	owner.IsBot = false
	owner.Disconnected = false

	room := &model.Room{
		ID:           model.RoomID(uuid.NewString()),
		Code:         code,
		Name:         name,
		Host:         owner.ID,
		Capacity:     opts.Capacity,
		Players:      []model.Member{owner},
		Status:       model.RoomStatusWaiting,
		PasswordHash: hash,
		Private:      opts.Private,
		CreatedAt:    c.clock.Now(),
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("code", string(room.Code)),
		slog.String("host", string(owner.ID)),
		slog.Int("capacity", room.Capacity))

	return room, nil
}

func (c *Controller) generateCode(ctx context.Context) (model.RoomCode, error) {
	for {
		code := model.RoomCode(c.random.String(CodeLength, CodeAlphabet))
		exists, err := c.storage.RoomCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

// Get retrieves a room by ID
func (c *Controller) Get(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, id)
}

// Resolve finds a room by ID, falling back to its join code
func (c *Controller) Resolve(ctx context.Context, ref string) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, model.RoomID(ref))
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, model.ErrRoomNotFound) {
		return nil, err
	}
	return c.storage.GetRoomByCode(ctx, model.RoomCode(strings.ToUpper(strings.TrimSpace(ref))))
}

// JoinRoom seats member in the room identified by ref (ID or join code), not ready
func (c *Controller) JoinRoom(ctx context.Context, ref string, member model.Member, password string) (*model.Room, error) {
	room, err := c.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if room.HasMember(member.ID) {
		return nil, model.ErrAlreadyInRoom
	}
	if room.Status == model.RoomStatusPlaying {
		return nil, model.ErrGameAlreadyStarted
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}
	if room.HasPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)); err != nil {
			return nil, model.ErrWrongPassword
		}
	}

	member.Ready = false
	member.IsBot = false
	member.Disconnected = false
	room.Players = append(room.Players, member)

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("player joined room",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(member.ID)),
		slog.Int("players", len(room.Players)))

	return room, nil
}

// SetReady changes playerID's ready flag. It is a no-op unless the caller is
// that player and a member of the room. The bool reports whether anything changed.
func (c *Controller) SetReady(ctx context.Context, roomID model.RoomID, callerID, playerID model.PlayerID, ready bool) (*model.Room, bool, error) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, false, err
	}

	member := room.GetMember(playerID)
	if callerID != playerID || member == nil {
		return room, false, nil
	}
	if member.Ready == ready {
		return room, false, nil
	}
	member.Ready = ready

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, false, err
	}
	return room, true, nil
}

// AddBot seats a generated bot. Only the host may add bots.
func (c *Controller) AddBot(ctx context.Context, roomID model.RoomID, callerID model.PlayerID, difficulty string) (*model.Room, model.Member, error) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, model.Member{}, err
	}

	if !room.IsHost(callerID) {
		return nil, model.Member{}, model.ErrOnlyHostCanAddBots
	}
	if room.Status == model.RoomStatusPlaying {
		return nil, model.Member{}, model.ErrGameAlreadyStarted
	}
	if room.IsFull() {
		return nil, model.Member{}, model.ErrRoomFull
	}

	member := c.bots.NewMember(room, validation.Difficulty(difficulty))
	room.Players = append(room.Players, member)

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, model.Member{}, err
	}

	c.logger.Info("bot added to room",
		slog.String("room_id", string(room.ID)),
		slog.String("bot_id", string(member.ID)),
		slog.String("difficulty", string(member.Difficulty)))

	return room, member, nil
}

// Kick removes targetID from the room. Only the host may kick, and not themselves.
func (c *Controller) Kick(ctx context.Context, roomID model.RoomID, callerID, targetID model.PlayerID) (*model.Room, model.Member, error) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, model.Member{}, err
	}

	if !room.IsHost(callerID) {
		return nil, model.Member{}, model.ErrOnlyHostCanKick
	}
	if targetID == callerID {
		return nil, model.Member{}, model.ErrCannotKickSelf
	}

	removed, ok := room.RemoveMember(targetID)
	if !ok {
		return nil, model.Member{}, model.ErrPlayerNotInRoom
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, model.Member{}, err
	}

	c.logger.Info("player kicked",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(targetID)))

	return room, removed, nil
}

// Leave removes playerID from the room. An emptied room is deleted and
// reported through the bool.
func (c *Controller) Leave(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, bool, error) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, false, err
	}

	if _, ok := room.RemoveMember(playerID); !ok {
		return nil, false, model.ErrPlayerNotInRoom
	}

	if len(room.Players) == 0 {
		if err := c.Delete(ctx, room.ID); err != nil {
			return nil, false, err
		}
		return room, true, nil
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, false, err
	}
	return room, false, nil
}

// Seat reinserts a previously removed member, as on reconnection
func (c *Controller) Seat(ctx context.Context, roomID model.RoomID, member model.Member) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.HasMember(member.ID) {
		return nil, model.ErrAlreadyInRoom
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}

	member.Disconnected = false
	room.Players = append(room.Players, member)
	if room.Host == "" {
		room.Host = member.ID
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Save persists changes made to a room outside the controller
func (c *Controller) Save(ctx context.Context, room *model.Room) error {
	return c.storage.SaveRoom(ctx, room)
}

// Delete removes a room and any game state it holds
func (c *Controller) Delete(ctx context.Context, id model.RoomID) error {
	if err := c.storage.DeleteGame(ctx, id); err != nil {
		return err
	}
	if err := c.storage.DeleteRoom(ctx, id); err != nil {
		return err
	}
	c.logger.Info("room deleted", slog.String("room_id", string(id)))
	return nil
}

// RoomOf returns the room playerID is seated in
func (c *Controller) RoomOf(ctx context.Context, playerID model.PlayerID) (*model.Room, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.HasMember(playerID) {
			return room, nil
		}
	}
	return nil, model.ErrNotInRoom
}

// ListPublic returns every non-private room, oldest first
func (c *Controller) ListPublic(ctx context.Context) ([]*model.Room, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]*model.Room, 0, len(rooms))
	for _, room := range rooms {
		if !room.Private {
			public = append(public, room)
		}
	}
	return public, nil
}

// All returns every room
func (c *Controller) All(ctx context.Context) ([]*model.Room, error) {
	return c.storage.ListRooms(ctx)
}

// Count returns the number of live rooms
func (c *Controller) Count(ctx context.Context) (int, error) {
	return c.storage.CountRooms(ctx)
}

// ControllerInterface defines the interface for room controller operations
type ControllerInterface interface {
	CreateRoom(ctx context.Context, callerID model.PlayerID, owner model.Member, opts CreateOptions) (*model.Room, error)
	Get(ctx context.Context, id model.RoomID) (*model.Room, error)
	Resolve(ctx context.Context, ref string) (*model.Room, error)
	JoinRoom(ctx context.Context, ref string, member model.Member, password string) (*model.Room, error)
	SetReady(ctx context.Context, roomID model.RoomID, callerID, playerID model.PlayerID, ready bool) (*model.Room, bool, error)
	AddBot(ctx context.Context, roomID model.RoomID, callerID model.PlayerID, difficulty string) (*model.Room, model.Member, error)
	Kick(ctx context.Context, roomID model.RoomID, callerID, targetID model.PlayerID) (*model.Room, model.Member, error)
	Leave(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, bool, error)
	Seat(ctx context.Context, roomID model.RoomID, member model.Member) (*model.Room, error)
	Save(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, id model.RoomID) error
	RoomOf(ctx context.Context, playerID model.PlayerID) (*model.Room, error)
	ListPublic(ctx context.Context) ([]*model.Room, error)
	All(ctx context.Context) ([]*model.Room, error)
	Count(ctx context.Context) (int, error)
}

// Ensure Controller implements ControllerInterface
var _ ControllerInterface = (*Controller)(nil)
