package storage

import (
	"context"
	"time"

	"github.com/darkkD11/CardArena/internal/model"
)

// Storage holds live rooms and their game state
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	CountRooms(ctx context.Context) (int, error)

	// Game operations, keyed by room
	SaveGame(ctx context.Context, game *model.GameState) error
	GetGame(ctx context.Context, roomID model.RoomID) (*model.GameState, error)
	DeleteGame(ctx context.Context, roomID model.RoomID) error
	ListGames(ctx context.Context) ([]*model.GameState, error)
}

// HitResult is the state of a counter after one Hit
type HitResult struct {
	Count   int // messages admitted in the current window
	Reset   time.Time
	Allowed bool
}

// RateLimitStore keeps fixed-window message counters
type RateLimitStore interface {
	// Hit admits one message for key unless limit messages were already
	// admitted in the current window. A rejected message leaves the counter
	// untouched. A fresh window of the given length is started when none is
	// active at now.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (HitResult, error)

	// Forget drops key's counter
	Forget(ctx context.Context, key string) error

	// Purge drops counters whose window reset before cutoff and returns how many went
	Purge(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of tracked keys
	Count(ctx context.Context) (int, error)
}
