package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms     map[model.RoomID]*model.Room
	codeIndex map[model.RoomCode]model.RoomID
	games     map[model.RoomID]*model.GameState
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:     make(map[model.RoomID]*model.Room),
		codeIndex: make(map[model.RoomCode]model.RoomID),
		games:     make(map[model.RoomID]*model.GameState),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rooms[room.ID]; ok && existing.Code != room.Code {
		delete(s.codeIndex, existing.Code)
	}
	s.rooms[room.ID] = room
	s.codeIndex[room.Code] = room.ID
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return s.rooms[id], nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok {
		delete(s.codeIndex, room.Code)
		delete(s.rooms, id)
	}
	return nil
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codeIndex[code]
	return ok, nil
}

// ListRooms returns rooms oldest first
func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Storage) CountRooms(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms), nil
}

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.RoomID] = game
	return nil
}

func (s *Storage) GetGame(ctx context.Context, roomID model.RoomID) (*model.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[roomID]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game, nil
}

func (s *Storage) DeleteGame(ctx context.Context, roomID model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, roomID)
	return nil
}

func (s *Storage) ListGames(ctx context.Context) ([]*model.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*model.GameState, 0, len(s.games))
	for _, game := range s.games {
		games = append(games, game)
	}
	return games, nil
}
