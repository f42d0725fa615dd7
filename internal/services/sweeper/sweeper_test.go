package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/dependencies/mocks"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/services/bot"
	"github.com/darkkD11/CardArena/internal/services/game"
	"github.com/darkkD11/CardArena/internal/services/ratelimit"
	"github.com/darkkD11/CardArena/internal/services/reconnect"
	"github.com/darkkD11/CardArena/internal/services/room"
	"github.com/darkkD11/CardArena/internal/services/session"
	"github.com/darkkD11/CardArena/internal/storage/memory"
	"github.com/darkkD11/CardArena/internal/testutil"
)

type SweeperSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	storage  *memory.Storage
	rooms    *room.Controller
	games    *game.Controller
	limiter  *ratelimit.Limiter
	sessions *session.Service
	seats    *reconnect.Manager
	sweeper  *Sweeper
	ctx      context.Context
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) SetupTest() {
	logger := testutil.NopLogger()
	random := mocks.NewMockRandom()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.storage = memory.New()
	s.rooms = room.NewController(s.storage, bot.NewService(random, logger), s.clock, random, room.Config{
		MaxRooms: 10, MinPlayers: 2, MaxPlayers: 8, RoomNameMaxLength: 30, PasswordMaxLength: 20, BcryptCost: 4,
	}, logger)
	s.games = game.NewController(s.storage, s.clock, random, logger)
	s.limiter = ratelimit.New(memory.NewRateLimits(), s.clock, ratelimit.DefaultConfig(), logger)
	s.sessions = session.New(s.clock, session.DefaultConfig(), logger)
	s.seats = reconnect.New(s.clock, time.Minute, logger)
	s.sweeper = New(s.rooms, s.games, s.limiter, s.sessions, s.seats, s.clock, DefaultConfig(), logger)
	s.ctx = context.Background()
}

func (s *SweeperSuite) createRoom(owner model.PlayerID) *model.Room {
	r, err := s.rooms.CreateRoom(s.ctx, owner, model.Member{ID: owner, Name: string(owner)}, room.CreateOptions{Name: "Table", Capacity: 4})
	s.Require().NoError(err)
	return r
}

func (s *SweeperSuite) TestDeletesIdleBotOnlyRoom() {
	r := s.createRoom("p1")
	_, _, err := s.rooms.AddBot(s.ctx, r.ID, "p1", "easy")
	s.Require().NoError(err)

	// Host drops out of a playing room, leaving only the bot seated.
	r, _ = s.rooms.Get(s.ctx, r.ID)
	_, err = s.games.Start(s.ctx, r, "p1")
	s.Require().NoError(err)
	member, _ := r.RemoveMember("p1")
	s.Require().NoError(s.rooms.Save(s.ctx, r))
	s.seats.Hold(r.ID, member, func(model.PlayerID) {})

	s.clock.Advance(31 * time.Minute)
	report := s.sweeper.Sweep(s.ctx)

	s.Equal(1, report.RoomsDeleted)
	s.Equal(1, report.SeatsReleased)
	_, err = s.rooms.Get(s.ctx, r.ID)
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.games.Get(s.ctx, r.ID)
	s.ErrorIs(err, model.ErrGameNotFound)
	s.False(s.seats.Has("p1"))
}

func (s *SweeperSuite) TestKeepsRoomsWithHumans() {
	r := s.createRoom("p1")
	s.clock.Advance(2 * time.Hour)

	report := s.sweeper.Sweep(s.ctx)

	s.Equal(0, report.RoomsDeleted)
	_, err := s.rooms.Get(s.ctx, r.ID)
	s.NoError(err)
}

func (s *SweeperSuite) TestKeepsYoungBotOnlyRoom() {
	r := s.createRoom("p1")
	_, _, _ = s.rooms.AddBot(s.ctx, r.ID, "p1", "easy")
	r, _ = s.rooms.Get(s.ctx, r.ID)
	r.RemoveMember("p1")
	s.Require().NoError(s.rooms.Save(s.ctx, r))

	s.clock.Advance(10 * time.Minute)
	report := s.sweeper.Sweep(s.ctx)

	s.Equal(0, report.RoomsDeleted)
}

func (s *SweeperSuite) TestDropsStaleGames() {
	r := s.createRoom("p1")
	_, _ = s.rooms.JoinRoom(s.ctx, string(r.Code), model.Member{ID: "p2"}, "")
	r, _ = s.rooms.Get(s.ctx, r.ID)
	_, err := s.games.Start(s.ctx, r, "p1")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	report := s.sweeper.Sweep(s.ctx)

	s.Equal(1, report.GamesDropped)
}

func (s *SweeperSuite) TestPurgesRateLimitsAndSessions() {
	_, err := s.sessions.Create("p1", "Alice", 0)
	s.Require().NoError(err)
	s.limiter.Allow(s.ctx, "p1")

	s.clock.Advance(25 * time.Hour)
	report := s.sweeper.Sweep(s.ctx)

	s.Equal(1, report.RateLimitsPurged)
	s.Equal(1, report.SessionsExpired)
	s.Equal(0, s.sessions.Count())
}

func (s *SweeperSuite) TestEmptySweep() {
	s.Equal(Report{}, s.sweeper.Sweep(s.ctx))
}
