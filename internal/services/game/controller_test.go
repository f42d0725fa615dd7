package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/dependencies/mocks"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/storage/memory"
	"github.com/darkkD11/CardArena/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ControllerSuite) newRoom(ids ...string) *model.Room {
	room := &model.Room{
		ID:       "room-1",
		Code:     "ABC123",
		Host:     model.PlayerID(ids[0]),
		Capacity: 8,
		Status:   model.RoomStatusWaiting,
	}
	for _, id := range ids {
		room.Players = append(room.Players, model.Member{ID: model.PlayerID(id), Name: id})
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))
	return room
}

func (s *ControllerSuite) startGame(ids ...string) (*model.Room, *model.GameState) {
	room := s.newRoom(ids...)
	game, err := s.controller.Start(s.ctx, room, room.Host)
	s.Require().NoError(err)
	return room, game
}

// Start tests

func (s *ControllerSuite) TestStartDealsFourEvenHands() {
	_, game := s.startGame("p1", "p2", "p3", "p4")

	seen := make(map[string]bool)
	for _, id := range []model.PlayerID{"p1", "p2", "p3", "p4"} {
		hand := game.Hands[id]
		s.Len(hand, 13)
		for _, card := range hand {
			s.False(seen[card.ID], "duplicate card %s", card.ID)
			seen[card.ID] = true
		}
	}
	s.Len(seen, model.DeckSize)
}

func (s *ControllerSuite) TestStartUnevenHandsDifferByAtMostOne() {
	_, game := s.startGame("p1", "p2", "p3", "p4", "p5")

	s.Len(game.Hands["p1"], 11)
	s.Len(game.Hands["p2"], 11)
	s.Len(game.Hands["p3"], 10)
	s.Len(game.Hands["p5"], 10)
	s.Equal(model.DeckSize, game.CardCount())
}

func (s *ControllerSuite) TestStartSetsHostTurnAndStatus() {
	room, game := s.startGame("p1", "p2")

	s.Equal(model.PlayerID("p1"), game.CurrentTurn)
	s.Equal(model.RoomStatusPlaying, room.Status)
	s.Equal(s.clock.Now(), game.StartedAt)
	s.Empty(game.Pile)
}

func (s *ControllerSuite) TestStartShufflesWithRandomSource() {
	// Always swapping with index 0 rotates the deck left by one.
	_, game := s.startGame("p1", "p2")

	s.Equal("2H", game.Hands["p1"][0].ID)
	s.Equal("3H", game.Hands["p2"][0].ID)
	s.Equal("AH", game.Hands["p2"][25].ID)
}

func (s *ControllerSuite) TestStartFailsForNonHost() {
	room := s.newRoom("p1", "p2")

	_, err := s.controller.Start(s.ctx, room, "p2")
	s.ErrorIs(err, model.ErrOnlyHostCanStart)
	s.Equal(model.RoomStatusWaiting, room.Status)
}

func (s *ControllerSuite) TestStartFailsWithOnePlayer() {
	room := s.newRoom("p1")

	_, err := s.controller.Start(s.ctx, room, "p1")
	s.ErrorIs(err, model.ErrNotEnoughPlayers)
}

func (s *ControllerSuite) TestStartFailsWhenAlreadyPlaying() {
	room, _ := s.startGame("p1", "p2")

	_, err := s.controller.Start(s.ctx, room, "p1")
	s.ErrorIs(err, model.ErrGameAlreadyStarted)
}

// Deal tests

func (s *ControllerSuite) TestDealRoundRobinFromFirstMember() {
	deck := model.NewDeck()
	members := []model.Member{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	hands := Deal(deck, members)

	s.Equal(deck[0], hands["a"][0])
	s.Equal(deck[1], hands["b"][0])
	s.Equal(deck[2], hands["c"][0])
	s.Equal(deck[3], hands["a"][1])
	s.Len(hands["a"], 18)
	s.Len(hands["c"], 17)
}

// RecordPlay tests

func (s *ControllerSuite) TestRecordPlayMovesCardsToPile() {
	room, game := s.startGame("p1", "p2", "p3")
	played := []string{game.Hands["p1"][0].ID, game.Hands["p1"][1].ID}

	result, err := s.controller.RecordPlay(s.ctx, room, "p1", played, "Q")
	s.Require().NoError(err)

	s.Equal(played, result.Cards)
	s.Equal(model.Rank("Q"), result.ClaimedRank)
	s.Equal(model.PlayerID("p2"), result.NextTurn)
	s.Equal(2, result.PileSize)

	updated, _ := s.controller.Get(s.ctx, room.ID)
	s.Len(updated.Hands["p1"], 16)
	s.Equal(model.DeckSize, updated.CardCount())
	s.Equal(model.PileEntry{CardID: played[0], Owner: "p1"}, updated.Pile[0])
}

func (s *ControllerSuite) TestRecordPlayIgnoresCardsNotHeld() {
	room, game := s.startGame("p1", "p2")
	foreign := game.Hands["p2"][0].ID
	own := game.Hands["p1"][0].ID

	result, err := s.controller.RecordPlay(s.ctx, room, "p1", []string{own, foreign, "ZZ", own}, "A")
	s.Require().NoError(err)

	s.Equal([]string{own}, result.Cards)
	updated, _ := s.controller.Get(s.ctx, room.ID)
	s.Len(updated.Hands["p2"], 26)
	s.Equal(model.DeckSize, updated.CardCount())
}

func (s *ControllerSuite) TestRecordPlayWrapsTurn() {
	room, game := s.startGame("p1", "p2")
	_, _ = s.controller.RecordPlay(s.ctx, room, "p1", []string{game.Hands["p1"][0].ID}, "A")

	result, err := s.controller.RecordPlay(s.ctx, room, "p2", []string{game.Hands["p2"][0].ID}, "2")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), result.NextTurn)
}

func (s *ControllerSuite) TestRecordPlayRejectsOutOfTurn() {
	room, game := s.startGame("p1", "p2")

	_, err := s.controller.RecordPlay(s.ctx, room, "p2", []string{game.Hands["p2"][0].ID}, "A")
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestRecordPlayValidatesInput() {
	room, game := s.startGame("p1", "p2")

	_, err := s.controller.RecordPlay(s.ctx, room, "p1", nil, "A")
	s.ErrorIs(err, model.ErrInvalidCards)

	_, err = s.controller.RecordPlay(s.ctx, room, "p1", []string{game.Hands["p1"][0].ID}, "Z")
	s.ErrorIs(err, model.ErrInvalidRank)
}

// RecordPass tests

func (s *ControllerSuite) TestRecordPassAdvancesTurn() {
	room, _ := s.startGame("p1", "p2", "p3")

	next, err := s.controller.RecordPass(s.ctx, room, "p1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), next)
}

// RecordCheck tests

func (s *ControllerSuite) TestRecordCheckWithoutOutcomeChangesNothing() {
	room, game := s.startGame("p1", "p2")
	_, _ = s.controller.RecordPlay(s.ctx, room, "p1", []string{game.Hands["p1"][0].ID}, "A")

	result, err := s.controller.RecordCheck(s.ctx, room, "p2", "")
	s.Require().NoError(err)
	s.Empty(result.LoserID)

	updated, _ := s.controller.Get(s.ctx, room.ID)
	s.Len(updated.Pile, 1)
}

func (s *ControllerSuite) TestRecordCheckMovesPileToLoser() {
	room, game := s.startGame("p1", "p2")
	_, _ = s.controller.RecordPlay(s.ctx, room, "p1", []string{game.Hands["p1"][0].ID, game.Hands["p1"][1].ID}, "A")

	result, err := s.controller.RecordCheck(s.ctx, room, "p2", "p1")
	s.Require().NoError(err)
	s.Equal(2, result.Taken)

	updated, _ := s.controller.Get(s.ctx, room.ID)
	s.Empty(updated.Pile)
	s.Empty(updated.ClaimedRank)
	s.Len(updated.Hands["p1"], 26)
	s.Equal(model.DeckSize, updated.CardCount())
}

func (s *ControllerSuite) TestRecordCheckRejectsUnknownLoser() {
	room, _ := s.startGame("p1", "p2")

	_, err := s.controller.RecordCheck(s.ctx, room, "p2", "ghost")
	s.ErrorIs(err, model.ErrInvalidPlayer)
}

// Restore tests

func (s *ControllerSuite) TestRestoreReturnsOwnHandAndCounts() {
	room, game := s.startGame("p1", "p2", "p3", "p4")
	p2Hand := append([]model.Card(nil), game.Hands["p2"]...)

	restore, err := s.controller.Restore(s.ctx, room.ID, "p2")
	s.Require().NoError(err)

	s.Equal(p2Hand, restore.Hand)
	s.Equal(model.PlayerID("p1"), restore.CurrentTurn)
	s.Equal(map[model.PlayerID]int{"p1": 13, "p2": 13, "p3": 13, "p4": 13}, restore.CardCounts)
	s.Empty(restore.PileOwners)
}

func (s *ControllerSuite) TestRestoreKeepsPileFaceDown() {
	room, game := s.startGame("p1", "p2", "p3", "p4")
	played := []string{game.Hands["p1"][0].ID, game.Hands["p1"][1].ID}
	_, err := s.controller.RecordPlay(s.ctx, room, "p1", played, "A")
	s.Require().NoError(err)

	restore, err := s.controller.Restore(s.ctx, room.ID, "p2")
	s.Require().NoError(err)

	s.Equal([]model.PlayerID{"p1", "p1"}, restore.PileOwners)
	s.Equal(11, restore.CardCounts["p1"])
}

// DropHand / RepairTurn / DropStale tests

func (s *ControllerSuite) TestDropHand() {
	room, _ := s.startGame("p1", "p2", "p3")

	s.Require().NoError(s.controller.DropHand(s.ctx, room.ID, "p2"))

	updated, _ := s.controller.Get(s.ctx, room.ID)
	_, ok := updated.Hands["p2"]
	s.False(ok)
}

func (s *ControllerSuite) TestDropHandWithoutGameIsNoop() {
	s.NoError(s.controller.DropHand(s.ctx, "missing", "p1"))
}

func (s *ControllerSuite) TestRepairTurnSkipsAbsentPlayer() {
	room, _ := s.startGame("p1", "p2", "p3")
	room.RemoveMember("p1")

	s.Require().NoError(s.controller.RepairTurn(s.ctx, room))

	updated, _ := s.controller.Get(s.ctx, room.ID)
	s.Equal(model.PlayerID("p2"), updated.CurrentTurn)
}

func (s *ControllerSuite) TestRepairTurnPassesToNextSeat() {
	room, game := s.startGame("p1", "p2", "p3", "p4")
	game.CurrentTurn = "p3"
	room.RemoveMember("p3")

	s.Require().NoError(s.controller.RepairTurn(s.ctx, room))

	updated, _ := s.controller.Get(s.ctx, room.ID)
	s.Equal(model.PlayerID("p4"), updated.CurrentTurn)
}

func (s *ControllerSuite) TestRepairTurnWrapsPastAbsentSeats() {
	room, game := s.startGame("p1", "p2", "p3", "p4")
	game.CurrentTurn = "p3"
	room.RemoveMember("p3")
	room.RemoveMember("p4")

	s.Require().NoError(s.controller.RepairTurn(s.ctx, room))

	updated, _ := s.controller.Get(s.ctx, room.ID)
	s.Equal(model.PlayerID("p1"), updated.CurrentTurn)
}

func (s *ControllerSuite) TestDropStale() {
	room, _ := s.startGame("p1", "p2")
	s.clock.Advance(25 * time.Hour)

	dropped, err := s.controller.DropStale(s.ctx, 24*time.Hour)
	s.Require().NoError(err)
	s.Equal(1, dropped)

	_, err = s.controller.Get(s.ctx, room.ID)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestDropStaleKeepsFreshGames() {
	_, _ = s.startGame("p1", "p2")
	s.clock.Advance(time.Hour)

	dropped, err := s.controller.DropStale(s.ctx, 24*time.Hour)
	s.Require().NoError(err)
	s.Equal(0, dropped)
}
