package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/dependencies/random"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/storage"
)

// MinPlayers is the fewest members a game can start with
const MinPlayers = 2

// PlayResult describes an accepted play
type PlayResult struct {
	PlayerID    model.PlayerID
	Cards       []string // IDs actually moved to the pile
	ClaimedRank model.Rank
	NextTurn    model.PlayerID
	PileSize    int
}

// CheckResult describes a relayed bluff call
type CheckResult struct {
	CheckerID model.PlayerID
	LoserID   model.PlayerID // empty when the caller did not report an outcome
	Taken     int            // cards moved from the pile to the loser
	Turn      model.PlayerID
}

// Restore is the view a reconnecting player needs to resume
type Restore struct {
	Hand        []model.Card
	PileOwners  []model.PlayerID // who played each face-down pile card, bottom first
	CurrentTurn model.PlayerID
	ClaimedRank model.Rank
	CardCounts  map[model.PlayerID]int
}

// Controller owns the authoritative deal and the turn/pile bookkeeping.
// Claims and bluff outcomes come from clients and are not verified.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "game")),
	}
}

// Start moves the room from waiting to playing and deals a shuffled deck
// round-robin in seating order. The host takes the first turn.
func (c *Controller) Start(ctx context.Context, room *model.Room, callerID model.PlayerID) (*model.GameState, error) {
	if !room.IsHost(callerID) {
		return nil, model.ErrOnlyHostCanStart
	}
	if room.Status == model.RoomStatusPlaying {
		return nil, model.ErrGameAlreadyStarted
	}
	if len(room.Players) < MinPlayers {
		return nil, model.ErrNotEnoughPlayers
	}

	deck := model.NewDeck()
	random.Shuffle(c.random, len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	game := &model.GameState{
		RoomID:      room.ID,
		Hands:       Deal(deck, room.Players),
		Pile:        []model.PileEntry{},
		Seats:       seats(room.Players),
		CurrentTurn: room.Host,
		StartedAt:   c.clock.Now(),
	}

	room.Status = model.RoomStatusPlaying
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("room_id", string(room.ID)),
		slog.Int("players", len(room.Players)),
		slog.String("starter", string(game.CurrentTurn)))

	return game, nil
}

// Deal distributes deck round-robin starting with the first member
func Deal(deck []model.Card, members []model.Member) map[model.PlayerID][]model.Card {
	hands := make(map[model.PlayerID][]model.Card, len(members))
	if len(members) == 0 {
		return hands
	}
	for _, m := range members {
		hands[m.ID] = make([]model.Card, 0, len(deck)/len(members)+1)
	}
	for i, card := range deck {
		id := members[i%len(members)].ID
		hands[id] = append(hands[id], card)
	}
	return hands
}

func seats(members []model.Member) []model.PlayerID {
	ids := make([]model.PlayerID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

// Get returns the game state of a room
func (c *Controller) Get(ctx context.Context, roomID model.RoomID) (*model.GameState, error) {
	return c.storage.GetGame(ctx, roomID)
}

// RecordPlay moves the listed cards from playerID's hand to the pile under
// the claimed rank and passes the turn on. Listed IDs the player does not
// hold are ignored.
func (c *Controller) RecordPlay(ctx context.Context, room *model.Room, playerID model.PlayerID, cardIDs []string, rank string) (*PlayResult, error) {
	if len(cardIDs) == 0 {
		return nil, model.ErrInvalidCards
	}
	if !model.IsValidRank(rank) {
		return nil, model.ErrInvalidRank
	}

	game, err := c.storage.GetGame(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if game.CurrentTurn != playerID {
		return nil, model.ErrUnauthorized
	}

	wanted := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		wanted[id] = true
	}

	hand := game.Hands[playerID]
	kept := hand[:0]
	var moved []string
	for _, card := range hand {
		if wanted[card.ID] {
			moved = append(moved, card.ID)
			game.Pile = append(game.Pile, model.PileEntry{CardID: card.ID, Owner: playerID})
			delete(wanted, card.ID)
			continue
		}
		kept = append(kept, card)
	}
	game.Hands[playerID] = kept
	game.ClaimedRank = model.Rank(rank)
	game.CurrentTurn = room.NextPlayer(playerID)

	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	return &PlayResult{
		PlayerID:    playerID,
		Cards:       moved,
		ClaimedRank: game.ClaimedRank,
		NextTurn:    game.CurrentTurn,
		PileSize:    len(game.Pile),
	}, nil
}

// RecordPass passes the turn on without playing
func (c *Controller) RecordPass(ctx context.Context, room *model.Room, playerID model.PlayerID) (model.PlayerID, error) {
	game, err := c.storage.GetGame(ctx, room.ID)
	if err != nil {
		return "", err
	}
	if game.CurrentTurn != playerID {
		return "", model.ErrUnauthorized
	}

	game.CurrentTurn = room.NextPlayer(playerID)
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return "", err
	}
	return game.CurrentTurn, nil
}

// RecordCheck relays a bluff call. When the caller reports who lost, the
// pile moves into that player's hand and the claim is cleared; the server
// does not decide the outcome itself.
func (c *Controller) RecordCheck(ctx context.Context, room *model.Room, checkerID, loserID model.PlayerID) (*CheckResult, error) {
	game, err := c.storage.GetGame(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{CheckerID: checkerID, Turn: game.CurrentTurn}
	if loserID == "" {
		return result, nil
	}
	if _, ok := game.Hands[loserID]; !ok {
		return nil, model.ErrInvalidPlayer
	}

	for _, entry := range game.Pile {
		if card, ok := model.ParseCard(entry.CardID); ok {
			game.Hands[loserID] = append(game.Hands[loserID], card)
			result.Taken++
		}
	}
	game.Pile = []model.PileEntry{}
	game.ClaimedRank = ""

	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	result.LoserID = loserID
	return result, nil
}

// Restore builds the resync view for playerID
func (c *Controller) Restore(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*Restore, error) {
	game, err := c.storage.GetGame(ctx, roomID)
	if err != nil {
		return nil, err
	}

	hand := append([]model.Card(nil), game.Hands[playerID]...)
	owners := make([]model.PlayerID, len(game.Pile))
	for i, entry := range game.Pile {
		owners[i] = entry.Owner
	}
	return &Restore{
		Hand:        hand,
		PileOwners:  owners,
		CurrentTurn: game.CurrentTurn,
		ClaimedRank: game.ClaimedRank,
		CardCounts:  game.HandCounts(),
	}, nil
}

// RepairTurn passes the turn to the next seat still at the table when its
// holder has left
func (c *Controller) RepairTurn(ctx context.Context, room *model.Room) error {
	game, err := c.storage.GetGame(ctx, room.ID)
	if errors.Is(err, model.ErrGameNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if room.HasMember(game.CurrentTurn) || len(room.Players) == 0 {
		return nil
	}
	game.CurrentTurn = successor(game.Seats, game.CurrentTurn, room)
	return c.storage.SaveGame(ctx, game)
}

// successor walks the deal order from current to the first seat that is
// still occupied. Seats joined after the deal fall back to table order.
func successor(seats []model.PlayerID, current model.PlayerID, room *model.Room) model.PlayerID {
	for i, id := range seats {
		if id != current {
			continue
		}
		for k := 1; k < len(seats); k++ {
			if next := seats[(i+k)%len(seats)]; room.HasMember(next) {
				return next
			}
		}
		break
	}
	return room.Players[0].ID
}

// DropHand forgets playerID's hand
func (c *Controller) DropHand(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	game, err := c.storage.GetGame(ctx, roomID)
	if errors.Is(err, model.ErrGameNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	delete(game.Hands, playerID)
	return c.storage.SaveGame(ctx, game)
}

// DropStale deletes game state started more than maxAge ago and returns how many went
func (c *Controller) DropStale(ctx context.Context, maxAge time.Duration) (int, error) {
	games, err := c.storage.ListGames(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := c.clock.Now().Add(-maxAge)
	dropped := 0
	for _, game := range games {
		if game.StartedAt.Before(cutoff) {
			if err := c.storage.DeleteGame(ctx, game.RoomID); err != nil {
				return dropped, err
			}
			dropped++
			c.logger.Info("stale game dropped", slog.String("room_id", string(game.RoomID)))
		}
	}
	return dropped, nil
}

// ControllerInterface defines the interface for game controller operations
type ControllerInterface interface {
	Start(ctx context.Context, room *model.Room, callerID model.PlayerID) (*model.GameState, error)
	Get(ctx context.Context, roomID model.RoomID) (*model.GameState, error)
	RecordPlay(ctx context.Context, room *model.Room, playerID model.PlayerID, cardIDs []string, rank string) (*PlayResult, error)
	RecordPass(ctx context.Context, room *model.Room, playerID model.PlayerID) (model.PlayerID, error)
	RecordCheck(ctx context.Context, room *model.Room, checkerID, loserID model.PlayerID) (*CheckResult, error)
	Restore(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*Restore, error)
	RepairTurn(ctx context.Context, room *model.Room) error
	DropHand(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error
	DropStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// Ensure Controller implements ControllerInterface
var _ ControllerInterface = (*Controller)(nil)
