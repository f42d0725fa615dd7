package model

import "time"

// Rank is a card rank token as sent on the wire
type Rank string

// Suit is a single-letter card suit
type Suit string

// Ranks in deck order
var Ranks = []Rank{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Suits in deck order
var Suits = []Suit{"H", "D", "C", "S"}

// DeckSize is the number of cards in a full deck
const DeckSize = 52

// Card is a playing card, identified by rank followed by suit (e.g. "10H")
type Card struct {
	ID   string
	Rank Rank
	Suit Suit
}

// NewCard builds a card from its rank and suit
func NewCard(rank Rank, suit Suit) Card {
	return Card{ID: string(rank) + string(suit), Rank: rank, Suit: suit}
}

// NewDeck returns an unshuffled 52-card deck
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, NewCard(rank, suit))
		}
	}
	return deck
}

// IsValidRank checks a rank token against the known ranks
func IsValidRank(s string) bool {
	for _, r := range Ranks {
		if string(r) == s {
			return true
		}
	}
	return false
}

// PileEntry is a face-down card on the pile with the player who played it
type PileEntry struct {
	CardID string
	Owner  PlayerID
}

// GameState is the bookkeeping kept for a room while it is playing.
// Play and check outcomes are relayed from clients, only the deal is authoritative.
type GameState struct {
	RoomID      RoomID
	Hands       map[PlayerID][]Card
	Pile        []PileEntry
	Seats       []PlayerID // seating order at the deal
	CurrentTurn PlayerID
	ClaimedRank Rank // empty when no claim is active
	StartedAt   time.Time
}

// CardCount returns the total number of cards across hands and the pile
func (g *GameState) CardCount() int {
	total := len(g.Pile)
	for _, hand := range g.Hands {
		total += len(hand)
	}
	return total
}

// HandCounts returns the number of cards each player holds
func (g *GameState) HandCounts() map[PlayerID]int {
	counts := make(map[PlayerID]int, len(g.Hands))
	for id, hand := range g.Hands {
		counts[id] = len(hand)
	}
	return counts
}

// ParseCard reads a card ID such as "QS" or "10H"
func ParseCard(id string) (Card, bool) {
	if len(id) < 2 {
		return Card{}, false
	}
	rank, suit := id[:len(id)-1], Suit(id[len(id)-1:])
	if !IsValidRank(rank) {
		return Card{}, false
	}
	for _, s := range Suits {
		if s == suit {
			return NewCard(Rank(rank), suit), true
		}
	}
	return Card{}, false
}
