package protocol

import (
	"encoding/json"

	"github.com/darkkD11/CardArena/internal/model"
)

// Outbound message types
const (
	TypeSessionCreated     = "session_created"
	TypeRoomsList          = "rooms_list"
	TypeRoomCreated        = "room_created"
	TypeJoinedRoom         = "joined_room"
	TypeRoomUpdated        = "room_updated"
	TypeLeftRoom           = "left_room"
	TypeKicked             = "kicked"
	TypeGameStateRestore   = "game_state_restore"
	TypePlayerPlayed       = "player_played"
	TypePlayerPassed       = "player_passed"
	TypePlayerChecked      = "player_checked"
	TypePlayerDisconnected = "player_disconnected"
	TypePlayerReconnected  = "player_reconnected"
	TypePlayerTimeout      = "player_timeout"
	TypeError              = "error"
)

// Message is an outbound frame
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Encode marshals a frame
func Encode(msgType string, payload any) []byte {
	data, _ := json.Marshal(Message{Type: msgType, Payload: payload})
	return data
}

// EncodeError marshals an error frame for err
func EncodeError(err error) []byte {
	data, _ := json.Marshal(Message{Type: TypeError, Error: ErrorCode(err)})
	return data
}

// Member is a room member as sent to clients
type Member struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       int    `json:"avatar"`
	IsBot        bool   `json:"isBot"`
	Ready        bool   `json:"ready"`
	Difficulty   string `json:"difficulty,omitempty"`
	Disconnected bool   `json:"disconnected,omitempty"`
}

// MemberFromModel converts a model.Member
func MemberFromModel(m model.Member) Member {
	return Member{
		ID:           string(m.ID),
		Name:         m.Name,
		Avatar:       m.Avatar,
		IsBot:        m.IsBot,
		Ready:        m.Ready,
		Difficulty:   string(m.Difficulty),
		Disconnected: m.Disconnected,
	}
}

// Room is a room as sent to clients. The password is reduced to HasPassword.
type Room struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Host        string   `json:"host"`
	MaxPlayers  int      `json:"maxPlayers"`
	Players     []Member `json:"players"`
	Status      string   `json:"status"`
	IsPrivate   bool     `json:"isPrivate"`
	HasPassword bool     `json:"hasPassword"`
	CreatedAt   int64    `json:"createdAt"`
}

// RoomFromModel converts a model.Room
func RoomFromModel(r *model.Room) Room {
	players := make([]Member, len(r.Players))
	for i, m := range r.Players {
		players[i] = MemberFromModel(m)
	}
	return Room{
		ID:          string(r.ID),
		Code:        string(r.Code),
		Name:        r.Name,
		Host:        string(r.Host),
		MaxPlayers:  r.Capacity,
		Players:     players,
		Status:      string(r.Status),
		IsPrivate:   r.Private,
		HasPassword: r.HasPassword(),
		CreatedAt:   r.CreatedAt.UnixMilli(),
	}
}

// RoomsFromModel converts a room list
func RoomsFromModel(rooms []*model.Room) []Room {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = RoomFromModel(r)
	}
	return out
}

// Card is a card as sent to clients
type Card struct {
	ID   string `json:"id"`
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// CardsFromModel converts a hand
func CardsFromModel(cards []model.Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = Card{ID: c.ID, Rank: string(c.Rank), Suit: string(c.Suit)}
	}
	return out
}

// SessionCreated answers identify
type SessionCreated struct {
	PlayerID     string `json:"playerId"`
	ConnectionID string `json:"connectionId"`
	Token        string `json:"token"`
	Name         string `json:"name"`
	Avatar       int    `json:"avatar"`
}

// RoomsList carries the public lobby
type RoomsList struct {
	Rooms []Room `json:"rooms"`
}

// RoomPayload wraps a room for room_created, joined_room and room_updated
type RoomPayload struct {
	Room Room `json:"room"`
}

// LeftRoom confirms a leave
type LeftRoom struct {
	RoomID string `json:"roomId"`
}

// Kicked tells a removed player which room they were removed from
type Kicked struct {
	RoomID string `json:"roomId"`
	By     string `json:"by"`
}

// ChatMessage is a relayed chat line
type ChatMessage struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// GameStarted is the start_game broadcast. Every member receives every hand.
type GameStarted struct {
	RoomID    string            `json:"roomId"`
	StarterID string            `json:"starterId"`
	Hands     map[string][]Card `json:"hands"`
	Players   []Member          `json:"players"`
}

// GameStartedFromModel builds the start_game payload
func GameStartedFromModel(r *model.Room, g *model.GameState) GameStarted {
	hands := make(map[string][]Card, len(g.Hands))
	for id, hand := range g.Hands {
		hands[string(id)] = CardsFromModel(hand)
	}
	players := make([]Member, len(r.Players))
	for i, m := range r.Players {
		players[i] = MemberFromModel(m)
	}
	return GameStarted{
		RoomID:    string(r.ID),
		StarterID: string(g.CurrentTurn),
		Hands:     hands,
		Players:   players,
	}
}

// GameStateRestore resyncs a reconnecting player
type GameStateRestore struct {
	RoomID      string         `json:"roomId"`
	Hand        []Card         `json:"hand"`
	PileOwners  []string       `json:"pileOwners"`
	PileSize    int            `json:"pileSize"`
	CurrentTurn string         `json:"currentTurn"`
	ClaimedRank string         `json:"claimedRank,omitempty"`
	CardCounts  map[string]int `json:"cardCounts"`
}

// PlayerPlayed relays a play
type PlayerPlayed struct {
	PlayerID    string   `json:"playerId"`
	Cards       []string `json:"cards"`
	CardCount   int      `json:"cardCount"`
	ClaimedRank string   `json:"claimedRank"`
	NextTurn    string   `json:"nextTurn"`
	PileSize    int      `json:"pileSize"`
}

// PlayerPassed relays a pass
type PlayerPassed struct {
	PlayerID string `json:"playerId"`
	NextTurn string `json:"nextTurn"`
}

// PlayerChecked relays a bluff call
type PlayerChecked struct {
	PlayerID    string `json:"playerId"`
	LoserID     string `json:"loserId,omitempty"`
	CardsTaken  int    `json:"cardsTaken,omitempty"`
	CurrentTurn string `json:"currentTurn"`
}

// PlayerDisconnected announces a held seat
type PlayerDisconnected struct {
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	GracePeriod int64  `json:"gracePeriod"` // milliseconds
}

// PlayerStatus names a player for reconnect and timeout notices
type PlayerStatus struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}
