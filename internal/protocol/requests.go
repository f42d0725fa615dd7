// Package protocol defines the JSON frames exchanged over the game socket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/darkkD11/CardArena/internal/model"
)

// Inbound message types
const (
	TypeIdentify    = "identify"
	TypeListRooms   = "list_rooms"
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeJoinByCode  = "join_by_code"
	TypeLeaveRoom   = "leave_room"
	TypeChat        = "chat"
	TypePlayerReady = "player_ready"
	TypeAddBot      = "add_bot"
	TypeKickPlayer  = "kick_player"
	TypeStartGame   = "start_game"
	TypePlayCards   = "play_cards"
	TypePass        = "pass"
	TypeCheck       = "check"
)

// Decode errors
var (
	// ErrMalformed means the frame was not a JSON envelope; such frames are dropped unanswered
	ErrMalformed = errors.New("malformed frame")
	// ErrUnknownType means the envelope named a type this server does not handle
	ErrUnknownType = errors.New("unknown message type")
)

// Envelope is the outer shape of every frame
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is one of the inbound message variants below
type Request interface {
	request()
}

// Identify binds the connection to a player identity
type Identify struct {
	PlayerID string `json:"playerId" validate:"playerid"`
	Name     string `json:"name"`
	Avatar   int    `json:"avatar"`
	Token    string `json:"token,omitempty"` // from an earlier session_created
}

// ListRooms asks for the public room list
type ListRooms struct{}

// CreateRoom opens a new room with the sender as host
type CreateRoom struct {
	PlayerID   string `json:"playerId,omitempty" validate:"omitempty,playerid"`
	RoomName   string `json:"roomName"`
	MaxPlayers int    `json:"maxPlayers"`
	IsPrivate  bool   `json:"isPrivate"`
	Password   string `json:"password,omitempty"`
}

// JoinRoom joins by room ID
type JoinRoom struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

// JoinByCode joins by the shareable join code
type JoinByCode struct {
	Code     string `json:"code"`
	Password string `json:"password,omitempty"`
}

// LeaveRoom leaves the sender's current room
type LeaveRoom struct{}

// Chat relays a message to the sender's room
type Chat struct {
	Message string `json:"message"`
}

// PlayerReady toggles a member's ready flag
type PlayerReady struct {
	PlayerID string `json:"playerId,omitempty"`
	Ready    bool   `json:"ready"`
}

// AddBot seats a computer player
type AddBot struct {
	Difficulty string `json:"difficulty,omitempty"`
}

// KickPlayer removes a member from the host's room
type KickPlayer struct {
	PlayerID string `json:"playerId" validate:"required"`
}

// StartGame deals and starts the sender's room
type StartGame struct{}

// PlayCards puts cards face down on the pile under a claimed rank
type PlayCards struct {
	PlayerID    string   `json:"playerId,omitempty"`
	Cards       []string `json:"cards" validate:"required,min=1,max=52"`
	ClaimedRank string   `json:"claimedRank" validate:"rank"`
}

// Pass gives up the turn
type Pass struct {
	PlayerID string `json:"playerId,omitempty"`
}

// Check calls a bluff on the last play. LoserID, when set, is the
// outcome as resolved by the client and takes the pile.
type Check struct {
	PlayerID string `json:"playerId,omitempty"`
	LoserID  string `json:"loserId,omitempty" validate:"omitempty,playerid"`
}

func (Identify) request()    {}
func (ListRooms) request()   {}
func (CreateRoom) request()  {}
func (JoinRoom) request()    {}
func (JoinByCode) request()  {}
func (LeaveRoom) request()   {}
func (Chat) request()        {}
func (PlayerReady) request() {}
func (AddBot) request()      {}
func (KickPlayer) request()  {}
func (StartGame) request()   {}
func (PlayCards) request()   {}
func (Pass) request()        {}
func (Check) request()       {}

// Decode parses a text frame into its request variant. A frame that is not
// a JSON envelope yields ErrMalformed; a known type with an unusable
// payload yields an error wrapping model.ErrInvalidPayload.
func Decode(data []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		return nil, ErrMalformed
	}

	var req Request
	switch env.Type {
	case TypeIdentify:
		req = &Identify{}
	case TypeListRooms:
		return ListRooms{}, nil
	case TypeCreateRoom:
		req = &CreateRoom{}
	case TypeJoinRoom:
		req = &JoinRoom{}
	case TypeJoinByCode:
		req = &JoinByCode{}
	case TypeLeaveRoom:
		return LeaveRoom{}, nil
	case TypeChat:
		req = &Chat{}
	case TypePlayerReady:
		req = &PlayerReady{}
	case TypeAddBot:
		req = &AddBot{}
	case TypeKickPlayer:
		req = &KickPlayer{}
	case TypeStartGame:
		return StartGame{}, nil
	case TypePlayCards:
		req = &PlayCards{}
	case TypePass:
		req = &Pass{}
	case TypeCheck:
		req = &Check{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, req); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrInvalidPayload, env.Type, err)
		}
	}
	return deref(req), nil
}

// deref returns the variant by value so type switches match on value types
func deref(req Request) Request {
	switch r := req.(type) {
	case *Identify:
		return *r
	case *CreateRoom:
		return *r
	case *JoinRoom:
		return *r
	case *JoinByCode:
		return *r
	case *Chat:
		return *r
	case *PlayerReady:
		return *r
	case *AddBot:
		return *r
	case *KickPlayer:
		return *r
	case *PlayCards:
		return *r
	case *Pass:
		return *r
	case *Check:
		return *r
	}
	return req
}
