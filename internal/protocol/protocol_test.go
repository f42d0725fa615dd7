package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkD11/CardArena/internal/model"
)

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Request
	}{
		{"identify", `{"type":"identify","payload":{"playerId":"p1","name":"Alice","avatar":3}}`, Identify{PlayerID: "p1", Name: "Alice", Avatar: 3}},
		{"list rooms", `{"type":"list_rooms"}`, ListRooms{}},
		{"create room", `{"type":"create_room","payload":{"roomName":"Den","maxPlayers":4,"isPrivate":true,"password":"pw"}}`, CreateRoom{RoomName: "Den", MaxPlayers: 4, IsPrivate: true, Password: "pw"}},
		{"join room", `{"type":"join_room","payload":{"roomId":"r1"}}`, JoinRoom{RoomID: "r1"}},
		{"join by code", `{"type":"join_by_code","payload":{"code":"ABC123","password":"x"}}`, JoinByCode{Code: "ABC123", Password: "x"}},
		{"leave", `{"type":"leave_room"}`, LeaveRoom{}},
		{"chat", `{"type":"chat","payload":{"message":"hi"}}`, Chat{Message: "hi"}},
		{"ready", `{"type":"player_ready","payload":{"playerId":"p1","ready":true}}`, PlayerReady{PlayerID: "p1", Ready: true}},
		{"add bot", `{"type":"add_bot","payload":{"difficulty":"hard"}}`, AddBot{Difficulty: "hard"}},
		{"kick", `{"type":"kick_player","payload":{"playerId":"p2"}}`, KickPlayer{PlayerID: "p2"}},
		{"start", `{"type":"start_game","payload":null}`, StartGame{}},
		{"play", `{"type":"play_cards","payload":{"cards":["AH","10S"],"claimedRank":"A"}}`, PlayCards{Cards: []string{"AH", "10S"}, ClaimedRank: "A"}},
		{"pass", `{"type":"pass"}`, Pass{}},
		{"check", `{"type":"check","payload":{"loserId":"p1"}}`, Check{LoserID: "p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, frame := range []string{`not json`, `{"payload":{}}`, `[]`, ``} {
		_, err := Decode([]byte(frame))
		assert.ErrorIs(t, err, ErrMalformed, frame)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeBadPayload(t *testing.T) {
	_, err := Decode([]byte(`{"type":"create_room","payload":{"maxPlayers":"four"}}`))
	assert.ErrorIs(t, err, model.ErrInvalidPayload)
	assert.Equal(t, CodeInvalidPayload, ErrorCode(err))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeOnlyHostCanKick, ErrorCode(model.ErrOnlyHostCanKick))
	assert.Equal(t, CodeRoomNotFound, ErrorCode(fmt.Errorf("lookup: %w", model.ErrRoomNotFound)))
	assert.Equal(t, CodeRateLimitExceeded, ErrorCode(model.ErrRateLimitExceeded))
	assert.Equal(t, CodeInvalidPayload, ErrorCode(model.ErrInvalidPlayerCount))
	assert.Equal(t, CodeInvalidPayload, ErrorCode(errors.New("boom")))
}

func TestRecognized(t *testing.T) {
	assert.True(t, Recognized(model.ErrOnlyHostCanStart))
	assert.True(t, Recognized(fmt.Errorf("join: %w", model.ErrRoomFull)))
	assert.False(t, Recognized(errors.New("disk on fire")))
}

func TestEncodeError(t *testing.T) {
	assert.JSONEq(t, `{"type":"error","error":"wrong_password"}`, string(EncodeError(model.ErrWrongPassword)))
}

func TestRoomViewRedactsPassword(t *testing.T) {
	room := &model.Room{
		ID:           "r1",
		Code:         "ABC123",
		Name:         "Den",
		Host:         "p1",
		Capacity:     4,
		Players:      []model.Member{{ID: "p1", Name: "Alice", Ready: true}},
		Status:       model.RoomStatusWaiting,
		PasswordHash: "$2a$04$secret",
		CreatedAt:    time.UnixMilli(1700000000000),
	}

	data := Encode(TypeRoomUpdated, RoomPayload{Room: RoomFromModel(room)})

	assert.NotContains(t, string(data), "secret")
	var decoded struct {
		Type    string `json:"type"`
		Payload struct {
			Room map[string]any `json:"room"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeRoomUpdated, decoded.Type)
	assert.Equal(t, true, decoded.Payload.Room["hasPassword"])
	assert.Equal(t, float64(1700000000000), decoded.Payload.Room["createdAt"])
}

func TestGameStartedCarriesEveryHand(t *testing.T) {
	room := &model.Room{ID: "r1", Players: []model.Member{{ID: "p1"}, {ID: "p2"}}}
	game := &model.GameState{
		CurrentTurn: "p1",
		Hands: map[model.PlayerID][]model.Card{
			"p1": {model.NewCard("A", "H")},
			"p2": {model.NewCard("10", "S")},
		},
	}

	started := GameStartedFromModel(room, game)

	assert.Equal(t, "p1", started.StarterID)
	assert.Equal(t, []Card{{ID: "10S", Rank: "10", Suit: "S"}}, started.Hands["p2"])
	assert.Len(t, started.Players, 2)
}
