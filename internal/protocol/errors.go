package protocol

import (
	"errors"

	"github.com/darkkD11/CardArena/internal/model"
)

// Error codes sent in error frames
const (
	CodeInvalidPlayerID       = "invalid_player_id"
	CodeInvalidPayload        = "invalid_payload"
	CodeInvalidPlayer         = "invalid_player"
	CodeInvalidCards          = "invalid_cards"
	CodeInvalidRank           = "invalid_rank"
	CodeInvalidRoomName       = "invalid_room_name"
	CodeEmptyMessage          = "empty_message"
	CodeNotAuthorized         = "not_authorized"
	CodeOnlyHostCanAddBots    = "only_host_can_add_bots"
	CodeOnlyHostCanKick       = "only_host_can_kick"
	CodeOnlyHostCanStart      = "only_host_can_start"
	CodeCannotKickSelf        = "cannot_kick_self"
	CodeRoomNotFound          = "room_not_found"
	CodeRoomFull              = "room_full"
	CodeServerFull            = "server_full"
	CodePlayerNotInRoom       = "player_not_in_room"
	CodeNotInRoom             = "not_in_room"
	CodeAlreadyInRoom         = "already_in_room"
	CodeGameAlreadyStarted    = "game_already_started"
	CodeNotEnoughPlayers      = "not_enough_players"
	CodeWrongPassword         = "wrong_password"
	CodeRateLimitExceeded     = "rate_limit_exceeded"
	CodeSessionCreationFailed = "session_creation_failed"
)

var codes = []struct {
	err  error
	code string
}{
	{model.ErrInvalidPlayerID, CodeInvalidPlayerID},
	{model.ErrInvalidPayload, CodeInvalidPayload},
	{model.ErrInvalidPlayerCount, CodeInvalidPayload},
	{model.ErrGameNotFound, CodeInvalidPayload},
	{model.ErrInvalidPlayer, CodeInvalidPlayer},
	{model.ErrInvalidCards, CodeInvalidCards},
	{model.ErrInvalidRank, CodeInvalidRank},
	{model.ErrInvalidRoomName, CodeInvalidRoomName},
	{model.ErrEmptyMessage, CodeEmptyMessage},
	{model.ErrUnauthorized, CodeNotAuthorized},
	{model.ErrOnlyHostCanAddBots, CodeOnlyHostCanAddBots},
	{model.ErrOnlyHostCanKick, CodeOnlyHostCanKick},
	{model.ErrOnlyHostCanStart, CodeOnlyHostCanStart},
	{model.ErrCannotKickSelf, CodeCannotKickSelf},
	{model.ErrRoomNotFound, CodeRoomNotFound},
	{model.ErrRoomFull, CodeRoomFull},
	{model.ErrServerFull, CodeServerFull},
	{model.ErrPlayerNotInRoom, CodePlayerNotInRoom},
	{model.ErrNotInRoom, CodeNotInRoom},
	{model.ErrAlreadyInRoom, CodeAlreadyInRoom},
	{model.ErrGameAlreadyStarted, CodeGameAlreadyStarted},
	{model.ErrNotEnoughPlayers, CodeNotEnoughPlayers},
	{model.ErrWrongPassword, CodeWrongPassword},
	{model.ErrRateLimitExceeded, CodeRateLimitExceeded},
	{model.ErrSessionCreationFailed, CodeSessionCreationFailed},
}

// ErrorCode maps an error to its wire code. Unrecognised errors are
// reported as invalid_payload rather than leaking internals.
func ErrorCode(err error) string {
	if code, ok := lookup(err); ok {
		return code
	}
	return CodeInvalidPayload
}

// Recognized reports whether err maps to a specific wire code
func Recognized(err error) bool {
	_, ok := lookup(err)
	return ok
}

func lookup(err error) (string, bool) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, true
		}
	}
	return "", false
}
