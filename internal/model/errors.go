package model

import "errors"

// Common errors used across the application
var (
	// Validation errors
	ErrInvalidPlayerID = errors.New("invalid player id")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrInvalidPlayer   = errors.New("invalid player")
	ErrInvalidCards    = errors.New("invalid cards")
	ErrInvalidRank     = errors.New("invalid rank")
	ErrInvalidRoomName = errors.New("invalid room name")
	ErrEmptyMessage    = errors.New("empty message")

	// Authorization errors
	ErrUnauthorized       = errors.New("not authorized")
	ErrOnlyHostCanAddBots = errors.New("only the host can add bots")
	ErrOnlyHostCanKick    = errors.New("only the host can kick players")
	ErrOnlyHostCanStart   = errors.New("only the host can start the game")
	ErrCannotKickSelf     = errors.New("host cannot kick themselves")

	// Resource errors
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrServerFull         = errors.New("server has reached its room limit")
	ErrPlayerNotInRoom    = errors.New("player is not in room")
	ErrNotInRoom          = errors.New("caller is not in a room")
	ErrGameNotFound       = errors.New("game not found")
	ErrInvalidPlayerCount = errors.New("invalid player count")

	// State errors
	ErrAlreadyInRoom      = errors.New("player is already in room")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrWrongPassword      = errors.New("wrong room password")

	// Throughput errors
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// Session errors
	ErrSessionCreationFailed = errors.New("session creation failed")
)
