package model

// PlayerID is the client-chosen identity of a player. The server never allocates one.
type PlayerID string

// Difficulty tags a bot's play strength
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Member is a room's view of a participant, human or bot
type Member struct {
	ID           PlayerID
	Name         string
	Avatar       int
	IsBot        bool
	Ready        bool
	Difficulty   Difficulty // bots only
	Disconnected bool
}
