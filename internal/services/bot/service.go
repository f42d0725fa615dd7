package bot

import (
	"log/slog"
	"strings"

	"github.com/darkkD11/CardArena/internal/dependencies/random"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/validation"
)

const (
	// PlayerIDAlphabet is the character set for generating bot player IDs
	PlayerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// PlayerIDLength is the length of the random part of a bot player ID
	PlayerIDLength = 8
	// PlayerIDPrefix marks a player ID as belonging to a bot
	PlayerIDPrefix = "bot-"
)

// Names bots are drawn from
var Names = []string{
	"Ace", "Bluffmaster", "Card Shark", "Deuce", "Poker Face",
	"Lucky", "Sly Fox", "Joker", "Maverick", "Wildcard",
	"Dealer", "High Roller", "Queenie", "King Kong", "Trickster",
}

// Service generates computer-controlled members. Their play is driven by
// clients; the server only seats them.
type Service struct {
	random random.Random
	logger *slog.Logger
}

// NewService creates a new bot Service
func NewService(rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		random: rnd,
		logger: logger.With(slog.String("component", "bot-service")),
	}
}

// NewMember builds a ready bot member for room with a random name and avatar.
// Names already used in the room are avoided while any remain.
func (s *Service) NewMember(room *model.Room, difficulty model.Difficulty) model.Member {
	var id model.PlayerID
	for {
		id = model.PlayerID(PlayerIDPrefix + s.random.String(PlayerIDLength, PlayerIDAlphabet))
		if room == nil || !room.HasMember(id) {
			break
		}
	}

	member := model.Member{
		ID:         id,
		Name:       s.pickName(room),
		Avatar:     s.random.Intn(validation.AvatarCount),
		IsBot:      true,
		Ready:      true,
		Difficulty: difficulty,
	}

	s.logger.Debug("bot generated",
		slog.String("bot_id", string(member.ID)),
		slog.String("bot_name", member.Name),
		slog.String("difficulty", string(difficulty)))

	return member
}

func (s *Service) pickName(room *model.Room) string {
	free := make([]string, 0, len(Names))
	for _, name := range Names {
		if room == nil || !nameTaken(room, name) {
			free = append(free, name)
		}
	}
	if len(free) == 0 {
		free = Names
	}
	return free[s.random.Intn(len(free))]
}

func nameTaken(room *model.Room, name string) bool {
	for _, m := range room.Players {
		if m.Name == name {
			return true
		}
	}
	return false
}

// IsBotID reports whether id was generated for a bot
func IsBotID(id model.PlayerID) bool {
	return len(id) > len(PlayerIDPrefix) && strings.HasPrefix(string(id), PlayerIDPrefix)
}
