// Package validation holds the stateless checks applied to client input.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/darkkD11/CardArena/internal/model"
)

// AvatarCount is the number of selectable avatars; valid indices are [0, AvatarCount)
const AvatarCount = 20

var playerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,30}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("playerid", func(fl validator.FieldLevel) bool {
		return PlayerID(fl.Field().String())
	})
	_ = v.RegisterValidation("rank", func(fl validator.FieldLevel) bool {
		return Rank(fl.Field().String())
	})
	return v
}

// Sanitize trims s, strips control characters and angle brackets and
// truncates the result to maxLen runes
func Sanitize(s string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if maxLen > 0 && len(runes) > maxLen {
		cleaned = strings.TrimSpace(string(runes[:maxLen]))
	}
	return cleaned
}

// PlayerID checks an identifier against the 1-30 character [A-Za-z0-9_-] pattern
func PlayerID(id string) bool {
	return playerIDPattern.MatchString(id)
}

// Avatar checks an avatar index
func Avatar(index int) bool {
	return index >= 0 && index < AvatarCount
}

// PlayerCount checks a room capacity against the configured bounds
func PlayerCount(n, minPlayers, maxPlayers int) bool {
	return n >= minPlayers && n <= maxPlayers
}

// Difficulty normalises a bot difficulty tag, defaulting to medium
func Difficulty(tag string) model.Difficulty {
	switch d := model.Difficulty(strings.ToLower(strings.TrimSpace(tag))); d {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
		return d
	default:
		return model.DifficultyMedium
	}
}

// Rank checks a claimed rank token
func Rank(token string) bool {
	return model.IsValidRank(token)
}

// Check validates v's struct tags. The first failing field is mapped through
// fieldErrs, falling back to model.ErrInvalidPayload.
func Check(v any, fieldErrs map[string]error) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if mapped, ok := fieldErrs[verrs[0].Field()]; ok {
			return mapped
		}
	}
	return model.ErrInvalidPayload
}
