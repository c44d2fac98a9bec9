package game

import "time"

// Difficulty tiers understood by the word bank.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Settings are the per-room game rules.
type Settings struct {
	MaxPlayers     int           `validate:"gte=2"`
	MinPlayers     int           `validate:"gte=1,ltefield=MaxPlayers"`
	MaxRounds      int           `validate:"gte=1"`
	RoundDuration  time.Duration `validate:"gte=1s"`
	GraceDelay     time.Duration `validate:"gte=0s"`
	ReconnectGrace time.Duration `validate:"gte=0s"`
	Difficulty     string        `validate:"oneof=easy medium hard"`
	GuessBaseScore int           `validate:"gte=0"`
	DrawerBonus    int           `validate:"gte=0"`
}

// DefaultSettings mirrors the defaults of the hosted game.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:     8,
		MinPlayers:     2,
		MaxRounds:      5,
		RoundDuration:  60 * time.Second,
		GraceDelay:     3 * time.Second,
		ReconnectGrace: 20 * time.Second,
		Difficulty:     DifficultyMedium,
		GuessBaseScore: 100,
		DrawerBonus:    50,
	}
}
