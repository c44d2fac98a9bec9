package game

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Phase is the state of a room's round state machine.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseDrawing  Phase = "drawing"
	PhaseRoundEnd Phase = "round_end"
)

// GuessResult is the outcome of evaluating a guess. Evaluation never fails
// with an error; rejected guesses are reported through the result.
type GuessResult int

const (
	GuessIncorrect GuessResult = iota
	GuessCorrect
	GuessAlreadyGuessed
	GuessNotAllowed
)

func (g GuessResult) String() string {
	switch g {
	case GuessCorrect:
		return "correct"
	case GuessAlreadyGuessed:
		return "already guessed"
	case GuessNotAllowed:
		return "not allowed"
	default:
		return "incorrect"
	}
}

// Stroke is one incremental drawing input, relayed verbatim.
type Stroke struct {
	UserID       int64   `json:"user_id"`
	Username     string  `json:"username"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	IsDrawing    bool    `json:"is_drawing"`
	IsFirstPoint bool    `json:"is_first_point"`
	Color        string  `json:"color"`
	BrushSize    float64 `json:"brush_size"`
	Timestamp    float64 `json:"timestamp"`
}

// Round holds the data that is reset at the start of every round.
type Round struct {
	Number     int
	DrawerID   int64
	Word       string
	StartedAt  time.Time
	Deadline   time.Time
	Generation uint64
	Guessed    map[int64]struct{}
	Strokes    []Stroke
}

// Reset starts a fresh round for drawerID with word, bumping the generation
// so timers scheduled for earlier rounds are ignored.
func (r *Round) Reset(number int, drawerID int64, word string, now time.Time, d time.Duration) {
	r.Number = number
	r.DrawerID = drawerID
	r.Word = word
	r.StartedAt = now
	r.Deadline = now.Add(d)
	r.Generation++
	r.Guessed = make(map[int64]struct{})
	r.Strokes = r.Strokes[:0]
}

// Clear drops the word and strokes, used when a round or game ends.
func (r *Round) Clear() {
	r.Word = ""
	r.DrawerID = 0
	r.Guessed = nil
	r.Strokes = nil
	r.Generation++
}

// TimeRemaining is the whole seconds left before the deadline, never negative.
func (r *Round) TimeRemaining(now time.Time) int {
	if r.Deadline.IsZero() {
		return 0
	}
	left := r.Deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Evaluate checks a guess against the secret word and, when correct,
// records the guesser.
func (r *Round) Evaluate(userID int64, text string) GuessResult {
	if r.Word == "" || userID == r.DrawerID {
		return GuessNotAllowed
	}
	if _, ok := r.Guessed[userID]; ok {
		return GuessAlreadyGuessed
	}
	if NormalizeGuess(text) != NormalizeGuess(r.Word) {
		return GuessIncorrect
	}
	if r.Guessed == nil {
		r.Guessed = make(map[int64]struct{})
	}
	r.Guessed[userID] = struct{}{}
	return GuessCorrect
}

// NormalizeGuess lowercases and trims a guess for exact comparison.
func NormalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Mask replaces every character of word with an underscore.
func Mask(word string) string {
	return strings.Repeat("_", utf8.RuneCountInString(word))
}

// GuessScore is the guesser's award: the base score plus one point per
// whole second remaining.
func GuessScore(base, secondsRemaining int) int {
	return base + max(0, secondsRemaining)
}
