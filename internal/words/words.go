package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"ctchen222/DrawSync/internal/game"
)

var defaultTiers = map[string][]string{
	game.DifficultyEasy: {
		"cat", "dog", "house", "tree", "sun", "moon", "star", "flower", "bird", "fish",
		"car", "boat", "plane", "train", "bike", "chair", "table", "book", "phone", "computer",
		"apple", "banana", "orange", "pizza", "hamburger", "ice cream", "cake", "bread", "milk", "water",
	},
	game.DifficultyMedium: {
		"elephant", "giraffe", "penguin", "dolphin", "butterfly", "dragon", "castle", "bridge", "mountain", "ocean",
		"forest", "desert", "volcano", "waterfall", "rainbow", "thunder", "lightning", "snow", "rain", "wind",
		"robot", "spaceship", "rocket", "submarine", "helicopter", "skyscraper", "lighthouse", "windmill", "telescope", "microscope",
	},
	game.DifficultyHard: {
		"phoenix", "unicorn", "centaur", "mermaid", "vampire", "werewolf", "ghost", "zombie", "alien", "cyborg",
		"time machine", "teleporter", "hologram", "laser", "quantum", "black hole", "galaxy", "nebula", "asteroid", "meteor",
		"pyramid", "colosseum", "parthenon", "taj mahal", "great wall", "eiffel tower", "statue of liberty", "big ben", "sydney opera house", "petronas towers",
	},
}

// Bank is a difficulty-tiered word list safe for concurrent use.
type Bank struct {
	mu    sync.RWMutex
	tiers map[string][]string
}

// NewBank returns a bank seeded with the built-in word lists.
func NewBank() *Bank {
	tiers := make(map[string][]string, len(defaultTiers))
	for k, v := range defaultTiers {
		tiers[k] = append([]string(nil), v...)
	}
	return &Bank{tiers: tiers}
}

// LoadFile extends the bank with the words in path, one per line. The custom
// words are split in thirds across easy, medium and hard. A missing file is
// not an error.
func (b *Bank) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no custom words file", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open words file: %w", err)
	}
	defer f.Close()

	n, err := b.Load(f)
	if err != nil {
		return fmt.Errorf("failed to read words file %s: %w", path, err)
	}
	slog.Info("loaded custom words", "path", path, "words.count", n)
	return nil
}

// Load reads newline-separated words from r and returns how many were added.
func (b *Bank) Load(r io.Reader) (int, error) {
	var custom []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if w := strings.ToLower(strings.TrimSpace(scanner.Text())); w != "" {
			custom = append(custom, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	chunk := len(custom) / 3
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tiers[game.DifficultyEasy] = append(b.tiers[game.DifficultyEasy], custom[:chunk]...)
	b.tiers[game.DifficultyMedium] = append(b.tiers[game.DifficultyMedium], custom[chunk:2*chunk]...)
	b.tiers[game.DifficultyHard] = append(b.tiers[game.DifficultyHard], custom[2*chunk:]...)
	return len(custom), nil
}

// Add appends a single word to a tier, falling back to medium for unknown tiers.
func (b *Bank) Add(word, difficulty string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tiers[difficulty]; !ok {
		difficulty = game.DifficultyMedium
	}
	b.tiers[difficulty] = append(b.tiers[difficulty], word)
}

// RandomWord picks a word uniformly from the tier. Unknown tiers fall back to medium.
func (b *Bank) RandomWord(difficulty string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list, ok := b.tiers[difficulty]
	if !ok || len(list) == 0 {
		list = b.tiers[game.DifficultyMedium]
	}
	return list[rand.IntN(len(list))]
}

// Words returns a copy of the tier.
func (b *Bank) Words(difficulty string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.tiers[difficulty]...)
}
