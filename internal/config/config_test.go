package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ctchen222/DrawSync/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":8001", cfg.SocketAddr)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, float64(60), cfg.MessageRate)
	assert.Equal(t, game.DefaultSettings(), cfg.Settings())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("MAX_PLAYERS_PER_ROOM", "4")
	t.Setenv("DRAWING_TIME_LIMIT", "90")
	t.Setenv("RECONNECT_GRACE", "1m")
	t.Setenv("WORD_DIFFICULTY", "hard")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)
	s := cfg.Settings()
	assert.Equal(t, 4, s.MaxPlayers)
	assert.Equal(t, 90*time.Second, s.RoundDuration)
	assert.Equal(t, time.Minute, s.ReconnectGrace)
	assert.Equal(t, game.DifficultyHard, s.Difficulty)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-dotenv-file\nROUNDS_PER_GAME=3\n"), 0o600))
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("ROUNDS_PER_GAME", "")
	os.Unsetenv("ROUNDS_PER_GAME")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv-file", cfg.JWTSecret)
	assert.Equal(t, 3, cfg.Rounds)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret":     {"JWT_SECRET": ""},
		"bad int":            {"MAX_PLAYERS_PER_ROOM": "many"},
		"bad duration":       {"DRAWING_TIME_LIMIT": "soon"},
		"min above max":      {"MAX_PLAYERS_PER_ROOM": "3", "MIN_PLAYERS_TO_START": "4"},
		"unknown difficulty": {"WORD_DIFFICULTY": "brutal"},
		"unknown log level":  {"LOG_LEVEL": "loud"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "0123456789abcdef")
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load(noEnvFile(t))
			assert.Error(t, err)
		})
	}
}
