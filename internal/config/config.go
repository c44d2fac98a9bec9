package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/validator"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	HTTPAddr          string        `validate:"required"`
	SocketAddr        string        `validate:"required"`
	RedisAddr         string        `validate:"required"`
	DatabasePath      string        `validate:"required"`
	OtelCollectorAddr string        `validate:"required"`
	ServerID          string        `validate:"required"`
	JWTSecret         string        `validate:"required,min=8"`
	TokenTTL          time.Duration `validate:"gt=0"`
	LogLevel          string        `validate:"oneof=debug info warn error"`
	WordsFile         string

	MaxPlayers     int           `validate:"min=2"`
	MinPlayers     int           `validate:"min=1,ltefield=MaxPlayers"`
	Rounds         int           `validate:"min=1"`
	RoundDuration  time.Duration `validate:"gt=0"`
	GraceDelay     time.Duration `validate:"gte=0"`
	ReconnectGrace time.Duration `validate:"gte=0"`
	Difficulty     string        `validate:"oneof=easy medium hard"`
	GuessBaseScore int           `validate:"gte=0"`
	DrawerBonus    int           `validate:"gte=0"`

	MessageRate  float64 `validate:"gt=0"`
	MessageBurst int     `validate:"gt=0"`
}

// Load reads the given .env files (".env" if none are named; missing files
// are fine), then the environment, applies defaults and validates.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	hostname, _ := os.Hostname()
	e := &env{}
	cfg := &Config{
		HTTPAddr:          e.str("HTTP_ADDR", ":8080"),
		SocketAddr:        e.str("SOCKET_ADDR", ":8001"),
		RedisAddr:         e.str("REDIS_CONNSTRING", "localhost:6379"),
		DatabasePath:      e.str("DATABASE_PATH", "./drawsync.db"),
		OtelCollectorAddr: e.str("OTEL_COLLECTOR_ADDR", "otel-collector:4317"),
		ServerID:          e.str("SERVER_ID", hostname),
		JWTSecret:         e.str("JWT_SECRET", ""),
		TokenTTL:          e.duration("TOKEN_TTL", 72*time.Hour),
		LogLevel:          e.str("LOG_LEVEL", "info"),
		WordsFile:         e.str("WORDS_FILE", "words.txt"),

		MaxPlayers:     e.int("MAX_PLAYERS_PER_ROOM", 8),
		MinPlayers:     e.int("MIN_PLAYERS_TO_START", 2),
		Rounds:         e.int("ROUNDS_PER_GAME", 5),
		RoundDuration:  e.duration("DRAWING_TIME_LIMIT", 60*time.Second),
		GraceDelay:     e.duration("ROUND_GRACE_DELAY", 3*time.Second),
		ReconnectGrace: e.duration("RECONNECT_GRACE", 20*time.Second),
		Difficulty:     e.str("WORD_DIFFICULTY", game.DifficultyMedium),
		GuessBaseScore: e.int("GUESS_BASE_SCORE", 100),
		DrawerBonus:    e.int("DRAWER_BONUS", 50),

		MessageRate:  e.float("MESSAGE_RATE", 60),
		MessageBurst: e.int("MESSAGE_BURST", 120),
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Settings maps the game knobs onto room settings.
func (c *Config) Settings() game.Settings {
	return game.Settings{
		MaxPlayers:     c.MaxPlayers,
		MinPlayers:     c.MinPlayers,
		MaxRounds:      c.Rounds,
		RoundDuration:  c.RoundDuration,
		GraceDelay:     c.GraceDelay,
		ReconnectGrace: c.ReconnectGrace,
		Difficulty:     c.Difficulty,
		GuessBaseScore: c.GuessBaseScore,
		DrawerBonus:    c.DrawerBonus,
	}
}

type env struct {
	errs []error
}

func (e *env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

// duration accepts Go duration strings and bare integers as seconds.
func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
