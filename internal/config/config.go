package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPort       = "8080"
	DefaultSessionTTL = 24 * time.Hour
	DefaultLogLevel   = "info"
)

// DefaultDeckPaths are tried in order when DECK_PATH is not set.
var DefaultDeckPaths = []string{
	"data/tarot.csv",
	"data/tarot_sample.csv",
}

type Config struct {
	Port   string
	APIKey string // empty = no auth required

	RedisURL string // empty = in-memory sessions
	NATSURL  string // empty = draw events disabled

	DeckPath   string        // empty = try DefaultDeckPaths
	SessionTTL time.Duration // 0 = sessions never expire

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is read first when present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:   getEnv("PORT", DefaultPort),
		APIKey: os.Getenv("API_KEY"),

		RedisURL: os.Getenv("REDIS_URL"),
		NATSURL:  os.Getenv("NATS_URL"),

		DeckPath:   os.Getenv("DECK_PATH"),
		SessionTTL: getEnvDuration("SESSION_TTL", DefaultSessionTTL),

		LogLevel:  getEnv("LOG_LEVEL", DefaultLogLevel),
		LogPretty: getEnvBool("LOG_PRETTY"),
	}

	return cfg
}

// DeckPaths returns the deck file candidates to try, in order.
func (c Config) DeckPaths() []string {
	if c.DeckPath != "" {
		return []string{c.DeckPath}
	}
	return DefaultDeckPaths
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvBool(key string) bool {
	val := os.Getenv(key)
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false
	}
	return b
}
