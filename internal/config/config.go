package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the relay server.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// HistoryCapacity is the per-room retention cap for the history store.
	HistoryCapacity int
}

const (
	defaultAddr            = ":3001"
	defaultHistoryCapacity = 500
)

// New loads configuration from environment variables. Every value has a
// sensible default; nothing is required.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Addr:            getEnv("ADDR", defaultAddr),
		HistoryCapacity: getEnvInt("MAX_HISTORY", defaultHistoryCapacity),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Ignoring invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}
