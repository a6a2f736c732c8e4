// Package config loads the shared context server's configuration from the
// environment. There is no implicit fallback for secrets: a missing signing
// key, encryption key, or API key fails startup immediately rather than
// silently generating a random one, since a randomly generated key would
// make every previously issued token unverifiable on the next restart and
// would differ across replicas of the same process.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the server.
type Config struct {
	// Secrets (required, no defaults).
	APIKey         string // gates authenticate_agent
	SigningKey     string // HMAC key for capability tokens
	EncryptionKey  string // base64, 32 raw bytes, for protected-token AEAD

	// Storage.
	DatabaseURL    string // "sqlite://path" or "postgres://..."
	DBPoolBaseline int
	DBPoolBurst    int

	// Transport.
	HTTPPort string

	// Optional accelerators.
	RedisURL string

	// Rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// Internal bridge.
	BridgeSharedSecret string

	// Logging.
	LogLevel  string
	LogPretty bool

	// Token lifetimes.
	CapabilityTokenTTL time.Duration
}

// Load reads configuration from the environment, returning an error that
// names every missing required value rather than failing on the first one.
func Load() (*Config, error) {
	// The .env file is optional — only warn-worthy errors (malformed
	// syntax) matter; a missing file is the expected case in production,
	// where configuration comes from the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		APIKey:             os.Getenv("SHARED_CONTEXT_API_KEY"),
		SigningKey:         os.Getenv("SHARED_CONTEXT_SIGNING_KEY"),
		EncryptionKey:      os.Getenv("SHARED_CONTEXT_ENCRYPTION_KEY"),
		DatabaseURL:        getEnv("DATABASE_URL", "sqlite://./shared-context.db"),
		DBPoolBaseline:     getEnvInt("DB_POOL_BASELINE", 20),
		DBPoolBurst:        getEnvInt("DB_POOL_BURST", 30),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
		BridgeSharedSecret: os.Getenv("BRIDGE_SHARED_SECRET"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnv("LOG_PRETTY", "false") == "true",
		CapabilityTokenTTL: getEnvDuration("CAPABILITY_TOKEN_TTL", time.Hour),
	}

	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "SHARED_CONTEXT_API_KEY")
	}
	if cfg.SigningKey == "" {
		missing = append(missing, "SHARED_CONTEXT_SIGNING_KEY")
	}
	if cfg.EncryptionKey == "" {
		missing = append(missing, "SHARED_CONTEXT_ENCRYPTION_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
