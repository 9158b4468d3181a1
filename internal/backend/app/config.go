package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	httpapi "github.com/aussiebroadwan/modconsole/internal/backend/http"
	"github.com/aussiebroadwan/modconsole/internal/backend/service"
	"github.com/aussiebroadwan/modconsole/pkg/httpx"
	"github.com/aussiebroadwan/modconsole/pkg/jwtx"
)

type Config struct {
	Issuer         string        // Optional: issuer claim for tokens (default: modconsole)
	DatabaseFile   string        // Optional: path to SQLite database file (default: ./backend.db)
	SigningKeyFile string        // Optional: PKCS8 Ed25519 key; generated if missing, ephemeral if unset
	Pepper         string        // Optional: server-side secret mixed into password hashes
	AccessTTL      time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL     time.Duration // Optional: refresh token lifetime (default: 30 days)
	ChallengeTTL   time.Duration // Optional: two-factor token lifetime (default: 5m)
	AllowedOrigins []string      // Optional: CORS origins for browser consoles

	Seed SeedConfig

	RateLimits httpapi.RateLimits

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// SeedConfig describes an account created on startup when Email is set.
type SeedConfig struct {
	Email      string
	Password   string // generated and logged once if empty
	Username   string
	Role       string
	TOTPSecret string // base32; enables the two-factor challenge for this account
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("BACKEND_ISSUER", "modconsole"),
		DatabaseFile:   getEnvOrDefault("BACKEND_DATABASE_FILE", "backend.db"),
		SigningKeyFile: os.Getenv("BACKEND_SIGNING_KEY_FILE"),
		Pepper:         os.Getenv("BACKEND_PEPPER"),
		AccessTTL:      getEnvDurationOrDefault("BACKEND_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:     getEnvDurationOrDefault("BACKEND_REFRESH_TTL", service.DefaultRefreshTokenTTL),
		ChallengeTTL:   getEnvDurationOrDefault("BACKEND_2FA_TTL", service.DefaultChallengeTTL),
		AllowedOrigins: splitList(os.Getenv("BACKEND_ALLOWED_ORIGINS")),
		Seed: SeedConfig{
			Email:      os.Getenv("BACKEND_SEED_EMAIL"),
			Password:   os.Getenv("BACKEND_SEED_PASSWORD"),
			Username:   os.Getenv("BACKEND_SEED_USERNAME"),
			Role:       getEnvOrDefault("BACKEND_SEED_ROLE", "ADMIN"),
			TOTPSecret: os.Getenv("BACKEND_SEED_TOTP_SECRET"),
		},
		RateLimits: httpapi.RateLimits{
			Credentials: httpx.ParseRateLimitFromEnv("CREDENTIALS", httpx.StrictLimit),
			Tokens:      httpx.ParseRateLimitFromEnv("TOKENS", httpx.ModerateLimit),
		},
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// A pepper file wins over the inline value so secrets can be mounted.
	if path := os.Getenv("BACKEND_PEPPER_FILE"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			cfg.Pepper = strings.TrimSpace(string(b))
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
