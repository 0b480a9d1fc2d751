package config

import (
	"os"
	"strings"
	"time"
)

// Config holds every runtime setting for the signaling server. All values
// come from environment variables with development-friendly defaults, so the
// server runs with no external services configured (file-backed persistence,
// static ICE servers).
type Config struct {
	Env  string
	Port string

	// DataDir is where file-backed stores keep their JSON (rooms.json,
	// messages.json). Used when Redis/Postgres are not configured.
	DataDir string

	// RedisURL enables the Redis snapshot store when set ("host:port" or
	// "redis://..." URL). Empty means the file store is used.
	RedisURL string

	// DatabaseURL enables the Postgres contact store when set. Empty means
	// the file store is used.
	DatabaseURL   string
	MigrationsDir string

	// RoomCleanupDelay is how long an empty room survives before deletion.
	RoomCleanupDelay time.Duration

	CORSAllowedOrigins []string

	TwilioAccountSID string
	TwilioAuthToken  string
}

func Load() *Config {
	return &Config{
		Env:                getEnv("APP_ENV", "dev"),
		Port:               getEnv("PORT", "8080"),
		DataDir:            getEnv("DATA_DIR", "data"),
		RedisURL:           getEnv("REDIS_URL", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		RoomCleanupDelay:   getDuration("ROOM_CLEANUP_DELAY", 5*time.Minute),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
