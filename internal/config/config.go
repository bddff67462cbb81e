package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv              string
	HTTPPort            int
	DBDriver            string
	DBPath              string
	RedisAddr           string
	JWTSecret           string
	AllowedOrigins      []string
	TestDurationSeconds int
	GuestSlotTTLHours   int
	RecentWindowDays    int
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		HTTPPort:            getEnvInt("HTTP_PORT", 8080),
		DBDriver:            getEnv("DB_DRIVER", "sqlite3"),
		DBPath:              getEnv("DB_PATH", "./data/database.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:           getEnv("JWT_SECRET", "dev-secret"),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", "http://localhost:3000"),
		TestDurationSeconds: getEnvInt("TEST_DURATION_SECONDS", 300),
		GuestSlotTTLHours:   getEnvInt("GUEST_SLOT_TTL_HOURS", 24),
		RecentWindowDays:    getEnvInt("RECENT_WINDOW_DAYS", 30),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return val
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
