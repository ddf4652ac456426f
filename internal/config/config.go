package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration, loaded from environment variables.
type Config struct {
	Port            string
	RedisAddr       string // empty disables the ops/cache layer
	MasteryURL      string
	AIProvider      string
	RoomGracePeriod time.Duration
	JanitorSchedule string
}

func LoadConfig() (*Config, error) {
	config := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		MasteryURL:      getEnvOrDefault("MASTERY_SERVICE_URL", "http://mastery-service:8000"),
		AIProvider:      getEnvOrDefault("AI_PROVIDER", "static"),
		RoomGracePeriod: getEnvDuration("ROOM_GRACE_PERIOD", 5*time.Minute),
		JanitorSchedule: getEnvOrDefault("JANITOR_SCHEDULE", "@every 5m"),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.AIProvider != "static" && config.AIProvider != "gemini" {
		return errors.New("unsupported AI provider: " + config.AIProvider + ". Currently supported: static, gemini")
	}
	if config.RoomGracePeriod <= 0 {
		return errors.New("ROOM_GRACE_PERIOD must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// plain seconds also accepted
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
