package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	cfg := Config{
		DBName: getEnv("DB_NAME"),
		Port:   getEnv("PORT"),
		Host: HostConfig{
			OwnerID: getEnv("HOST_OWNER_ID"),
			Token:   getEnv("HOST_TOKEN"),
		},
		Slack: SlackConfig{
			Token:     optionalEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: optionalEnv("SLACK_CHANNEL_ID", ""),
		},
		Turso: TursoConfig{
			PrimaryURL: optionalEnv("TURSO_PRIMARY_URL", ""),
			AuthToken:  optionalEnv("TURSO_AUTH_TOKEN", ""),
		},
		ProjectID: optionalEnv("GCP_PROJECT", ""),
		Supervisor: SupervisorConfig{
			TopTick:       durationEnv("TOP_TICK_SECONDS", time.Second),
			EvictInterval: durationEnv("EVICT_INTERVAL_SECONDS", 60*time.Second),
			StaleAfter:    durationEnv("STALE_AFTER_SECONDS", 120*time.Second),
		},
		DrainInterval: durationEnv("DRAIN_INTERVAL_SECONDS", 2*time.Second),
	}
	return cfg
}

func optionalEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// durationEnv reads a whole number of seconds.
func durationEnv(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		log.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
