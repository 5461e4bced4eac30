package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tap-race-backend/internal/matchmaking"
)

type Config struct {
	Port             string
	KafkaBrokers     []string
	AnalyticsEnabled bool

	MatchSize            int
	MatchDurationMs      int
	StartDelayMs         int
	CleanupDelayMs       int
	MaxTapsPerSecond     int
	TapClockSkewWindowMs int
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		KafkaBrokers:     strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		AnalyticsEnabled: getEnvBool("ANALYTICS_ENABLED", true),

		MatchSize:            getEnvInt("MATCH_SIZE", 2),
		MatchDurationMs:      getEnvInt("MATCH_DURATION_MS", 30000),
		StartDelayMs:         getEnvInt("START_DELAY_MS", 2000),
		CleanupDelayMs:       getEnvInt("CLEANUP_DELAY_MS", 5000),
		MaxTapsPerSecond:     getEnvInt("MAX_TAPS_PER_SECOND", 10),
		TapClockSkewWindowMs: getEnvInt("TAP_CLOCK_SKEW_WINDOW_MS", 100),
	}
}

// Matchmaking converts the raw env values into the matchmaker config.
func (c *Config) Matchmaking() matchmaking.Config {
	return matchmaking.Config{
		MatchSize:        c.MatchSize,
		MatchDuration:    time.Duration(c.MatchDurationMs) * time.Millisecond,
		StartDelay:       time.Duration(c.StartDelayMs) * time.Millisecond,
		CleanupDelay:     time.Duration(c.CleanupDelayMs) * time.Millisecond,
		MaxTapsPerSecond: c.MaxTapsPerSecond,
		ClockSkewWindow:  time.Duration(c.TapClockSkewWindowMs) * time.Millisecond,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
