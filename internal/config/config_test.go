package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.AnalyticsEnabled)

	assert.Equal(t, 2, cfg.MatchSize)
	assert.Equal(t, 30000, cfg.MatchDurationMs)
	assert.Equal(t, 2000, cfg.StartDelayMs)
	assert.Equal(t, 5000, cfg.CleanupDelayMs)
	assert.Equal(t, 10, cfg.MaxTapsPerSecond)
	assert.Equal(t, 100, cfg.TapClockSkewWindowMs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ANALYTICS_ENABLED", "false")
	t.Setenv("MATCH_SIZE", "4")
	t.Setenv("MATCH_DURATION_MS", "15000")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.AnalyticsEnabled)
	assert.Equal(t, 4, cfg.MatchSize)
	assert.Equal(t, 15000, cfg.MatchDurationMs)
}

func TestLoadIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("MATCH_SIZE", "lots")
	t.Setenv("ANALYTICS_ENABLED", "sure")

	cfg := Load()
	assert.Equal(t, 2, cfg.MatchSize)
	assert.True(t, cfg.AnalyticsEnabled)
}

func TestMatchmakingConversion(t *testing.T) {
	t.Setenv("MATCH_DURATION_MS", "15000")
	t.Setenv("TAP_CLOCK_SKEW_WINDOW_MS", "250")

	mmCfg := Load().Matchmaking()
	assert.Equal(t, 15*time.Second, mmCfg.MatchDuration)
	assert.Equal(t, 250*time.Millisecond, mmCfg.ClockSkewWindow)
	assert.Equal(t, 2*time.Second, mmCfg.StartDelay)
	assert.Equal(t, 5*time.Second, mmCfg.CleanupDelay)
	assert.Equal(t, 10, mmCfg.MaxTapsPerSecond)
	assert.Equal(t, 2, mmCfg.MatchSize)
}
