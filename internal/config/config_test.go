package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "openai", cfg.GetAI().Provider)
	assert.True(t, cfg.GetAI().Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.GetOpenAI().ModelName)
	assert.Equal(t, "sqlite", cfg.GetDatabase().Driver)
	assert.Equal(t, "memory", cfg.GetCache().Type)
	assert.False(t, cfg.GetSMTP().Enabled)

	scanner := cfg.GetScanner()
	assert.Equal(t, 7, scanner.WindowDays)
	assert.Equal(t, 50, scanner.MaxMessages)
	assert.Equal(t, 500*time.Millisecond, scanner.Pacing)
	assert.Equal(t, 5*time.Minute, scanner.Interval)
	assert.True(t, scanner.FilterSpam)
	assert.False(t, scanner.AutoFile)

	spam := cfg.GetSpam()
	assert.Equal(t, 24*time.Hour, spam.CacheTTL)
	assert.InDelta(t, 0.9, spam.AutoBlockThreshold, 0.001)
}

func TestOverridesFlowThroughTypedAccessors(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scanner.window_days", 14)
	v.Set("scanner.pacing", "2s")
	v.Set("spam.cache_ttl", "1h")
	v.Set("ai.provider", "bedrock")
	cfg := NewFromViper(v)

	assert.Equal(t, 14, cfg.GetScanner().WindowDays)
	assert.Equal(t, 2*time.Second, cfg.GetScanner().Pacing)
	assert.Equal(t, time.Hour, cfg.GetSpam().CacheTTL)
	assert.Equal(t, "bedrock", cfg.GetAI().Provider)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scanner.pacing", "not-a-duration")
	cfg := NewFromViper(v)

	assert.Equal(t, 500*time.Millisecond, cfg.GetScanner().Pacing)
}
