package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	t.Cleanup(c.Stop)
	return c
}

func testEntry(sender string) *core.CachedClassification {
	return &core.CachedClassification{
		SenderEmail: sender,
		Category:    core.CategoryLegitimate,
		Confidence:  0.9,
		SpamScore:   0.1,
		Reputation:  core.ReputationTrusted,
		LastSeen:    time.Now(),
	}
}

func TestMemoryCacheSetAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("a@b.test"), time.Hour))

	got, err := c.Get(ctx, "a@b.test")
	require.NoError(t, err)
	assert.Equal(t, core.CategoryLegitimate, got.Category)
	assert.InDelta(t, 0.9, got.Confidence, 0.001)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, time.Minute)
}

func TestMemoryCacheMissReturnsNotFound(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(context.Background(), "nobody@b.test")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryCacheExpiredEntryIsAMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("a@b.test"), -time.Second))

	_, err := c.Get(ctx, "a@b.test")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryCacheGetReturnsACopy(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("a@b.test"), time.Hour))

	first, err := c.Get(ctx, "a@b.test")
	require.NoError(t, err)
	first.Category = core.CategorySpam

	second, err := c.Get(ctx, "a@b.test")
	require.NoError(t, err)
	assert.Equal(t, core.CategoryLegitimate, second.Category)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("a@b.test"), time.Hour))
	require.NoError(t, c.Delete(ctx, "a@b.test"))

	_, err := c.Get(ctx, "a@b.test")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryCacheCleanupRemovesOnlyExpired(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("fresh@b.test"), time.Hour))
	require.NoError(t, c.Set(ctx, testEntry("stale@b.test"), -time.Second))

	require.NoError(t, c.Cleanup(ctx))

	_, err := c.Get(ctx, "fresh@b.test")
	assert.NoError(t, err)
	assert.NotContains(t, c.entries, "stale@b.test")
}
