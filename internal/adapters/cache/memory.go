// Package cache provides implementations of the sender classification cache.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// MemoryCache is an in-memory implementation of the ClassificationCache
// interface.
type MemoryCache struct {
	entries     map[string]*core.CachedClassification
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]*core.CachedClassification),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache
}

// Get retrieves a cached classification for a sender.
func (c *MemoryCache) Get(ctx context.Context, senderEmail string) (*core.CachedClassification, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[senderEmail]
	if !ok {
		return nil, core.ErrNotFound
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, core.ErrNotFound
	}

	copied := *entry
	return &copied, nil
}

// Set stores a classification entry with the given time to live.
func (c *MemoryCache) Set(ctx context.Context, entry *core.CachedClassification, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *entry
	stored.ExpiresAt = time.Now().Add(ttl)
	c.entries[entry.SenderEmail] = &stored
	return nil
}

// Delete removes a cache entry.
func (c *MemoryCache) Delete(ctx context.Context, senderEmail string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, senderEmail)
	return nil
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// startCleanupTask starts a background task to clean up expired entries.
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}
