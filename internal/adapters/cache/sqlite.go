package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// SQLiteCache is a SQLite implementation of the ClassificationCache
// interface. It survives restarts, which keeps repeat senders out of the AI
// path across daemon upgrades.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite cache.
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sender_cache (
			sender_email TEXT PRIMARY KEY,
			category TEXT,
			confidence REAL,
			spam_score REAL,
			reputation TEXT,
			last_seen TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sender_cache_expires_at ON sender_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached classification for a sender.
func (c *SQLiteCache) Get(ctx context.Context, senderEmail string) (*core.CachedClassification, error) {
	var category, reputation string
	var confidence, spamScore float64
	var lastSeen, expiresAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT category, confidence, spam_score, reputation, last_seen, expires_at
		FROM sender_cache
		WHERE sender_email = ? AND expires_at > datetime('now')
	`, senderEmail).Scan(&category, &confidence, &spamScore, &reputation, &lastSeen, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry := &core.CachedClassification{
		SenderEmail: senderEmail,
		Category:    core.MessageCategory(category),
		Confidence:  confidence,
		SpamScore:   spamScore,
		Reputation:  core.SenderReputation(reputation),
	}
	if t, err := time.Parse(time.RFC3339, lastSeen); err == nil {
		entry.LastSeen = t
	}
	if t, err := time.Parse(time.RFC3339, expiresAt); err == nil {
		entry.ExpiresAt = t
	}

	return entry, nil
}

// Set stores a classification entry with the given time to live.
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CachedClassification, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sender_cache
			(sender_email, category, confidence, spam_score, reputation, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.SenderEmail, string(entry.Category), entry.Confidence, entry.SpamScore,
		string(entry.Reputation), entry.LastSeen.Format(time.RFC3339), expiresAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (c *SQLiteCache) Delete(ctx context.Context, senderEmail string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM sender_cache
		WHERE sender_email = ?
	`, senderEmail)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM sender_cache
		WHERE expires_at <= datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}

	if count, err := result.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", count))
	}
	return nil
}

// Stop stops the background cleanup task and closes the database.
func (c *SQLiteCache) Stop() error {
	close(c.stopCh)
	return c.db.Close()
}

// startCleanupTask starts a background task to clean up expired entries.
func (c *SQLiteCache) startCleanupTask() {
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
