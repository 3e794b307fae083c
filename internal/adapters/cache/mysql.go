package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// MySQLCache is a MySQL implementation of the ClassificationCache interface,
// for deployments where several intake workers share one cache.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL cache.
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sender_cache (
			sender_email VARCHAR(255) PRIMARY KEY,
			category VARCHAR(32),
			confidence FLOAT,
			spam_score FLOAT,
			reputation VARCHAR(32),
			last_seen TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_sender_cache_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached classification for a sender.
func (c *MySQLCache) Get(ctx context.Context, senderEmail string) (*core.CachedClassification, error) {
	var category, reputation string
	var confidence, spamScore float64
	var lastSeen, expiresAt time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT category, confidence, spam_score, reputation, last_seen, expires_at
		FROM sender_cache
		WHERE sender_email = ? AND expires_at > NOW()
	`, senderEmail).Scan(&category, &confidence, &spamScore, &reputation, &lastSeen, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return &core.CachedClassification{
		SenderEmail: senderEmail,
		Category:    core.MessageCategory(category),
		Confidence:  confidence,
		SpamScore:   spamScore,
		Reputation:  core.SenderReputation(reputation),
		LastSeen:    lastSeen,
		ExpiresAt:   expiresAt,
	}, nil
}

// Set stores a classification entry with the given time to live.
func (c *MySQLCache) Set(ctx context.Context, entry *core.CachedClassification, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO sender_cache
			(sender_email, category, confidence, spam_score, reputation, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			category = VALUES(category),
			confidence = VALUES(confidence),
			spam_score = VALUES(spam_score),
			reputation = VALUES(reputation),
			last_seen = VALUES(last_seen),
			expires_at = VALUES(expires_at)
	`, entry.SenderEmail, string(entry.Category), entry.Confidence, entry.SpamScore,
		string(entry.Reputation), entry.LastSeen, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (c *MySQLCache) Delete(ctx context.Context, senderEmail string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM sender_cache
		WHERE expires_at <= NOW()
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
func (c *MySQLCache) Stop() error {
	close(c.stopCh)
	return c.db.Close()
}

// startCleanupTask starts a background task to clean up expired entries.
func (c *MySQLCache) startCleanupTask() {
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
