// Package repository provides GORM-backed persistence adapters for the
// mailroom core ports.
package repository

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// Open connects to the configured database and migrates the mailroom
// schema, including the unique provider-message-id constraint the scanner's
// idempotency depends on.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the mailroom tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&core.InboundMessage{},
		&core.Attachment{},
		&core.MessageClassification{},
		&core.AttachmentFiling{},
		&core.FilingRule{},
		&core.BlockedSender{},
		&core.TrustedSender{},
		&core.Vendor{},
		&RepoFolder{},
		&RepoDocument{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// isDuplicateKeyError recognizes unique-constraint violations across the
// supported drivers.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505")
}
