// Package storage provides the local-filesystem blob store for attachment
// bytes.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// ErrPathTraversal is returned when a storage key escapes the base path.
var ErrPathTraversal = errors.New("path traversal detected")

// LocalStore is a filesystem implementation of the core.BlobStore interface.
// Keys map to files under basePath; unsafe key characters are replaced so a
// provider id or filename can never escape the base directory.
type LocalStore struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalStore creates a blob store rooted at basePath, creating the
// directory if needed.
func NewLocalStore(basePath string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath, logger: logger}, nil
}

// Put writes attachment bytes under key and returns the storage key actually
// used. An empty key gets a generated uuid.
func (s *LocalStore) Put(key string, data []byte, mimeType string) (string, error) {
	if key == "" {
		key = uuid.New().String()
	}
	key = sanitizeKey(key)

	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}

	s.logger.Debug("stored blob",
		zap.String("key", key),
		zap.String("mime_type", mimeType),
		zap.Int("size", len(data)))

	return key, nil
}

// Get reads attachment bytes for a key.
func (s *LocalStore) Get(key string) ([]byte, error) {
	fullPath, err := s.resolve(sanitizeKey(key))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// resolve builds the absolute file path for a key and verifies it stays
// inside the base directory.
func (s *LocalStore) resolve(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if filepath.IsAbs(cleaned) || strings.Contains(cleaned, "..") {
		return "", ErrPathTraversal
	}

	fullPath := filepath.Join(s.basePath, cleaned)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid blob path: %w", err)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// sanitizeKey keeps slashes as directory separators but strips characters
// that could confuse the filesystem.
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
