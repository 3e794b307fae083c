package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// RepoFolder is one node of the structured document repository hierarchy.
// The (parent_id, name) unique index makes find-or-create idempotent under
// concurrent creators.
type RepoFolder struct {
	ID        string `gorm:"primaryKey;size:36"`
	ParentID  string `gorm:"size:36;index:idx_folder_parent_name,unique"`
	Name      string `gorm:"size:255;not null;index:idx_folder_parent_name,unique"`
	CreatedAt time.Time
}

// TableName returns the table name for RepoFolder.
func (RepoFolder) TableName() string {
	return "repo_folders"
}

// RepoDocument is a document record under a folder, referencing the
// attachment's stored bytes by storage key.
type RepoDocument struct {
	ID             string                `gorm:"primaryKey;size:36"`
	FolderID       string                `gorm:"size:36;index;not null"`
	Title          string                `gorm:"size:255"`
	Category       core.DocumentCategory `gorm:"size:30"`
	StorageKey     string                `gorm:"size:500"`
	MimeType       string                `gorm:"size:100"`
	SizeBytes      int64
	DocumentNumber string `gorm:"size:100"`
	VendorName     string `gorm:"size:255"`
	CreatedAt      time.Time
}

// TableName returns the table name for RepoDocument.
func (RepoDocument) TableName() string {
	return "repo_documents"
}

// structuredRepository implements core.StructuredRepository on the same
// relational store as the rest of the pipeline.
type structuredRepository struct {
	db *gorm.DB
}

// NewStructuredRepository creates a structured document repository adapter.
func NewStructuredRepository(db *gorm.DB) core.StructuredRepository {
	return &structuredRepository{db: db}
}

func (r *structuredRepository) FindFolder(ctx context.Context, parentID, name string) (*core.Folder, error) {
	var folder RepoFolder
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND name = ?", parentID, name).
		First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find folder: %w", err)
	}
	return &core.Folder{ID: folder.ID, Name: folder.Name}, nil
}

func (r *structuredRepository) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	folder := RepoFolder{
		ID:       uuid.NewString(),
		ParentID: parentID,
		Name:     name,
	}
	if err := r.db.WithContext(ctx).Create(&folder).Error; err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	return folder.ID, nil
}

func (r *structuredRepository) CreateDocument(ctx context.Context, folderID string, meta core.DocumentMetadata) (string, error) {
	doc := RepoDocument{
		ID:             uuid.NewString(),
		FolderID:       folderID,
		Title:          meta.Title,
		Category:       meta.Category,
		StorageKey:     meta.StorageKey,
		MimeType:       meta.MimeType,
		SizeBytes:      meta.SizeBytes,
		DocumentNumber: meta.DocumentNumber,
		VendorName:     meta.VendorName,
	}
	if err := r.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return doc.ID, nil
}
