package core

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared between the core and its adapters.
var (
	// ErrNotFound is returned by lookups that matched nothing.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateMessage is returned when an insert hits the unique
	// provider-message-id constraint. Callers treat it as a skip.
	ErrDuplicateMessage = errors.New("duplicate provider message id")
)

// MailboxClient is the mailbox provider port.
type MailboxClient interface {
	// ListMessages returns provider message ids matching the query.
	ListMessages(ctx context.Context, query string, maxResults int64) ([]string, error)

	// GetMessage fetches a full message including its part tree.
	GetMessage(ctx context.Context, id string) (*MailMessage, error)

	// DownloadAttachment fetches raw attachment bytes.
	DownloadAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// BlobStore is the opaque attachment byte store.
type BlobStore interface {
	Put(key string, data []byte, mimeType string) (string, error)
	Get(key string) ([]byte, error)
}

// Folder is a structured-repository folder reference.
type Folder struct {
	ID   string
	Name string
}

// DocumentMetadata describes a document created in the structured repository.
type DocumentMetadata struct {
	Title          string
	Category       DocumentCategory
	StorageKey     string
	MimeType       string
	SizeBytes      int64
	DocumentNumber string
	VendorName     string
}

// StructuredRepository is the internal hierarchical document store port.
type StructuredRepository interface {
	FindFolder(ctx context.Context, parentID, name string) (*Folder, error)
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
	CreateDocument(ctx context.Context, folderID string, meta DocumentMetadata) (string, error)
}

// UploadRequest carries one cloud file-store upload.
type UploadRequest struct {
	FolderID    string
	Filename    string
	MimeType    string
	Data        []byte
	AccessToken string
}

// UploadResult is the cloud store's handle for an uploaded file.
type UploadResult struct {
	FileID string
	Link   string
}

// CloudFileStore is the external file-store port.
type CloudFileStore interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// AIMessageResult is the constrained output of AI message classification.
type AIMessageResult struct {
	Category   MessageCategory
	Confidence float64
	Reasons    []string
}

// DocumentInput is everything the AI document classifier gets to look at.
type DocumentInput struct {
	Filename    string
	Text        string
	Subject     string
	SenderEmail string
}

// AIDocumentResult is the constrained output of AI document classification.
type AIDocumentResult struct {
	Category       DocumentCategory
	Confidence     float64
	VendorName     string
	DocumentNumber string
	DocumentDate   string
	Amount         float64
	Currency       string
	RelatedRefs    []string
	SuggestedPath  string
}

// AIClient is the narrow AI port: prompt in, typed result or failure out.
// Implementations may fail or return schema-violating content; callers must
// always fall back to a deterministic value.
type AIClient interface {
	ClassifyMessage(ctx context.Context, msg *MailMessage) (*AIMessageResult, error)
	ClassifyDocument(ctx context.Context, input DocumentInput) (*AIDocumentResult, error)
}

// ClassificationCache caches per-sender message classifications so repeat
// senders skip pattern scoring and the AI path.
type ClassificationCache interface {
	Get(ctx context.Context, senderEmail string) (*CachedClassification, error)
	Set(ctx context.Context, entry *CachedClassification, ttl time.Duration) error
	Delete(ctx context.Context, senderEmail string) error
	Cleanup(ctx context.Context) error
}

// MessageRepository persists inbound messages, attachments and their
// classifications. CreateMessage must surface ErrDuplicateMessage on a
// provider-message-id collision; uniqueness is a schema constraint, not an
// application-level lookup.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *InboundMessage) error
	FindByProviderID(ctx context.Context, providerID string) (*InboundMessage, error)
	UpdateStatus(ctx context.Context, id uint, status MessageStatus) error
	UpdateCategory(ctx context.Context, id uint, category MessageCategory) error
	CreateAttachment(ctx context.Context, att *Attachment) error
	ListAttachments(ctx context.Context, messageID uint) ([]Attachment, error)
	MarkAttachmentProcessed(ctx context.Context, id uint) error
	SaveClassification(ctx context.Context, cls *MessageClassification) error
}

// FilingRepository persists attachment filings.
type FilingRepository interface {
	CreateFiling(ctx context.Context, filing *AttachmentFiling) error
	UpdateFiling(ctx context.Context, filing *AttachmentFiling) error
	ListByMessage(ctx context.Context, messageID uint) ([]AttachmentFiling, error)
}

// RuleRepository reads the externally configured filing rules.
type RuleRepository interface {
	ListEnabled(ctx context.Context) ([]FilingRule, error)
	IncrementUsage(ctx context.Context, id uint) error
}

// SenderListRepository reads the block/trust lists and applies the
// auto-block side effect.
type SenderListRepository interface {
	ListBlocked(ctx context.Context) ([]BlockedSender, error)
	ListTrusted(ctx context.Context) ([]TrustedSender, error)
	BlockSender(ctx context.Context, entry *BlockedSender) error
}

// VendorRepository resolves senders to known vendors.
type VendorRepository interface {
	FindByDomain(ctx context.Context, domain string) (*Vendor, error)
	FindByID(ctx context.Context, id uint) (*Vendor, error)
}
