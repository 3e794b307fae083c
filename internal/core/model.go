package core

import (
	"time"
)

// MessageStatus tracks an inbound message through the pipeline.
// Transitions are monotonic forward; a message never returns to pending.
type MessageStatus string

const (
	MessageStatusPending  MessageStatus = "pending"
	MessageStatusParsed   MessageStatus = "parsed"
	MessageStatusArchived MessageStatus = "archived"
	MessageStatusFailed   MessageStatus = "failed"
)

// MessageCategory is the message-level legitimacy classification.
type MessageCategory string

const (
	CategoryLegitimate   MessageCategory = "legitimate"
	CategorySpam         MessageCategory = "spam"
	CategorySolicitation MessageCategory = "solicitation"
	CategoryNewsletter   MessageCategory = "newsletter"
	CategoryAutomated    MessageCategory = "automated"
	CategoryUnknown      MessageCategory = "unknown"
)

// SenderReputation is a coarse trust label derived from the sender lists
// and the classification outcome.
type SenderReputation string

const (
	ReputationTrusted    SenderReputation = "trusted"
	ReputationNeutral    SenderReputation = "neutral"
	ReputationSuspicious SenderReputation = "suspicious"
	ReputationBlocked    SenderReputation = "blocked"
)

// DocumentCategory is the closed set of business-document types.
type DocumentCategory string

const (
	DocInvoice             DocumentCategory = "invoice"
	DocReceipt             DocumentCategory = "receipt"
	DocPurchaseOrder       DocumentCategory = "purchase_order"
	DocPackingSlip         DocumentCategory = "packing_slip"
	DocBillOfLading        DocumentCategory = "bill_of_lading"
	DocCustomsDocument     DocumentCategory = "customs_document"
	DocCertificateOfOrigin DocumentCategory = "certificate_of_origin"
	DocFreightQuote        DocumentCategory = "freight_quote"
	DocShippingLabel       DocumentCategory = "shipping_label"
	DocContract            DocumentCategory = "contract"
	DocCorrespondence      DocumentCategory = "correspondence"
	DocOther               DocumentCategory = "other"
)

// AllDocumentCategories lists every valid document category, used to
// validate AI output before trusting it.
var AllDocumentCategories = []DocumentCategory{
	DocInvoice, DocReceipt, DocPurchaseOrder, DocPackingSlip,
	DocBillOfLading, DocCustomsDocument, DocCertificateOfOrigin,
	DocFreightQuote, DocShippingLabel, DocContract, DocCorrespondence,
	DocOther,
}

// IsValidDocumentCategory reports whether c is a member of the closed set.
func IsValidDocumentCategory(c DocumentCategory) bool {
	for _, known := range AllDocumentCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DestinationKind identifies where a classified document gets filed.
type DestinationKind string

const (
	DestStructuredRepo DestinationKind = "structured_repository"
	DestCloudFileStore DestinationKind = "cloud_file_store"
	DestVendorFolder   DestinationKind = "vendor_folder"
	DestCustoms        DestinationKind = "customs"
	DestPending        DestinationKind = "pending"
)

// FilingStatus tracks a single attachment filing.
type FilingStatus string

const (
	FilingStatusPending    FilingStatus = "pending"
	FilingStatusProcessing FilingStatus = "processing"
	FilingStatusFiled      FilingStatus = "filed"
	FilingStatusFailed     FilingStatus = "failed"
)

// SenderPatternType describes how a sender-list pattern matches.
type SenderPatternType string

const (
	PatternExact  SenderPatternType = "exact"
	PatternDomain SenderPatternType = "domain"
	PatternRegex  SenderPatternType = "regex"
)

// InboundMessage is a persisted email message. ProviderMessageID carries a
// uniqueness constraint; it is the sole de-duplication key for re-scans.
type InboundMessage struct {
	ID                uint              `gorm:"primaryKey"`
	ProviderMessageID string            `gorm:"uniqueIndex;size:255;not null"`
	SenderEmail       string            `gorm:"size:255;index"`
	SenderName        string            `gorm:"size:255"`
	Recipient         string            `gorm:"size:255"`
	Subject           string            `gorm:"size:500"`
	BodyText          string            `gorm:"type:text"`
	BodyHTML          string            `gorm:"type:text"`
	Headers           map[string]string `gorm:"serializer:json"`
	Status            MessageStatus     `gorm:"size:20;default:pending"`
	Category          MessageCategory   `gorm:"size:20"`
	Priority          string            `gorm:"size:20"`
	ReceivedAt        time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Attachment is a file extracted from an inbound message. Immutable after
// creation except for the Processed flag.
type Attachment struct {
	ID         uint   `gorm:"primaryKey"`
	MessageID  uint   `gorm:"not null;index"`
	Filename   string `gorm:"size:255"`
	MimeType   string `gorm:"size:100"`
	SizeBytes  int64
	StorageKey string `gorm:"size:500"`
	Processed  bool   `gorm:"default:false"`
	CreatedAt  time.Time
}

// MessageClassification is the spam/solicitation verdict for one message.
type MessageClassification struct {
	ID                uint            `gorm:"primaryKey"`
	MessageID         uint            `gorm:"index"`
	SenderEmail       string          `gorm:"size:255;index"`
	Category          MessageCategory `gorm:"size:20"`
	Confidence        float64
	SpamScore         float64
	SolicitationScore float64
	Reasons           []string         `gorm:"serializer:json"`
	MatchedPatterns   []string         `gorm:"serializer:json"`
	Reputation        SenderReputation `gorm:"size:20"`
	IsKnownVendor     bool
	VendorID          *uint
	ShouldProcess     bool
	CreatedAt         time.Time
}

// AttachmentFiling records where an attachment was (or should be) routed.
// Status moves pending -> processing -> filed|failed; terminal states are
// only left again by an explicit manual re-file.
type AttachmentFiling struct {
	ID              uint             `gorm:"primaryKey"`
	AttachmentID    uint             `gorm:"not null;index"`
	MessageID       uint             `gorm:"index"`
	Category        DocumentCategory `gorm:"size:30;not null"`
	Confidence      float64
	DestinationKind DestinationKind `gorm:"size:30"`
	DestinationPath string          `gorm:"size:500"`
	Status          FilingStatus    `gorm:"size:20;default:pending"`
	DocumentNumber  string          `gorm:"size:100"`
	Amount          float64
	Currency        string `gorm:"size:10"`
	RepoDocumentID  string `gorm:"size:100"`
	CloudFileID     string `gorm:"size:100"`
	ErrorText       string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FilingRule is an externally configured routing rule. Rules are evaluated
// in ascending Priority order; the first rule whose present conditions all
// hold wins.
type FilingRule struct {
	ID                 uint               `gorm:"primaryKey"`
	Name               string             `gorm:"size:100"`
	Priority           int                `gorm:"index"`
	Enabled            bool               `gorm:"default:true"`
	DocumentCategories []DocumentCategory `gorm:"serializer:json"`
	MessageCategories  []MessageCategory  `gorm:"serializer:json"`
	VendorIDs          []uint             `gorm:"serializer:json"`
	SenderPattern      string             `gorm:"size:255"`
	MinConfidence      float64
	DestinationKind    DestinationKind `gorm:"size:30"`
	PathTemplate       string          `gorm:"size:500"`
	TimesUsed          int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// BlockedSender is a sender pattern that always yields a spam verdict.
type BlockedSender struct {
	ID          uint              `gorm:"primaryKey"`
	Pattern     string            `gorm:"size:255;not null"`
	PatternType SenderPatternType `gorm:"size:10;default:exact"`
	Reason      string            `gorm:"size:255"`
	CreatedAt   time.Time
}

// TrustedSender is a sender pattern that always yields a legitimate verdict,
// optionally bound to a known vendor or customer.
type TrustedSender struct {
	ID          uint              `gorm:"primaryKey"`
	Pattern     string            `gorm:"size:255;not null"`
	PatternType SenderPatternType `gorm:"size:10;default:exact"`
	VendorID    *uint
	CustomerID  *uint
	CreatedAt   time.Time
}

// Vendor is the subset of the vendor record this pipeline needs: a display
// name, the email domains it sends from, and an optional dedicated folder.
type Vendor struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:255;not null"`
	EmailDomains []string `gorm:"serializer:json"`
	FolderID     string   `gorm:"size:100"`
	CreatedAt    time.Time
}

// MessagePart is one node of a message's multipart body tree.
type MessagePart struct {
	MimeType     string
	Filename     string
	AttachmentID string
	Data         string
	Size         int64
	Parts        []*MessagePart
}

// MailMessage is a fetched (not yet persisted) provider message.
type MailMessage struct {
	ProviderID  string
	SenderEmail string
	SenderName  string
	Recipient   string
	Subject     string
	BodyText    string
	BodyHTML    string
	Headers     map[string]string
	ReceivedAt  time.Time
	Root        *MessagePart
}

// AttachmentDescriptor is an attachment reference found in the part tree.
type AttachmentDescriptor struct {
	Filename     string
	MimeType     string
	SizeBytes    int64
	AttachmentID string
}

// DocumentClassification is the Document Classifier's output for one
// attachment. Category and Confidence are always populated, even when the
// AI path failed.
type DocumentClassification struct {
	Category        DocumentCategory
	Confidence      float64
	VendorName      string
	DocumentNumber  string
	DocumentDate    string
	Amount          float64
	Currency        string
	RelatedRefs     []string
	SuggestedPath   string
	MatchedPatterns []string
	UsedAI          bool
}

// Destination is a resolved filing target.
type Destination struct {
	Kind     DestinationKind
	Path     string
	RuleID   uint
	RuleName string
}

// FilingResult is returned per executed filing.
type FilingResult struct {
	Success         bool
	DestinationKind DestinationKind
	DestinationPath string
	Category        DocumentCategory
	FilingID        uint
	Error           string
}

// ProcessResult aggregates one message's attachment processing.
type ProcessResult struct {
	Filtered             bool
	FilterReason         string
	AttachmentsProcessed int
	AttachmentsFiled     int
	AttachmentsSkipped   int
	AttachmentsFailed    int
	Filings              []FilingResult
}

// ScanOptions controls an inbox scan invocation.
type ScanOptions struct {
	MaxMessages         int64
	ProcessAttachments  bool
	AutoFile            bool
	FilterSpam          bool
	FilterSolicitations bool
	CloudCredential     string
}

// ScanResult is the aggregate outcome of one scan invocation.
type ScanResult struct {
	MessagesScanned      int
	MessagesProcessed    int
	MessagesSkipped      int
	AttachmentsProcessed int
	AttachmentsFiled     int
	Errors               []string
	Duration             time.Duration
}

// CachedClassification is a TTL-bounded per-sender classification entry.
type CachedClassification struct {
	SenderEmail string
	Category    MessageCategory
	Confidence  float64
	SpamScore   float64
	Reputation  SenderReputation
	LastSeen    time.Time
	ExpiresAt   time.Time
}

// clamp01 bounds a score or confidence to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
