package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// allowedMimeTypes is the recognized document-type allowlist. Attachments
// outside it are counted as skipped, not failed.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
	"image/jpeg": true,
	"image/png":  true,
	"image/tiff": true,
}

// AttachmentOrchestrator runs the spam gate and the per-attachment
// classify -> route -> file pipeline for one message.
type AttachmentOrchestrator struct {
	spam     *SpamClassifier
	docs     *DocumentClassifier
	rules    *RuleMatcher
	executor *FilingExecutor
	vendors  VendorRepository
	messages MessageRepository
	filings  FilingRepository
	logger   *zap.Logger
	useAI    bool
}

// NewAttachmentOrchestrator wires the pipeline stages together.
func NewAttachmentOrchestrator(
	spam *SpamClassifier,
	docs *DocumentClassifier,
	rules *RuleMatcher,
	executor *FilingExecutor,
	vendors VendorRepository,
	messages MessageRepository,
	filings FilingRepository,
	logger *zap.Logger,
	useAI bool,
) *AttachmentOrchestrator {
	return &AttachmentOrchestrator{
		spam:     spam,
		docs:     docs,
		rules:    rules,
		executor: executor,
		vendors:  vendors,
		messages: messages,
		filings:  filings,
		logger:   logger,
		useAI:    useAI,
	}
}

// ProcessMessage classifies the message, applies the filter toggles, and
// routes each eligible attachment. A single attachment's failure never
// stops its siblings.
func (o *AttachmentOrchestrator) ProcessMessage(
	ctx context.Context,
	msg *InboundMessage,
	mail *MailMessage,
	cls *MessageClassification,
	opts ScanOptions,
) (*ProcessResult, error) {
	result := &ProcessResult{}

	// Reuse the caller's classification when present, otherwise run it now.
	if cls == nil {
		cls = o.spam.Classify(ctx, mail)
		cls.MessageID = msg.ID
		if err := o.messages.SaveClassification(ctx, cls); err != nil {
			o.logger.Warn("failed to persist classification", zap.Error(err))
		}
	}
	if err := o.messages.UpdateCategory(ctx, msg.ID, cls.Category); err != nil {
		o.logger.Warn("failed to update message category", zap.Error(err))
	}

	if filtered, reason := o.shouldFilter(cls, opts); filtered {
		result.Filtered = true
		result.FilterReason = reason
		if err := o.messages.UpdateStatus(ctx, msg.ID, MessageStatusArchived); err != nil {
			o.logger.Warn("failed to archive filtered message", zap.Error(err))
		}
		o.logger.Info("message filtered",
			zap.String("sender", msg.SenderEmail),
			zap.String("category", string(cls.Category)),
			zap.String("reason", reason))
		return result, nil
	}

	attachments, err := o.messages.ListAttachments(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("list attachments for message %d: %w", msg.ID, err)
	}

	vendorName := o.resolveVendorName(ctx, cls)

	for i := range attachments {
		att := &attachments[i]
		if !allowedMimeTypes[att.MimeType] {
			result.AttachmentsSkipped++
			o.logger.Debug("skipping unsupported attachment type",
				zap.String("filename", att.Filename),
				zap.String("mime_type", att.MimeType))
			continue
		}

		filing, err := o.processAttachment(ctx, msg, att, cls, vendorName, opts)
		if err != nil {
			result.AttachmentsFailed++
			o.logger.Error("attachment processing failed",
				zap.String("filename", att.Filename), zap.Error(err))
			continue
		}
		result.AttachmentsProcessed++
		result.Filings = append(result.Filings, *filing)
		if filing.Success {
			result.AttachmentsFiled++
		}
	}

	return result, nil
}

// shouldFilter applies the caller's filter toggles to a classification that
// the safety-net rules did not already approve.
func (o *AttachmentOrchestrator) shouldFilter(cls *MessageClassification, opts ScanOptions) (bool, string) {
	if cls.ShouldProcess {
		return false, ""
	}
	switch cls.Category {
	case CategorySpam:
		if opts.FilterSpam {
			return true, fmt.Sprintf("spam (confidence %.2f)", cls.Confidence)
		}
	case CategorySolicitation, CategoryNewsletter, CategoryAutomated:
		if opts.FilterSolicitations {
			return true, fmt.Sprintf("%s (confidence %.2f)", cls.Category, cls.Confidence)
		}
	case CategoryUnknown:
		if opts.FilterSpam {
			return true, fmt.Sprintf("unclassifiable (confidence %.2f)", cls.Confidence)
		}
	}
	return false, ""
}

// processAttachment runs classify -> vendor resolve -> rule match -> file
// for a single attachment.
func (o *AttachmentOrchestrator) processAttachment(
	ctx context.Context,
	msg *InboundMessage,
	att *Attachment,
	cls *MessageClassification,
	vendorName string,
	opts ScanOptions,
) (*FilingResult, error) {
	doc := o.docs.Classify(ctx, DocumentInput{
		Filename:    att.Filename,
		Text:        msg.BodyText,
		Subject:     msg.Subject,
		SenderEmail: msg.SenderEmail,
	}, o.useAI)

	dest := o.rules.Match(ctx, doc, cls.Category, msg.SenderEmail, cls.VendorID, vendorName)

	filing := &AttachmentFiling{
		AttachmentID:    att.ID,
		MessageID:       msg.ID,
		Category:        doc.Category,
		Confidence:      clamp01(doc.Confidence),
		DestinationKind: dest.Kind,
		DestinationPath: dest.Path,
		Status:          FilingStatusPending,
		DocumentNumber:  doc.DocumentNumber,
		Amount:          doc.Amount,
		Currency:        doc.Currency,
	}
	if err := o.filings.CreateFiling(ctx, filing); err != nil {
		return nil, fmt.Errorf("create filing record: %w", err)
	}

	var result *FilingResult
	if opts.AutoFile {
		result = o.executor.Execute(ctx, filing, att, opts.CloudCredential)
	} else {
		// Auto-filing disabled: the record stays pending for manual action.
		result = &FilingResult{
			DestinationKind: dest.Kind,
			DestinationPath: dest.Path,
			Category:        doc.Category,
			FilingID:        filing.ID,
		}
	}

	if err := o.messages.MarkAttachmentProcessed(ctx, att.ID); err != nil {
		o.logger.Warn("failed to mark attachment processed", zap.Error(err))
	}
	return result, nil
}

func (o *AttachmentOrchestrator) resolveVendorName(ctx context.Context, cls *MessageClassification) string {
	if cls.VendorID == nil || o.vendors == nil {
		return ""
	}
	vendor, err := o.vendors.FindByID(ctx, *cls.VendorID)
	if err != nil || vendor == nil {
		return ""
	}
	return vendor.Name
}
