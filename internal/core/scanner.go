package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxPartDepth bounds the recursive multipart walk; real messages nest a
// handful of levels, anything deeper is hostile or broken.
const maxPartDepth = 12

// InboxScanner fetches new messages from the mailbox, de-duplicates them
// against previously seen provider ids, and drives the orchestrator per
// message.
type InboxScanner struct {
	mailbox      MailboxClient
	blobs        BlobStore
	messages     MessageRepository
	spam         *SpamClassifier
	orchestrator *AttachmentOrchestrator
	logger       *zap.Logger

	// pacing is the fixed inter-message delay; static rate limiting, not
	// adaptive backpressure.
	pacing     time.Duration
	windowDays int
}

// NewInboxScanner creates an inbox scanner.
func NewInboxScanner(
	mailbox MailboxClient,
	blobs BlobStore,
	messages MessageRepository,
	spam *SpamClassifier,
	orchestrator *AttachmentOrchestrator,
	logger *zap.Logger,
	pacing time.Duration,
	windowDays int,
) *InboxScanner {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &InboxScanner{
		mailbox:      mailbox,
		blobs:        blobs,
		messages:     messages,
		spam:         spam,
		orchestrator: orchestrator,
		logger:       logger,
		pacing:       pacing,
		windowDays:   windowDays,
	}
}

// Scan runs one scan invocation. A listing failure aborts the scan; a
// failure on an individual message is recorded and scanning continues.
func (s *InboxScanner) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{}

	if s.mailbox == nil {
		return nil, errors.New("mailbox client not configured")
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 50
	}

	query := fmt.Sprintf("has:attachment newer_than:%dd", s.windowDays)
	ids, err := s.mailbox.ListMessages(ctx, query, opts.MaxMessages)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list messages: %v", err))
		result.Duration = time.Since(start)
		return result, fmt.Errorf("list messages: %w", err)
	}

	s.logger.Info("inbox scan started",
		zap.String("query", query), zap.Int("messages", len(ids)))

	for i, id := range ids {
		if i > 0 && s.pacing > 0 {
			time.Sleep(s.pacing)
		}
		result.MessagesScanned++

		if err := s.scanMessage(ctx, id, opts, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("message %s: %v", id, err))
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info("inbox scan finished",
		zap.Int("scanned", result.MessagesScanned),
		zap.Int("processed", result.MessagesProcessed),
		zap.Int("skipped", result.MessagesSkipped),
		zap.Int("filed", result.AttachmentsFiled),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// scanMessage handles a single provider message id end to end.
func (s *InboxScanner) scanMessage(ctx context.Context, id string, opts ScanOptions, result *ScanResult) error {
	// De-duplication: an already-seen provider id is a skip, not an error.
	if _, err := s.messages.FindByProviderID(ctx, id); err == nil {
		result.MessagesSkipped++
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("dedup lookup: %w", err)
	}

	mailMsg, err := s.mailbox.GetMessage(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	s.parseEnvelope(mailMsg)
	mailMsg.BodyText, mailMsg.BodyHTML = ExtractBodies(mailMsg.Root)

	cls := s.spam.Classify(ctx, mailMsg)

	msg := &InboundMessage{
		ProviderMessageID: mailMsg.ProviderID,
		SenderEmail:       mailMsg.SenderEmail,
		SenderName:        mailMsg.SenderName,
		Recipient:         mailMsg.Recipient,
		Subject:           mailMsg.Subject,
		BodyText:          mailMsg.BodyText,
		BodyHTML:          mailMsg.BodyHTML,
		Headers:           mailMsg.Headers,
		Status:            MessageStatusPending,
		Category:          cls.Category,
		ReceivedAt:        mailMsg.ReceivedAt,
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		// The unique constraint is the real idempotency guard: a
		// concurrent scan that won the insert makes this a skip.
		if errors.Is(err, ErrDuplicateMessage) {
			result.MessagesSkipped++
			return nil
		}
		return fmt.Errorf("persist: %w", err)
	}

	cls.MessageID = msg.ID
	if err := s.messages.SaveClassification(ctx, cls); err != nil {
		s.logger.Warn("failed to persist classification", zap.Error(err))
	}

	if opts.ProcessAttachments {
		s.storeAttachments(ctx, msg, mailMsg)

		procResult, err := s.orchestrator.ProcessMessage(ctx, msg, mailMsg, cls, opts)
		if err != nil {
			if uerr := s.messages.UpdateStatus(ctx, msg.ID, MessageStatusFailed); uerr != nil {
				s.logger.Warn("failed to update message status", zap.Error(uerr))
			}
			return fmt.Errorf("process attachments: %w", err)
		}
		result.AttachmentsProcessed += procResult.AttachmentsProcessed
		result.AttachmentsFiled += procResult.AttachmentsFiled
		result.MessagesProcessed++
		if !procResult.Filtered {
			if err := s.messages.UpdateStatus(ctx, msg.ID, MessageStatusParsed); err != nil {
				s.logger.Warn("failed to update message status", zap.Error(err))
			}
		}
		return nil
	}

	result.MessagesProcessed++
	if err := s.messages.UpdateStatus(ctx, msg.ID, MessageStatusParsed); err != nil {
		s.logger.Warn("failed to update message status", zap.Error(err))
	}
	return nil
}

// storeAttachments downloads each attachment in the part tree into blob
// storage and persists its record. A download failure skips that attachment
// without failing the message.
func (s *InboxScanner) storeAttachments(ctx context.Context, msg *InboundMessage, mailMsg *MailMessage) {
	for _, desc := range CollectAttachments(mailMsg.Root) {
		data, err := s.mailbox.DownloadAttachment(ctx, mailMsg.ProviderID, desc.AttachmentID)
		if err != nil {
			s.logger.Warn("attachment download failed, skipping",
				zap.String("filename", desc.Filename), zap.Error(err))
			continue
		}

		key := fmt.Sprintf("%s/%s", mailMsg.ProviderID, desc.Filename)
		if _, err := s.blobs.Put(key, data, desc.MimeType); err != nil {
			s.logger.Warn("attachment storage failed, skipping",
				zap.String("filename", desc.Filename), zap.Error(err))
			continue
		}

		att := &Attachment{
			MessageID:  msg.ID,
			Filename:   desc.Filename,
			MimeType:   desc.MimeType,
			SizeBytes:  int64(len(data)),
			StorageKey: key,
		}
		if err := s.messages.CreateAttachment(ctx, att); err != nil {
			s.logger.Warn("failed to persist attachment record",
				zap.String("filename", desc.Filename), zap.Error(err))
		}
	}
}

// parseEnvelope fills sender/recipient/subject from the flat header map
// when the adapter did not already populate them.
func (s *InboxScanner) parseEnvelope(m *MailMessage) {
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	if m.SenderEmail == "" {
		m.SenderName, m.SenderEmail = splitAddress(HeaderValue(m.Headers, "From"))
	}
	if m.Recipient == "" {
		_, m.Recipient = splitAddress(HeaderValue(m.Headers, "To"))
	}
	if m.Subject == "" {
		m.Subject = HeaderValue(m.Headers, "Subject")
	}
	if m.ReceivedAt.IsZero() {
		if t, err := mail.ParseDate(HeaderValue(m.Headers, "Date")); err == nil {
			m.ReceivedAt = t
		} else {
			m.ReceivedAt = time.Now()
		}
	}
}

// HeaderValue looks a header up case-insensitively in a flat header map.
func HeaderValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// splitAddress parses "Display Name <user@host>" into its two parts.
func splitAddress(raw string) (name, address string) {
	if raw == "" {
		return "", ""
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", strings.ToLower(strings.TrimSpace(raw))
	}
	return addr.Name, strings.ToLower(addr.Address)
}

// ExtractBodies walks the multipart tree depth-first and keeps the first
// text/plain and first text/html parts found; nested multiparts recurse up
// to the depth guard.
func ExtractBodies(root *MessagePart) (text, html string) {
	if root == nil {
		return "", ""
	}
	var walk func(p *MessagePart, depth int)
	walk = func(p *MessagePart, depth int) {
		if p == nil || depth > maxPartDepth {
			return
		}
		// Attachment nodes never contribute body text.
		if p.Filename == "" && p.Data != "" {
			switch {
			case text == "" && strings.HasPrefix(p.MimeType, "text/plain"):
				text = p.Data
			case html == "" && strings.HasPrefix(p.MimeType, "text/html"):
				html = p.Data
			}
		}
		for _, child := range p.Parts {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return text, html
}

// CollectAttachments walks the multipart tree collecting every node that
// carries a filename and a body attachment identifier.
func CollectAttachments(root *MessagePart) []AttachmentDescriptor {
	var out []AttachmentDescriptor
	if root == nil {
		return out
	}
	var walk func(p *MessagePart, depth int)
	walk = func(p *MessagePart, depth int) {
		if p == nil || depth > maxPartDepth {
			return
		}
		if p.Filename != "" && p.AttachmentID != "" {
			size := p.Size
			if size == 0 {
				size = int64(len(p.Data))
			}
			out = append(out, AttachmentDescriptor{
				Filename:     p.Filename,
				MimeType:     p.MimeType,
				SizeBytes:    size,
				AttachmentID: p.AttachmentID,
			})
		}
		for _, child := range p.Parts {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return out
}
