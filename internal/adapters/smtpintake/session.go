package smtpintake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// session implements the go-smtp Session interface.
type session struct {
	backend    *Backend
	from       string
	recipients []string
}

func newSession(backend *Backend) *session {
	return &session{backend: backend}
}

// AuthPlain accepts any credentials. Intake sits behind the relay, which
// already authenticates.
func (s *session) AuthPlain(username, password string) error {
	return nil
}

// Mail handles the MAIL FROM command.
func (s *session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	return nil
}

// Rcpt handles the RCPT TO command.
func (s *session) Rcpt(to string, opts *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data receives the message content and runs it through the pipeline. A
// duplicate Message-Id is accepted and dropped so upstream relays never see
// retries fail.
func (s *session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	parsed, err := parseEnvelope(r, s.from)
	if err != nil {
		s.backend.logger.Warn("failed to parse inbound message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message content",
		}
	}
	parsed.Mail.Recipient = firstNonEmpty(parsed.Mail.Recipient, s.recipients[0])
	parsed.Mail.ReceivedAt = time.Now()

	ctx := context.Background()
	if err := s.backend.ingest(ctx, parsed); err != nil {
		s.backend.logger.Error("failed to ingest inbound message",
			zap.String("provider_id", parsed.Mail.ProviderID), zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary processing error",
		}
	}

	return nil
}

// Reset clears per-message state.
func (s *session) Reset() {
	s.from = ""
	s.recipients = nil
}

// Logout handles session termination.
func (s *session) Logout() error {
	return nil
}

// ingest persists a parsed message and hands it to the attachment pipeline.
// It mirrors the mailbox scan flow, with attachment bytes taken straight
// from the envelope instead of a provider download.
func (b *Backend) ingest(ctx context.Context, parsed *parsedMessage) error {
	mailMsg := parsed.Mail
	cls := b.spam.Classify(ctx, mailMsg)

	msg := &core.InboundMessage{
		ProviderMessageID: mailMsg.ProviderID,
		SenderEmail:       mailMsg.SenderEmail,
		SenderName:        mailMsg.SenderName,
		Recipient:         mailMsg.Recipient,
		Subject:           mailMsg.Subject,
		BodyText:          mailMsg.BodyText,
		BodyHTML:          mailMsg.BodyHTML,
		Headers:           mailMsg.Headers,
		Status:            core.MessageStatusPending,
		Category:          cls.Category,
		ReceivedAt:        mailMsg.ReceivedAt,
	}
	if err := b.messages.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, core.ErrDuplicateMessage) {
			b.logger.Debug("duplicate message dropped",
				zap.String("provider_id", mailMsg.ProviderID))
			return nil
		}
		return fmt.Errorf("persist: %w", err)
	}

	cls.MessageID = msg.ID
	if err := b.messages.SaveClassification(ctx, cls); err != nil {
		b.logger.Warn("failed to persist classification", zap.Error(err))
	}

	if !b.opts.ProcessAttachments {
		return b.messages.UpdateStatus(ctx, msg.ID, core.MessageStatusParsed)
	}

	b.storeAttachments(ctx, msg, parsed)

	procResult, err := b.orchestrator.ProcessMessage(ctx, msg, mailMsg, cls, b.opts)
	if err != nil {
		if uerr := b.messages.UpdateStatus(ctx, msg.ID, core.MessageStatusFailed); uerr != nil {
			b.logger.Warn("failed to update message status", zap.Error(uerr))
		}
		return fmt.Errorf("process attachments: %w", err)
	}
	if !procResult.Filtered {
		if err := b.messages.UpdateStatus(ctx, msg.ID, core.MessageStatusParsed); err != nil {
			b.logger.Warn("failed to update message status", zap.Error(err))
		}
	}
	return nil
}

// storeAttachments writes each decoded attachment into blob storage and
// persists its record. A storage failure skips that attachment without
// failing the message.
func (b *Backend) storeAttachments(ctx context.Context, msg *core.InboundMessage, parsed *parsedMessage) {
	for _, att := range parsed.Attachments {
		key := fmt.Sprintf("%s/%s", parsed.Mail.ProviderID, att.Filename)
		if _, err := b.blobs.Put(key, att.Content, att.MimeType); err != nil {
			b.logger.Warn("attachment storage failed, skipping",
				zap.String("filename", att.Filename), zap.Error(err))
			continue
		}

		record := &core.Attachment{
			MessageID:  msg.ID,
			Filename:   att.Filename,
			MimeType:   att.MimeType,
			SizeBytes:  int64(len(att.Content)),
			StorageKey: key,
		}
		if err := b.messages.CreateAttachment(ctx, record); err != nil {
			b.logger.Warn("failed to persist attachment record",
				zap.String("filename", att.Filename), zap.Error(err))
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
