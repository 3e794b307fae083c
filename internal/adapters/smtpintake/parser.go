// Package smtpintake accepts mail pushed over SMTP and feeds it through the
// same classification and filing pipeline as scanned mailboxes.
package smtpintake

import (
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"
	"golang.org/x/text/unicode/norm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// parsedAttachment is one decoded attachment from the MIME envelope.
type parsedAttachment struct {
	Filename string
	MimeType string
	Content  []byte
}

// parsedMessage is a decoded inbound SMTP message.
type parsedMessage struct {
	Mail        *core.MailMessage
	Attachments []parsedAttachment
}

// parseEnvelope decodes a raw SMTP DATA payload into the provider-agnostic
// message shape. Decoded headers are NFC-normalized so pattern matching and
// vendor lookups see one canonical form.
func parseEnvelope(r io.Reader, envelopeFrom string) (*parsedMessage, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	msg := &core.MailMessage{
		ProviderID: providerID(env),
		Subject:    norm.NFC.String(env.GetHeader("Subject")),
		BodyText:   env.Text,
		BodyHTML:   env.HTML,
		Headers:    make(map[string]string),
	}
	for _, key := range env.GetHeaderKeys() {
		msg.Headers[key] = env.GetHeader(key)
	}

	msg.SenderName, msg.SenderEmail = splitAddress(env.GetHeader("From"))
	if msg.SenderEmail == "" {
		_, msg.SenderEmail = splitAddress(envelopeFrom)
	}
	msg.SenderName = norm.NFC.String(msg.SenderName)
	_, msg.Recipient = splitAddress(env.GetHeader("To"))

	parsed := &parsedMessage{Mail: msg}
	for _, att := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments, parsedAttachment{
			Filename: norm.NFC.String(att.FileName),
			MimeType: att.ContentType,
			Content:  att.Content,
		})
	}
	// Named inlines count too. Scanners and phone clients attach PDFs
	// inline more often than not.
	for _, att := range env.Inlines {
		if att.FileName == "" {
			continue
		}
		parsed.Attachments = append(parsed.Attachments, parsedAttachment{
			Filename: norm.NFC.String(att.FileName),
			MimeType: att.ContentType,
			Content:  att.Content,
		})
	}

	return parsed, nil
}

// providerID derives a stable id from the Message-Id header so redelivered
// mail dedups against the unique constraint. Messages without one get a
// generated id.
func providerID(env *enmime.Envelope) string {
	id := strings.TrimSpace(env.GetHeader("Message-Id"))
	if id == "" {
		id = strings.TrimSpace(env.GetHeader("Message-ID"))
	}
	id = strings.Trim(id, "<>")
	if id == "" {
		return "smtp-" + uuid.New().String()
	}
	return id
}

func splitAddress(raw string) (name, email string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return addr.Name, strings.ToLower(addr.Address)
	}
	return "", strings.ToLower(strings.Trim(raw, "<>"))
}
