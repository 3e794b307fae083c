// Package gmail implements the mailbox provider port using the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gm "google.golang.org/api/gmail/v1"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// Client is an implementation of the core.MailboxClient interface backed by
// the Gmail API.
type Client struct {
	svc    *gm.Service
	user   string
	logger *zap.Logger
}

// NewClient wraps an authenticated Gmail service. The user is almost always
// the special value "me".
func NewClient(svc *gm.Service, user string, logger *zap.Logger) *Client {
	if user == "" {
		user = "me"
	}
	return &Client{svc: svc, user: user, logger: logger}
}

// ListMessages returns provider message ids matching a Gmail search query,
// following result pages until maxResults ids are collected.
func (c *Client) ListMessages(ctx context.Context, query string, maxResults int64) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		call := c.svc.Users.Messages.List(c.user).Q(query).Context(ctx)
		if maxResults > 0 {
			remaining := maxResults - int64(len(ids))
			if remaining <= 0 {
				break
			}
			call = call.MaxResults(remaining)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}

		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return ids, nil
}

// GetMessage fetches a full message and converts it into the core
// representation, headers and part tree included.
func (c *Client) GetMessage(ctx context.Context, id string) (*core.MailMessage, error) {
	msg, err := c.svc.Users.Messages.Get(c.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	mail := &core.MailMessage{
		ProviderID: msg.Id,
		Headers:    make(map[string]string),
	}
	if msg.InternalDate > 0 {
		mail.ReceivedAt = time.UnixMilli(msg.InternalDate)
	} else {
		mail.ReceivedAt = time.Now()
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			mail.Headers[h.Name] = h.Value
		}
		mail.Root = convertPart(msg.Payload)
	}

	return mail, nil
}

// DownloadAttachment fetches raw attachment bytes for a message part.
func (c *Client) DownloadAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	att, err := c.svc.Users.Messages.Attachments.Get(c.user, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment %s: %w", attachmentID, err)
	}

	data, err := decodeBase64URL(att.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %s: %w", attachmentID, err)
	}
	return data, nil
}

// convertPart maps the Gmail part tree onto the provider-agnostic one.
func convertPart(p *gm.MessagePart) *core.MessagePart {
	if p == nil {
		return nil
	}

	part := &core.MessagePart{
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	if p.Body != nil {
		part.AttachmentID = p.Body.AttachmentId
		part.Size = p.Body.Size
		if p.Body.Data != "" {
			if data, err := decodeBase64URL(p.Body.Data); err == nil {
				part.Data = string(data)
			}
		}
	}
	for _, child := range p.Parts {
		if converted := convertPart(child); converted != nil {
			part.Parts = append(part.Parts, converted)
		}
	}

	return part
}

// decodeBase64URL decodes Gmail's URL-safe base64 without padding.
func decodeBase64URL(data string) ([]byte, error) {
	data = strings.ReplaceAll(data, "-", "+")
	data = strings.ReplaceAll(data, "_", "/")
	switch len(data) % 4 {
	case 2:
		data += "=="
	case 3:
		data += "="
	}
	return base64.StdEncoding.DecodeString(data)
}
