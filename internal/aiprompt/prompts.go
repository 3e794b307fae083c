// Package aiprompt holds the prompt templates and response parsing shared
// by every AI provider adapter, so each adapter only carries its own
// transport code.
package aiprompt

import (
	"fmt"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
	"github.com/jcheng510/ai-erp-system-sub004/internal/utils"
)

const messagePromptFormat = `You are an email triage system for a trading company.
Classify the following email into exactly one category:
legitimate, spam, solicitation, newsletter, automated, unknown.
Respond with a JSON object containing:
- category: one of the categories above
- confidence: number between 0 and 1
- reasons: array of short strings explaining the classification

Email:
From: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

const documentPromptFormat = `You are a document classification system for a trading company.
Classify the attached business document into exactly one category:
invoice, receipt, purchase_order, packing_slip, bill_of_lading, customs_document,
certificate_of_origin, freight_quote, shipping_label, contract, correspondence, other.
Respond with a JSON object containing:
- category: one of the categories above
- confidence: number between 0 and 1
- vendor_name: issuing company name if identifiable, else ""
- document_number: invoice/PO/BL number if present, else ""
- document_date: ISO date if present, else ""
- amount: total amount as a number, 0 if none
- currency: three-letter code, "" if none
- related_refs: array of related PO or shipment references
- suggested_path: filing path like "/<vendor>/<category>/<year>-<month>/"

Filename: %s
Email subject: %s
Sender: %s
Extracted text:
%s

Respond only with the JSON object and nothing else.`

// MessageResponse is the constrained JSON shape for message classification.
type MessageResponse struct {
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// DocumentResponse is the constrained JSON shape for document classification.
type DocumentResponse struct {
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	VendorName     string   `json:"vendor_name"`
	DocumentNumber string   `json:"document_number"`
	DocumentDate   string   `json:"document_date"`
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency"`
	RelatedRefs    []string `json:"related_refs"`
	SuggestedPath  string   `json:"suggested_path"`
}

// BuildMessagePrompt renders the message classification prompt.
func BuildMessagePrompt(msg *core.MailMessage, body string) string {
	return fmt.Sprintf(messagePromptFormat, msg.SenderEmail, msg.Subject, body)
}

// BuildDocumentPrompt renders the document classification prompt.
func BuildDocumentPrompt(input core.DocumentInput, text string) string {
	return fmt.Sprintf(documentPromptFormat, input.Filename, input.Subject, input.SenderEmail, text)
}

// ParseMessageResponse validates a raw model response into the typed core
// result. A category outside the closed set is a failure, never passed on.
func ParseMessageResponse(responseText string) (*core.AIMessageResult, error) {
	var resp MessageResponse
	if err := utils.UnmarshalLLMJSON(responseText, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse message classification response: %w", err)
	}

	category := core.MessageCategory(resp.Category)
	switch category {
	case core.CategoryLegitimate, core.CategorySpam, core.CategorySolicitation,
		core.CategoryNewsletter, core.CategoryAutomated, core.CategoryUnknown:
	default:
		return nil, fmt.Errorf("model returned unknown message category %q", resp.Category)
	}

	return &core.AIMessageResult{
		Category:   category,
		Confidence: resp.Confidence,
		Reasons:    resp.Reasons,
	}, nil
}

// ParseDocumentResponse validates a raw model response into the typed core
// result. Category validity is re-checked by the caller against the closed
// set, so unknown strings simply fail the quick-classify fallback check.
func ParseDocumentResponse(responseText string) (*core.AIDocumentResult, error) {
	var resp DocumentResponse
	if err := utils.UnmarshalLLMJSON(responseText, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse document classification response: %w", err)
	}

	return &core.AIDocumentResult{
		Category:       core.DocumentCategory(resp.Category),
		Confidence:     resp.Confidence,
		VendorName:     resp.VendorName,
		DocumentNumber: resp.DocumentNumber,
		DocumentDate:   resp.DocumentDate,
		Amount:         resp.Amount,
		Currency:       resp.Currency,
		RelatedRefs:    resp.RelatedRefs,
		SuggestedPath:  resp.SuggestedPath,
	}, nil
}
