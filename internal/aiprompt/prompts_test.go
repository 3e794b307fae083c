package aiprompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

func TestBuildMessagePrompt(t *testing.T) {
	msg := &core.MailMessage{
		SenderEmail: "billing@acme.test",
		Subject:     "Invoice INV-1001",
	}

	prompt := BuildMessagePrompt(msg, "body text")
	assert.Contains(t, prompt, "From: billing@acme.test")
	assert.Contains(t, prompt, "Subject: Invoice INV-1001")
	assert.Contains(t, prompt, "body text")
}

func TestParseMessageResponse(t *testing.T) {
	result, err := ParseMessageResponse(`{"category":"legitimate","confidence":0.92,"reasons":["known vendor"]}`)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryLegitimate, result.Category)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
	assert.Equal(t, []string{"known vendor"}, result.Reasons)
}

func TestParseMessageResponseExtractsWrappedJSON(t *testing.T) {
	raw := "Sure, here is the classification:\n```json\n" +
		`{"category":"spam","confidence":0.8,"reasons":[]}` +
		"\n```"

	result, err := ParseMessageResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, core.CategorySpam, result.Category)
}

func TestParseMessageResponseRejectsUnknownCategory(t *testing.T) {
	_, err := ParseMessageResponse(`{"category":"phishing","confidence":0.8}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown message category")
}

func TestParseMessageResponseRejectsNonJSON(t *testing.T) {
	_, err := ParseMessageResponse("I cannot classify this email.")
	assert.Error(t, err)
}

func TestParseDocumentResponse(t *testing.T) {
	raw := `{"category":"invoice","confidence":0.9,"vendor_name":"Acme",
		"document_number":"INV-1001","document_date":"2026-08-27",
		"amount":4200.5,"currency":"USD","related_refs":["PO-4482"],
		"suggested_path":"/Acme/invoice/2026-08/"}`

	result, err := ParseDocumentResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, core.DocInvoice, result.Category)
	assert.Equal(t, "Acme", result.VendorName)
	assert.Equal(t, "INV-1001", result.DocumentNumber)
	assert.InDelta(t, 4200.5, result.Amount, 0.001)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, []string{"PO-4482"}, result.RelatedRefs)
	assert.Equal(t, "/Acme/invoice/2026-08/", result.SuggestedPath)
}

func TestParseDocumentResponsePassesCategoryThrough(t *testing.T) {
	// Category validation belongs to the caller; the parser only shapes.
	result, err := ParseDocumentResponse(`{"category":"spreadsheet","confidence":0.7}`)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentCategory("spreadsheet"), result.Category)
}
