package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQuickClassifyInvoice(t *testing.T) {
	d := NewDocumentClassifier(nil, zap.NewNop())

	cls := d.QuickClassify("Invoice INV-1001.pdf", "Amount due: 4,200 USD", "Your invoice")

	assert.Equal(t, DocInvoice, cls.Category)
	assert.Contains(t, cls.MatchedPatterns, "invoice:word")
	assert.Contains(t, cls.MatchedPatterns, "invoice:number")
	assert.False(t, cls.UsedAI)
	// 3 matches x (1 + 10/10) = 6, capped at 0.95
	assert.Equal(t, 0.95, cls.Confidence)
}

func TestQuickClassifyCategories(t *testing.T) {
	d := NewDocumentClassifier(nil, zap.NewNop())

	cases := []struct {
		filename string
		subject  string
		want     DocumentCategory
	}{
		{"PO-4482.pdf", "Purchase order for Q3", DocPurchaseOrder},
		{"bol_scan.pdf", "Bill of lading attached", DocBillOfLading},
		{"declaration.pdf", "Customs declaration for entry 881", DocCustomsDocument},
		{"coo.pdf", "Certificate of origin", DocCertificateOfOrigin},
		{"packing.pdf", "Packing slip for carton 4", DocPackingSlip},
		{"rates.pdf", "Ocean freight quote", DocFreightQuote},
		{"label.pdf", "Shipping label and tracking number", DocShippingLabel},
	}
	for _, tc := range cases {
		cls := d.QuickClassify(tc.filename, "", tc.subject)
		assert.Equal(t, tc.want, cls.Category, "filename %q subject %q", tc.filename, tc.subject)
	}
}

func TestQuickClassifyNoMatchIsOther(t *testing.T) {
	d := NewDocumentClassifier(nil, zap.NewNop())

	cls := d.QuickClassify("photo.jpg", "", "vacation pictures")

	assert.Equal(t, DocOther, cls.Category)
	assert.Equal(t, 0.3, cls.Confidence)
	assert.Equal(t, fmt.Sprintf("/other/%s/", time.Now().Format("2006-01")), cls.SuggestedPath)
}

func TestClassifyWithoutAIUsesQuickPath(t *testing.T) {
	ai := &fakeAI{docErr: errors.New("should not be called")}
	d := NewDocumentClassifier(ai, zap.NewNop())

	cls := d.Classify(context.Background(), DocumentInput{
		Filename: "Invoice INV-1.pdf",
		Text:     "invoice body",
	}, false)

	assert.Equal(t, DocInvoice, cls.Category)
	assert.False(t, cls.UsedAI)
	assert.Zero(t, ai.docCalls)
}

func TestClassifyNoTextSkipsAI(t *testing.T) {
	ai := &fakeAI{docErr: errors.New("should not be called")}
	d := NewDocumentClassifier(ai, zap.NewNop())

	cls := d.Classify(context.Background(), DocumentInput{Filename: "Invoice INV-1.pdf"}, true)

	assert.Equal(t, DocInvoice, cls.Category)
	assert.Zero(t, ai.docCalls)
}

func TestClassifyAIFailureFallsBackWithDiscount(t *testing.T) {
	ai := &fakeAI{docErr: errors.New("model unavailable")}
	d := NewDocumentClassifier(ai, zap.NewNop())

	quick := d.QuickClassify("Invoice INV-1001.pdf", "invoice text", "")
	cls := d.Classify(context.Background(), DocumentInput{
		Filename: "Invoice INV-1001.pdf",
		Text:     "invoice text",
	}, true)

	assert.Equal(t, quick.Category, cls.Category)
	assert.InDelta(t, quick.Confidence*0.8, cls.Confidence, 0.001)
	assert.False(t, cls.UsedAI)
}

func TestClassifyAIInvalidCategoryFallsBack(t *testing.T) {
	ai := &fakeAI{docResult: &AIDocumentResult{Category: "spreadsheet", Confidence: 0.99}}
	d := NewDocumentClassifier(ai, zap.NewNop())

	cls := d.Classify(context.Background(), DocumentInput{
		Filename: "Invoice INV-1001.pdf",
		Text:     "invoice text",
	}, true)

	assert.Equal(t, DocInvoice, cls.Category)
	assert.False(t, cls.UsedAI)
}

func TestClassifyAIResultWins(t *testing.T) {
	ai := &fakeAI{docResult: &AIDocumentResult{
		Category:       DocBillOfLading,
		Confidence:     1.2, // clamped
		VendorName:     "Maersk",
		DocumentNumber: "BL-99112",
		SuggestedPath:  "/Maersk/bill_of_lading/2026/",
	}}
	d := NewDocumentClassifier(ai, zap.NewNop())

	cls := d.Classify(context.Background(), DocumentInput{
		Filename: "scan001.pdf",
		Text:     "ocean bill text",
	}, true)

	assert.Equal(t, DocBillOfLading, cls.Category)
	assert.Equal(t, 1.0, cls.Confidence)
	assert.Equal(t, "Maersk", cls.VendorName)
	assert.Equal(t, "BL-99112", cls.DocumentNumber)
	assert.Equal(t, "/Maersk/bill_of_lading/2026/", cls.SuggestedPath)
	assert.True(t, cls.UsedAI)
}

func TestClassifyAIEmptyPathGetsGenericPath(t *testing.T) {
	ai := &fakeAI{docResult: &AIDocumentResult{Category: DocReceipt, Confidence: 0.7}}
	d := NewDocumentClassifier(ai, zap.NewNop())

	cls := d.Classify(context.Background(), DocumentInput{
		Filename: "r.pdf",
		Text:     "payment received",
	}, true)

	require.True(t, cls.UsedAI)
	assert.Equal(t, fmt.Sprintf("/receipt/%s/", time.Now().Format("2006-01")), cls.SuggestedPath)
}
