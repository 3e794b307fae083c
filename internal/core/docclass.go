package core

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// categorySpec couples a document category with its weighted patterns and a
// fixed priority used for scoring and tie-breaks.
type categorySpec struct {
	category DocumentCategory
	priority int
	patterns []namedPattern
}

var documentPatterns = []categorySpec{
	{DocInvoice, 10, []namedPattern{
		{"invoice:word", regexp.MustCompile(`(?i)\binvoice\b`)},
		{"invoice:number", regexp.MustCompile(`(?i)\binv[-# ]?\d+\b`)},
		{"invoice:amount_due", regexp.MustCompile(`(?i)\b(amount|balance|total) due\b`)},
		{"invoice:tax", regexp.MustCompile(`(?i)\btax invoice\b`)},
	}},
	{DocPurchaseOrder, 9, []namedPattern{
		{"po:word", regexp.MustCompile(`(?i)\bpurchase order\b`)},
		{"po:number", regexp.MustCompile(`(?i)\bp\.?o\.?[-# ]?\d+\b`)},
		{"po:confirmation", regexp.MustCompile(`(?i)\border confirmation\b`)},
	}},
	{DocBillOfLading, 9, []namedPattern{
		{"bol:word", regexp.MustCompile(`(?i)\bbill of lading\b`)},
		{"bol:number", regexp.MustCompile(`(?i)\bb/l[-# ]?\d*\b`)},
		{"bol:ocean", regexp.MustCompile(`(?i)\b(ocean|master|house) bill\b`)},
	}},
	{DocCustomsDocument, 8, []namedPattern{
		{"customs:declaration", regexp.MustCompile(`(?i)\bcustoms (declaration|entry|clearance)\b`)},
		{"customs:import", regexp.MustCompile(`(?i)\bimport declaration\b`)},
		{"customs:duty", regexp.MustCompile(`(?i)\b(duty|tariff) (assessment|statement)\b`)},
	}},
	{DocCertificateOfOrigin, 8, []namedPattern{
		{"coo:word", regexp.MustCompile(`(?i)\bcertificate of origin\b`)},
		{"coo:country", regexp.MustCompile(`(?i)\bcountry of origin\b`)},
	}},
	{DocReceipt, 8, []namedPattern{
		{"receipt:word", regexp.MustCompile(`(?i)\breceipt\b`)},
		{"receipt:paid", regexp.MustCompile(`(?i)\b(payment received|paid in full)\b`)},
	}},
	{DocPackingSlip, 7, []namedPattern{
		{"packing:slip", regexp.MustCompile(`(?i)\bpacking (slip|list)\b`)},
		{"packing:contents", regexp.MustCompile(`(?i)\bcarton contents\b`)},
	}},
	{DocFreightQuote, 6, []namedPattern{
		{"freight:quote", regexp.MustCompile(`(?i)\bfreight (quote|quotation|rate)\b`)},
		{"freight:rates", regexp.MustCompile(`(?i)\b(ocean|air) freight rates\b`)},
	}},
	{DocContract, 6, []namedPattern{
		{"contract:agreement", regexp.MustCompile(`(?i)\b(agreement|contract)\b`)},
		{"contract:terms", regexp.MustCompile(`(?i)\bterms (and|&) conditions\b`)},
	}},
	{DocShippingLabel, 5, []namedPattern{
		{"label:word", regexp.MustCompile(`(?i)\bshipping label\b`)},
		{"label:tracking", regexp.MustCompile(`(?i)\btracking (number|no|#)\b`)},
	}},
	{DocCorrespondence, 2, []namedPattern{
		{"correspondence:letter", regexp.MustCompile(`(?i)\b(dear (sir|madam)|to whom it may concern)\b`)},
	}},
}

// DocumentClassifier assigns a business-document category to an attachment
// using pattern heuristics with an optional AI enhancement. Both strategies
// are pure functions of their inputs.
type DocumentClassifier struct {
	ai     AIClient
	logger *zap.Logger
}

// NewDocumentClassifier creates a document classifier. ai may be nil; the
// quick path then serves every request.
func NewDocumentClassifier(ai AIClient, logger *zap.Logger) *DocumentClassifier {
	return &DocumentClassifier{ai: ai, logger: logger}
}

// QuickClassify scores every category's patterns against filename, text and
// subject. Score is matches x (1 + priority/10); the best score wins and
// ties break toward higher priority. Confidence = min(0.95, 0.3+0.15*score).
func (d *DocumentClassifier) QuickClassify(filename, text, subject string) *DocumentClassification {
	content := filename + "\n" + subject + "\n" + text

	best := &DocumentClassification{Category: DocOther}
	bestScore := 0.0
	bestPriority := 0

	for _, spec := range documentPatterns {
		matches := 0
		var tags []string
		for _, p := range spec.patterns {
			if p.re.MatchString(content) {
				matches++
				tags = append(tags, p.name)
			}
		}
		if matches == 0 {
			continue
		}
		score := float64(matches) * (1 + float64(spec.priority)/10)
		if score > bestScore || (score == bestScore && spec.priority > bestPriority) {
			bestScore = score
			bestPriority = spec.priority
			best.Category = spec.category
			best.MatchedPatterns = tags
		}
	}

	best.Confidence = 0.3 + 0.15*bestScore
	if best.Confidence > 0.95 {
		best.Confidence = 0.95
	}
	best.SuggestedPath = genericFilingPath(best.Category, time.Now())
	return best
}

// Classify runs the AI strategy when enabled and text is available, falling
// back to the quick strategy with a 0.8x confidence discount on any AI
// failure or schema violation. It always returns a non-nil classification.
func (d *DocumentClassifier) Classify(ctx context.Context, input DocumentInput, useAI bool) *DocumentClassification {
	if !useAI || d.ai == nil || input.Text == "" {
		return d.QuickClassify(input.Filename, input.Text, input.Subject)
	}

	result, err := d.ai.ClassifyDocument(ctx, input)
	if err != nil || result == nil || !IsValidDocumentCategory(result.Category) {
		if err != nil {
			d.logger.Warn("AI document classification failed, using quick classify",
				zap.String("filename", input.Filename), zap.Error(err))
		} else {
			d.logger.Warn("AI returned invalid document category, using quick classify",
				zap.String("filename", input.Filename))
		}
		quick := d.QuickClassify(input.Filename, input.Text, input.Subject)
		quick.Confidence = clamp01(quick.Confidence * 0.8)
		quick.SuggestedPath = genericFilingPath(quick.Category, time.Now())
		return quick
	}

	cls := &DocumentClassification{
		Category:       result.Category,
		Confidence:     clamp01(result.Confidence),
		VendorName:     result.VendorName,
		DocumentNumber: result.DocumentNumber,
		DocumentDate:   result.DocumentDate,
		Amount:         result.Amount,
		Currency:       result.Currency,
		RelatedRefs:    result.RelatedRefs,
		SuggestedPath:  result.SuggestedPath,
		UsedAI:         true,
	}
	if cls.SuggestedPath == "" {
		cls.SuggestedPath = genericFilingPath(cls.Category, time.Now())
	}
	return cls
}

// genericFilingPath is the deterministic fallback path: /<category>/<year>-<month>/.
func genericFilingPath(category DocumentCategory, now time.Time) string {
	return fmt.Sprintf("/%s/%s/", category, now.Format("2006-01"))
}
