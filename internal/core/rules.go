package core

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RuleMatcher evaluates the configured filing rules against a document
// classification. Rules are tried in ascending priority order and the first
// rule whose present conditions all hold wins; absent conditions are
// vacuously true.
type RuleMatcher struct {
	rules  RuleRepository
	logger *zap.Logger
}

// NewRuleMatcher creates a rule matcher.
func NewRuleMatcher(rules RuleRepository, logger *zap.Logger) *RuleMatcher {
	return &RuleMatcher{rules: rules, logger: logger}
}

// Match selects a destination for a classified document. When no rule
// matches, the destination is pending with the classifier's suggested path.
func (m *RuleMatcher) Match(
	ctx context.Context,
	doc *DocumentClassification,
	msgCategory MessageCategory,
	sender string,
	vendorID *uint,
	vendorName string,
) *Destination {
	rules, err := m.rules.ListEnabled(ctx)
	if err != nil {
		m.logger.Warn("failed to load filing rules", zap.Error(err))
		rules = nil
	}

	for _, rule := range rules {
		if !ruleMatches(&rule, doc, msgCategory, sender, vendorID) {
			continue
		}
		path := RenderPathTemplate(rule.PathTemplate, vendorName, doc.Category, time.Now())

		// Usage counting is observability, not correctness.
		if err := m.rules.IncrementUsage(ctx, rule.ID); err != nil {
			m.logger.Warn("failed to increment rule usage",
				zap.Uint("rule_id", rule.ID), zap.Error(err))
		}

		m.logger.Debug("filing rule matched",
			zap.String("rule", rule.Name),
			zap.String("category", string(doc.Category)),
			zap.String("path", path))

		return &Destination{
			Kind:     rule.DestinationKind,
			Path:     path,
			RuleID:   rule.ID,
			RuleName: rule.Name,
		}
	}

	return &Destination{Kind: DestPending, Path: doc.SuggestedPath}
}

// ruleMatches checks every present condition of one rule.
func ruleMatches(
	rule *FilingRule,
	doc *DocumentClassification,
	msgCategory MessageCategory,
	sender string,
	vendorID *uint,
) bool {
	if len(rule.DocumentCategories) > 0 && !containsDocCategory(rule.DocumentCategories, doc.Category) {
		return false
	}
	if len(rule.MessageCategories) > 0 && !containsMsgCategory(rule.MessageCategories, msgCategory) {
		return false
	}
	if len(rule.VendorIDs) > 0 {
		if vendorID == nil || !containsUint(rule.VendorIDs, *vendorID) {
			return false
		}
	}
	if rule.SenderPattern != "" {
		re, err := regexp.Compile(rule.SenderPattern)
		if err != nil || !re.MatchString(strings.ToLower(sender)) {
			return false
		}
	}
	if rule.MinConfidence > 0 && doc.Confidence < rule.MinConfidence {
		return false
	}
	return true
}

// RenderPathTemplate substitutes the destination path placeholders
// {vendor}, {type}, {date}, {month} and {year}.
func RenderPathTemplate(template, vendorName string, category DocumentCategory, now time.Time) string {
	if vendorName == "" {
		vendorName = "unknown"
	}
	r := strings.NewReplacer(
		"{vendor}", sanitizePathSegment(vendorName),
		"{type}", string(category),
		"{date}", now.Format("2006-01-02"),
		"{month}", now.Format("01"),
		"{year}", now.Format("2006"),
	)
	return r.Replace(template)
}

// sanitizePathSegment keeps vendor names usable as folder names.
func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "-")
	return s
}

func containsDocCategory(list []DocumentCategory, c DocumentCategory) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

func containsMsgCategory(list []MessageCategory, c MessageCategory) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

func containsUint(list []uint, v uint) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
