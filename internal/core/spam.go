package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Pattern-score tuning. Each matching pattern adds patternWeight to its
// bucket; a sender domain on one of the known-domain lists adds domainBoost.
const (
	patternWeight = 0.15
	domainBoost   = 0.4
)

// namedPattern ties a regex to the tag recorded in MatchedPatterns.
type namedPattern struct {
	name string
	re   *regexp.Regexp
}

var spamPatterns = []namedPattern{
	{"spam:lottery", regexp.MustCompile(`(?i)\b(lottery|jackpot|you (have )?won)\b`)},
	{"spam:crypto", regexp.MustCompile(`(?i)\b(crypto(currency)? (giveaway|investment)|bitcoin doubler)\b`)},
	{"spam:urgent_money", regexp.MustCompile(`(?i)\b(wire transfer urgently|claim your (funds|prize)|inheritance fund)\b`)},
	{"spam:pharma", regexp.MustCompile(`(?i)\b(viagra|cialis|cheap meds|online pharmacy)\b`)},
	{"spam:account_verify", regexp.MustCompile(`(?i)\b(verify your account|account (has been )?suspended|confirm your password)\b`)},
	{"spam:free_money", regexp.MustCompile(`(?i)\b(100% free|risk[- ]free|no strings attached|get rich)\b`)},
	{"spam:work_from_home", regexp.MustCompile(`(?i)\b(work from home and earn|earn \$\d+ (a|per) (day|week))\b`)},
}

var solicitationPatterns = []namedPattern{
	{"solicitation:quick_question", regexp.MustCompile(`(?i)\b(quick question|touching base|circling back|bumping this)\b`)},
	{"solicitation:book_call", regexp.MustCompile(`(?i)\b(book (a|some) time|schedule a (quick )?(call|demo|chat)|15 minutes)\b`)},
	{"solicitation:cold_pitch", regexp.MustCompile(`(?i)\b(our (platform|solution|tool) (helps|enables)|companies like yours|i noticed (you|your company))\b`)},
	{"solicitation:follow_up", regexp.MustCompile(`(?i)\b(just following up|did you (get|see) my (last )?email|any thoughts on my)\b`)},
	{"solicitation:growth", regexp.MustCompile(`(?i)\b(increase your (sales|revenue|roi)|generate more leads|scale your)\b`)},
	{"solicitation:decision_maker", regexp.MustCompile(`(?i)\b(right person to (talk|speak) to|who (handles|is in charge of))\b`)},
}

var newsletterPatterns = []namedPattern{
	{"newsletter:unsubscribe", regexp.MustCompile(`(?i)\b(unsubscribe|manage (your )?(email )?preferences|opt[- ]out)\b`)},
	{"newsletter:digest", regexp.MustCompile(`(?i)\b((weekly|monthly|daily) (digest|roundup|newsletter)|this week in)\b`)},
	{"newsletter:view_browser", regexp.MustCompile(`(?i)view (this email )?in (your )?browser`)},
	{"newsletter:mailing_list", regexp.MustCompile(`(?i)\b(you('re| are) receiving this (email )?because|mailing list)\b`)},
}

var legitimatePatterns = []namedPattern{
	{"legit:invoice", regexp.MustCompile(`(?i)\b(invoice|inv[-# ]?\d+|amount due|payment (due|received|confirmation))\b`)},
	{"legit:purchase_order", regexp.MustCompile(`(?i)\b(purchase order|p\.?o\.?[-# ]?\d+|order confirmation)\b`)},
	{"legit:shipping", regexp.MustCompile(`(?i)\b(bill of lading|b/l[-# ]?\d*|tracking (number|no)|shipment (update|notification)|container)\b`)},
	{"legit:customs", regexp.MustCompile(`(?i)\b(customs (clearance|declaration|entry)|certificate of origin|hs code)\b`)},
	{"legit:freight", regexp.MustCompile(`(?i)\b(freight (quote|invoice|charges)|packing (slip|list)|delivery order)\b`)},
	{"legit:account", regexp.MustCompile(`(?i)\b(statement of account|remittance advice|credit note|wire confirmation)\b`)},
	{"legit:quote", regexp.MustCompile(`(?i)\b(quotation|quote (no|number|ref)|proforma)\b`)},
}

// marketingPlatformDomains are bulk-outreach and campaign platforms. A
// sender from one of these gets a large solicitation boost.
var marketingPlatformDomains = []string{
	"apollo.io", "outreach.io", "salesloft.com", "hubspot.com",
	"mailchimp.com", "sendgrid.net", "constantcontact.com",
	"klaviyo.com", "marketo.com", "pardot.com", "lemlist.com",
}

// transactionalDomains are carriers, processors and billing systems whose
// mail is almost always operational.
var transactionalDomains = []string{
	"dhl.com", "fedex.com", "ups.com", "usps.com", "maersk.com",
	"msc.com", "cma-cgm.com", "flexport.com", "stripe.com",
	"paypal.com", "bill.com", "intuit.com", "xero.com",
}

// SpamClassifier assigns a message-level legitimacy classification using
// block/trust lists, pattern heuristics and an optional AI backend.
type SpamClassifier struct {
	senders  SenderListRepository
	vendors  VendorRepository
	ai       AIClient
	cache    ClassificationCache
	logger   *zap.Logger
	cacheTTL time.Duration

	// Spam score at or above which the sender is auto-blocked.
	autoBlockThreshold float64
}

// NewSpamClassifier creates a spam classifier. ai and cache may be nil, in
// which case the AI step is skipped and no per-sender caching happens.
func NewSpamClassifier(
	senders SenderListRepository,
	vendors VendorRepository,
	ai AIClient,
	cache ClassificationCache,
	logger *zap.Logger,
	cacheTTL time.Duration,
	autoBlockThreshold float64,
) *SpamClassifier {
	return &SpamClassifier{
		senders:            senders,
		vendors:            vendors,
		ai:                 ai,
		cache:              cache,
		logger:             logger,
		cacheTTL:           cacheTTL,
		autoBlockThreshold: autoBlockThreshold,
	}
}

// Classify runs the full classification state machine for one message.
// It never fails: list or AI errors degrade to deterministic results.
func (c *SpamClassifier) Classify(ctx context.Context, msg *MailMessage) *MessageClassification {
	sender := strings.ToLower(strings.TrimSpace(msg.SenderEmail))
	cls := &MessageClassification{
		SenderEmail: sender,
		Reputation:  ReputationNeutral,
	}

	// Step 1: blocked sender. Terminal, regardless of content.
	if c.matchesBlockedList(ctx, sender) {
		cls.Category = CategorySpam
		cls.Confidence = 1.0
		cls.SpamScore = 1.0
		cls.Reputation = ReputationBlocked
		cls.ShouldProcess = false
		cls.Reasons = append(cls.Reasons, "sender matches blocked list")
		return cls
	}

	// Step 2: trusted sender. Terminal, regardless of content.
	if trusted := c.matchTrustedList(ctx, sender); trusted != nil {
		cls.Category = CategoryLegitimate
		cls.Confidence = 0.95
		cls.Reputation = ReputationTrusted
		cls.ShouldProcess = true
		cls.Reasons = append(cls.Reasons, "sender matches trusted list")
		if trusted.VendorID != nil {
			cls.IsKnownVendor = true
			cls.VendorID = trusted.VendorID
		}
		return cls
	}

	// Cached verdict for a repeat sender skips scoring and the AI path.
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, sender); err == nil && entry != nil {
			c.logger.Debug("classification cache hit", zap.String("sender", sender))
			cls.Category = entry.Category
			cls.Confidence = entry.Confidence
			cls.SpamScore = entry.SpamScore
			cls.Reputation = entry.Reputation
			cls.Reasons = append(cls.Reasons, "cached sender classification")
			cls.ShouldProcess = cls.Category == CategoryLegitimate ||
				(cls.Category == CategoryUnknown && cls.Confidence < 0.6)
			return cls
		}
	}

	// Step 3: vendor domain match. Recorded, never terminal.
	domain := senderDomain(sender)
	if c.vendors != nil && domain != "" {
		if vendor, err := c.vendors.FindByDomain(ctx, domain); err == nil && vendor != nil {
			cls.IsKnownVendor = true
			cls.VendorID = &vendor.ID
			cls.Reasons = append(cls.Reasons, fmt.Sprintf("sender domain matches vendor %q", vendor.Name))
		}
	}

	// Step 4: pattern scoring over subject + body + domain.
	content := msg.Subject + "\n" + msg.BodyText
	if msg.BodyText == "" {
		content = msg.Subject + "\n" + msg.BodyHTML
	}

	spamScore := c.scoreFamily(spamPatterns, content, cls)
	solicitScore := c.scoreFamily(solicitationPatterns, content, cls)
	newsScore := c.scoreFamily(newsletterPatterns, content, cls)
	legitScore := c.scoreFamily(legitimatePatterns, content, cls)

	if domainInList(domain, marketingPlatformDomains) {
		solicitScore += domainBoost
		cls.MatchedPatterns = append(cls.MatchedPatterns, "domain:marketing_platform")
	}
	if domainInList(domain, transactionalDomains) {
		legitScore += domainBoost
		cls.MatchedPatterns = append(cls.MatchedPatterns, "domain:transactional")
	}

	spamScore = clamp01(spamScore)
	solicitScore = clamp01(solicitScore)
	newsScore = clamp01(newsScore)
	legitScore = clamp01(legitScore)

	cls.SpamScore = spamScore
	cls.SolicitationScore = solicitScore

	// Step 5: strong-signal short-circuits skip the AI entirely.
	if legitScore > 0.5 && spamScore < 0.2 && solicitScore < 0.2 {
		cls.Category = CategoryLegitimate
		cls.Confidence = clamp01(0.8 + 0.2*legitScore)
		cls.ShouldProcess = true
		cls.Reasons = append(cls.Reasons, scoreSummary(spamScore, solicitScore, newsScore, legitScore))
		c.cacheResult(ctx, cls)
		return cls
	}
	if spamScore > 0.5 {
		cls.Category = CategorySpam
		cls.Confidence = clamp01(0.7 + 0.3*spamScore)
		cls.Reputation = ReputationSuspicious
		cls.ShouldProcess = false
		cls.Reasons = append(cls.Reasons, scoreSummary(spamScore, solicitScore, newsScore, legitScore))
		c.autoBlock(ctx, sender, spamScore)
		c.cacheResult(ctx, cls)
		return cls
	}

	// Step 6: AI classification for the ambiguous middle.
	aiRan := false
	if c.ai != nil {
		result, err := c.ai.ClassifyMessage(ctx, msg)
		if err != nil {
			c.logger.Warn("AI message classification failed",
				zap.String("sender", sender), zap.Error(err))
			cls.Category = CategoryUnknown
			cls.Confidence = 0.5
			cls.Reasons = append(cls.Reasons, fmt.Sprintf("AI classification unavailable: %v", err))
			aiRan = true
		} else {
			cls.Category = result.Category
			cls.Confidence = clamp01(result.Confidence)
			cls.Reasons = append(cls.Reasons, result.Reasons...)
			aiRan = true
		}
	}

	// Step 7: combine. Without an AI verdict the scores pick the label.
	if !aiRan {
		switch {
		case newsScore > 0.3:
			cls.Category = CategoryNewsletter
			cls.Confidence = clamp01(0.5 + 0.3*newsScore)
		case solicitScore > 0.3:
			cls.Category = CategorySolicitation
			cls.Confidence = clamp01(0.5 + 0.3*solicitScore)
		case spamScore > 0.2:
			cls.Category = CategorySpam
			cls.Confidence = clamp01(0.5 + 0.3*spamScore)
		case legitScore > 0.2:
			cls.Category = CategoryLegitimate
			cls.Confidence = clamp01(0.5 + 0.3*legitScore)
		default:
			cls.Category = CategoryUnknown
			cls.Confidence = 0.5
		}
	}
	cls.Reasons = append(cls.Reasons, scoreSummary(spamScore, solicitScore, newsScore, legitScore))

	// The low-confidence unknown safety net deliberately overrides filter
	// toggles: better to process a mislabeled invoice than to lose it.
	cls.ShouldProcess = cls.Category == CategoryLegitimate ||
		(cls.Category == CategoryUnknown && cls.Confidence < 0.6) ||
		(cls.Category == CategoryNewsletter && legitScore > 0.3)

	if cls.Category == CategorySpam {
		cls.Reputation = ReputationSuspicious
		c.autoBlock(ctx, sender, spamScore)
	}

	c.cacheResult(ctx, cls)
	return cls
}

// scoreFamily adds patternWeight per matching pattern and records tags.
func (c *SpamClassifier) scoreFamily(patterns []namedPattern, content string, cls *MessageClassification) float64 {
	score := 0.0
	for _, p := range patterns {
		if p.re.MatchString(content) {
			score += patternWeight
			cls.MatchedPatterns = append(cls.MatchedPatterns, p.name)
		}
	}
	return score
}

func (c *SpamClassifier) matchesBlockedList(ctx context.Context, sender string) bool {
	if c.senders == nil {
		return false
	}
	blocked, err := c.senders.ListBlocked(ctx)
	if err != nil {
		c.logger.Warn("failed to load blocked senders", zap.Error(err))
		return false
	}
	for _, b := range blocked {
		if matchesSenderPattern(b.Pattern, b.PatternType, sender) {
			return true
		}
	}
	return false
}

func (c *SpamClassifier) matchTrustedList(ctx context.Context, sender string) *TrustedSender {
	if c.senders == nil {
		return nil
	}
	trusted, err := c.senders.ListTrusted(ctx)
	if err != nil {
		c.logger.Warn("failed to load trusted senders", zap.Error(err))
		return nil
	}
	for i := range trusted {
		if matchesSenderPattern(trusted[i].Pattern, trusted[i].PatternType, sender) {
			return &trusted[i]
		}
	}
	return nil
}

// autoBlock records high-score spammers into the blocked list so the next
// message from them terminates at step 1.
func (c *SpamClassifier) autoBlock(ctx context.Context, sender string, spamScore float64) {
	if c.senders == nil || spamScore < c.autoBlockThreshold || c.autoBlockThreshold <= 0 {
		return
	}
	entry := &BlockedSender{
		Pattern:     sender,
		PatternType: PatternExact,
		Reason:      fmt.Sprintf("auto-blocked: spam score %.2f", spamScore),
	}
	if err := c.senders.BlockSender(ctx, entry); err != nil {
		c.logger.Warn("failed to auto-block sender", zap.String("sender", sender), zap.Error(err))
	} else {
		c.logger.Info("auto-blocked sender",
			zap.String("sender", sender), zap.Float64("spam_score", spamScore))
	}
}

func (c *SpamClassifier) cacheResult(ctx context.Context, cls *MessageClassification) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	entry := &CachedClassification{
		SenderEmail: cls.SenderEmail,
		Category:    cls.Category,
		Confidence:  cls.Confidence,
		SpamScore:   cls.SpamScore,
		Reputation:  cls.Reputation,
		LastSeen:    time.Now(),
	}
	if err := c.cache.Set(ctx, entry, c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache classification", zap.Error(err))
	}
}

// matchesSenderPattern applies an exact, domain or regex sender pattern.
func matchesSenderPattern(pattern string, patternType SenderPatternType, sender string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	switch patternType {
	case PatternDomain:
		return senderDomain(sender) == strings.TrimPrefix(pattern, "@")
	case PatternRegex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(sender)
	default:
		return sender == pattern
	}
}

// senderDomain extracts the domain part of an email address.
func senderDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func domainInList(domain string, list []string) bool {
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func scoreSummary(spam, solicit, news, legit float64) string {
	return fmt.Sprintf("pattern scores: spam=%.2f solicitation=%.2f newsletter=%.2f legitimate=%.2f",
		spam, solicit, news, legit)
}
