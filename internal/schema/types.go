package schema

import (
	"fmt"
	"time"
)

// Severity levels for rules and the violations they produce.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityOrdinal returns the numeric ordering for a severity.
// info(0) < low(1) < medium(2) < high(3) < critical(4).
// Returns -1 for an unrecognised severity.
func SeverityOrdinal(s Severity) int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return -1
	}
}

// IsValidSeverity reports whether s is one of the five defined severities.
func IsValidSeverity(s Severity) bool {
	return SeverityOrdinal(s) >= 0
}

// RiskTier is the publication risk class of an audited text.
type RiskTier string

const (
	TierSafe     RiskTier = "safe"
	TierLow      RiskTier = "low"
	TierMedium   RiskTier = "medium"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

// Tiers lists every tier from least to most severe.
var Tiers = []RiskTier{TierSafe, TierLow, TierMedium, TierHigh, TierCritical}

// TierOrdinal returns the numeric ordering for a tier, used by --fail-on
// comparison. safe(0) < low(1) < medium(2) < high(3) < critical(4).
// Returns -1 for an unrecognised tier.
func TierOrdinal(t RiskTier) int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Category groups rules by the body of regulation they come from.
type Category string

const (
	CategoryAdvertising        Category = "advertising"
	CategoryEthics             Category = "ethics"
	CategoryDataProtection     Category = "data-protection"
	CategoryTelehealth         Category = "telehealth"
	CategoryConsumerProtection Category = "consumer-protection"
)

// Categories lists the categories in display order.
var Categories = []Category{
	CategoryAdvertising,
	CategoryEthics,
	CategoryDataProtection,
	CategoryTelehealth,
	CategoryConsumerProtection,
}

// IsValidCategory reports whether c is one of the five defined categories.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryAdvertising,
		CategoryEthics,
		CategoryDataProtection,
		CategoryTelehealth,
		CategoryConsumerProtection:
		return true
	}
	return false
}

// Kind selects how a rule is evaluated.
type Kind string

const (
	// KindPresence rules are violated when any trigger phrase occurs.
	KindPresence Kind = "presence"
	// KindAbsence rules are violated when a required element is missing.
	KindAbsence Kind = "absence"
)

// Platform is the publication channel the audited text targets.
// It is carried for reporting and never changes which rules apply.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformSite      Platform = "site"
)

// Platforms lists the supported platforms.
var Platforms = []Platform{PlatformInstagram, PlatformLinkedIn, PlatformWhatsApp, PlatformSite}

// ParsePlatform converts a wire string into a Platform.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q: valid platforms are instagram, linkedin, whatsapp, site", s)
}

// Violation is a single finding against one rule.
type Violation struct {
	RuleID         string   `json:"ruleId"`
	MatchedExcerpt string   `json:"matchedExcerpt"`
	Suggestion     string   `json:"suggestion"`
	Kind           Kind     `json:"kind"`
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	Regulation     string   `json:"regulation"`
	Article        string   `json:"article"`
	Penalty        string   `json:"penalty,omitempty"`
}

// AuditResult is the outcome of one audit. It is never modified after the
// auditor builds it; the audit log keeps its own copy.
type AuditResult struct {
	ID                  string      `json:"id"`
	CorrelationID       string      `json:"correlationId,omitempty"`
	Platform            Platform    `json:"platform"`
	Score               int         `json:"score"`
	RiskTier            RiskTier    `json:"riskTier"`
	Approved            bool        `json:"approved"`
	Violations          []Violation `json:"violations"`
	Timestamp           time.Time   `json:"timestamp"`
	TotalRulesEvaluated int         `json:"totalRulesEvaluated"`
	CatalogVersion      string      `json:"catalogVersion"`
	ContentHash         string      `json:"contentHash"` // sha256 of the raw text; the text itself is not kept
}

// Clone returns a deep copy of r.
func (r *AuditResult) Clone() *AuditResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Violations = make([]Violation, len(r.Violations))
	copy(out.Violations, r.Violations)
	return &out
}

// Summary is the history view of an AuditResult.
type Summary struct {
	ID             string    `json:"id"`
	CorrelationID  string    `json:"correlationId,omitempty"`
	Platform       Platform  `json:"platform"`
	Score          int       `json:"score"`
	RiskTier       RiskTier  `json:"riskTier"`
	Approved       bool      `json:"approved"`
	ViolationCount int       `json:"violationCount"`
	Timestamp      time.Time `json:"timestamp"`
}

// Summarize builds the history view of r.
func Summarize(r *AuditResult) Summary {
	return Summary{
		ID:             r.ID,
		CorrelationID:  r.CorrelationID,
		Platform:       r.Platform,
		Score:          r.Score,
		RiskTier:       r.RiskTier,
		Approved:       r.Approved,
		ViolationCount: len(r.Violations),
		Timestamp:      r.Timestamp,
	}
}

// Stats holds the aggregate view over the audit log.
// ApprovalRate and AverageScore are 0 when no audit has been recorded.
type Stats struct {
	TotalAudits    int              `json:"totalAudits"`
	Approved       int              `json:"approved"`
	Rejected       int              `json:"rejected"`
	ApprovalRate   float64          `json:"approvalRate"`
	AverageScore   float64          `json:"averageScore"`
	ByTier         map[RiskTier]int `json:"byTier"`
	RulesMonitored int              `json:"rulesMonitored"`
}
