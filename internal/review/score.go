package review

import "github.com/dshills/contentaudit/internal/schema"

// Deductions applied once per violation. Low and info findings are advisory:
// they are reported and move the tier off safe, but cost no points.
const (
	deductCritical = 30
	deductHigh     = 15
	deductMedium   = 5
)

// Outcome is the scored view of a findings list.
type Outcome struct {
	Score    int
	Tier     schema.RiskTier
	Approved bool
}

// Evaluate scores violations. It is a pure function of its input.
func Evaluate(violations []schema.Violation) Outcome {
	return Outcome{
		Score:    Score(violations),
		Tier:     Tier(violations),
		Approved: Approved(violations),
	}
}

// Score computes the deterministic score from all violations.
// Start: 100, -30 per critical, -15 per high, -5 per medium, clamped to [0,100].
func Score(violations []schema.Violation) int {
	score := 100
	for _, v := range violations {
		switch v.Severity {
		case schema.SeverityCritical:
			score -= deductCritical
		case schema.SeverityHigh:
			score -= deductHigh
		case schema.SeverityMedium:
			score -= deductMedium
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Tier derives the risk tier from the most severe violation present.
// Counts do not matter: one critical outranks any number of highs.
func Tier(violations []schema.Violation) schema.RiskTier {
	worst := -1
	for _, v := range violations {
		if o := schema.SeverityOrdinal(v.Severity); o > worst {
			worst = o
		}
	}
	switch {
	case worst >= schema.SeverityOrdinal(schema.SeverityCritical):
		return schema.TierCritical
	case worst == schema.SeverityOrdinal(schema.SeverityHigh):
		return schema.TierHigh
	case worst == schema.SeverityOrdinal(schema.SeverityMedium):
		return schema.TierMedium
	case len(violations) > 0: // low or info only
		return schema.TierLow
	}
	return schema.TierSafe
}

// Approved reports whether content may be published: no critical and no
// high violation.
func Approved(violations []schema.Violation) bool {
	for _, v := range violations {
		if v.Severity == schema.SeverityCritical || v.Severity == schema.SeverityHigh {
			return false
		}
	}
	return true
}

// Counts returns the per-severity violation counts.
func Counts(violations []schema.Violation) map[schema.Severity]int {
	counts := make(map[schema.Severity]int, 5)
	for _, v := range violations {
		counts[v.Severity]++
	}
	return counts
}

// FilterBySeverity returns only violations at or above the given threshold.
// It is for display; score, tier and approval always use the full list.
func FilterBySeverity(violations []schema.Violation, threshold schema.Severity) []schema.Violation {
	if threshold == schema.SeverityInfo {
		return violations
	}
	out := make([]schema.Violation, 0, len(violations))
	for _, v := range violations {
		if schema.SeverityOrdinal(v.Severity) >= schema.SeverityOrdinal(threshold) {
			out = append(out, v)
		}
	}
	return out
}
