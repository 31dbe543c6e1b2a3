// Package match produces the raw compliance findings for one text.
package match

import (
	"github.com/dshills/contentaudit/internal/rules"
	"github.com/dshills/contentaudit/internal/schema"
)

// Matcher evaluates every catalog rule against a text. It holds only the
// immutable catalog and is safe for concurrent use.
type Matcher struct {
	catalog *rules.Catalog
}

// New returns a Matcher bound to c.
func New(c *rules.Catalog) *Matcher {
	return &Matcher{catalog: c}
}

// Catalog returns the catalog the matcher evaluates.
func (m *Matcher) Catalog() *rules.Catalog { return m.catalog }

// Match normalizes raw and returns its findings. See MatchNormalized.
func (m *Matcher) Match(raw string) []schema.Violation {
	return m.MatchNormalized(raw, rules.Normalize(raw))
}

// MatchNormalized returns the findings for raw, whose normalized form the
// caller has already computed.
//
// Presence rules are checked first against normalized, yielding at most one
// violation per (rule, phrase) pair in catalog then phrase order. Absence
// rules follow in catalog order, each checked against raw and yielding one
// violation when its requirement is unmet. Empty text never satisfies an
// absence rule.
func (m *Matcher) MatchNormalized(raw, normalized string) []schema.Violation {
	out := make([]schema.Violation, 0, 4)

	m.catalog.Index().Scan(normalized, func(p rules.Probe) {
		r := m.catalog.At(p.RuleIndex)
		out = append(out, violation(r, p.Phrase, m.catalog.SuggestionFor(r, p.Phrase)))
	})

	for i := 0; i < m.catalog.Len(); i++ {
		r := m.catalog.At(i)
		if r.Kind != schema.KindAbsence {
			continue
		}
		if raw != "" && r.Satisfied(raw) {
			continue
		}
		out = append(out, violation(r, r.Placeholder, m.catalog.SuggestionFor(r, "")))
	}
	return out
}

func violation(r *rules.Rule, excerpt, suggestion string) schema.Violation {
	return schema.Violation{
		RuleID:         r.ID,
		MatchedExcerpt: excerpt,
		Suggestion:     suggestion,
		Kind:           r.Kind,
		Severity:       r.Severity,
		Category:       r.Category,
		Regulation:     r.Regulation,
		Article:        r.Article,
		Penalty:        r.Penalty,
	}
}
