package rules

import (
	"regexp"
	"strings"

	"github.com/dshills/contentaudit/internal/schema"
)

// Rule is one regulatory obligation.
type Rule struct {
	ID          string          `yaml:"id" json:"id"`
	Category    schema.Category `yaml:"category" json:"category"`
	Regulation  string          `yaml:"regulation" json:"regulation"`
	Article     string          `yaml:"article" json:"article"`
	Description string          `yaml:"description" json:"description"`
	Kind        schema.Kind     `yaml:"kind" json:"kind"`
	Severity    schema.Severity `yaml:"severity" json:"severity"`
	Penalty     string          `yaml:"penalty" json:"penalty"`
	Triggers    []string        `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Requirement *Requirement    `yaml:"requirement,omitempty" json:"requirement,omitempty"`
	Placeholder string          `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Suggestion  string          `yaml:"suggestion,omitempty" json:"suggestion,omitempty"`

	pattern *regexp.Regexp
}

// Requirement is the predicate an absence rule needs satisfied.
// Either a Pattern match or any AnyOf phrase satisfies it.
type Requirement struct {
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	AnyOf   []string `yaml:"anyOf,omitempty" json:"anyOf,omitempty"`
}

// Satisfied reports whether raw text meets an absence rule's requirement.
// Presence rules are always satisfied. Matching is case-insensitive and runs
// on the text as written, without whitespace normalization.
func (r *Rule) Satisfied(raw string) bool {
	if r.Kind != schema.KindAbsence || r.Requirement == nil {
		return true
	}
	if r.pattern != nil && r.pattern.MatchString(raw) {
		return true
	}
	if len(r.Requirement.AnyOf) == 0 {
		return false
	}
	lower := strings.ToLower(raw)
	for _, phrase := range r.Requirement.AnyOf {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// Catalog is the immutable, versioned rule set. Build one with Parse, Load or
// Default; nothing mutates it afterwards, so it is safe to share.
type Catalog struct {
	version            string
	presenceSuggestion string
	rules              []Rule
	byID               map[string]int
	index              *TriggerIndex
}

// Version returns the catalog version string from the rule document.
func (c *Catalog) Version() string { return c.version }

// Len returns the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Index returns the trigger index compiled for this catalog.
func (c *Catalog) Index() *TriggerIndex { return c.index }

// All returns every rule in catalog order.
func (c *Catalog) All() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// ByCategory returns the rules of one category in catalog order.
func (c *Catalog) ByCategory(cat schema.Category) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

// Categories returns the categories that have at least one rule, in the
// canonical category order.
func (c *Catalog) Categories() []schema.Category {
	seen := make(map[schema.Category]bool, len(schema.Categories))
	for _, r := range c.rules {
		seen[r.Category] = true
	}
	var out []schema.Category
	for _, cat := range schema.Categories {
		if seen[cat] {
			out = append(out, cat)
		}
	}
	return out
}

// Get returns the rule with the given id.
func (c *Catalog) Get(id string) (Rule, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// At returns the rule at catalog position i. It panics if i is out of range.
func (c *Catalog) At(i int) *Rule { return &c.rules[i] }

// SuggestionFor returns the remediation text for a violation of r.
// Presence rules without their own suggestion fall back to the catalog
// template, with {phrase} replaced by the matched phrase.
func (c *Catalog) SuggestionFor(r *Rule, phrase string) string {
	tmpl := r.Suggestion
	if tmpl == "" {
		tmpl = c.presenceSuggestion
	}
	return strings.ReplaceAll(tmpl, "{phrase}", phrase)
}
