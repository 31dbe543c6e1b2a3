package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/contentaudit/internal/schema"
)

// ErrInvalidCatalog is the sentinel every catalog configuration error wraps.
var ErrInvalidCatalog = errors.New("invalid rule catalog")

// ConfigError describes why a catalog document was rejected. It is fatal:
// the process must not start with an inconsistent catalog.
type ConfigError struct {
	RuleIndex int // -1 when the error is not tied to one rule
	RuleID    string
	Msg       string
}

func (e *ConfigError) Error() string {
	if e.RuleIndex < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidCatalog, e.Msg)
	}
	if e.RuleID != "" {
		return fmt.Sprintf("%s: rule[%d] %q: %s", ErrInvalidCatalog, e.RuleIndex, e.RuleID, e.Msg)
	}
	return fmt.Sprintf("%s: rule[%d]: %s", ErrInvalidCatalog, e.RuleIndex, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidCatalog }

func ruleErr(idx int, id, format string, args ...any) error {
	return &ConfigError{RuleIndex: idx, RuleID: id, Msg: fmt.Sprintf(format, args...)}
}

func validateDocument(doc *document) error {
	if strings.TrimSpace(doc.Version) == "" {
		return &ConfigError{RuleIndex: -1, Msg: "version is required"}
	}
	if len(doc.Rules) == 0 {
		return &ConfigError{RuleIndex: -1, Msg: "catalog has no rules"}
	}
	if !strings.Contains(doc.PresenceSuggestion, "{phrase}") {
		return &ConfigError{RuleIndex: -1, Msg: "presenceSuggestion must contain the {phrase} placeholder"}
	}

	seen := make(map[string]int, len(doc.Rules))
	for i := range doc.Rules {
		r := &doc.Rules[i]
		if err := validateRule(r, i); err != nil {
			return err
		}
		if first, dup := seen[r.ID]; dup {
			return ruleErr(i, r.ID, "duplicate id (first defined at rule[%d])", first)
		}
		seen[r.ID] = i
	}
	return nil
}

func validateRule(r *Rule, idx int) error {
	if r.ID == "" {
		return ruleErr(idx, "", "id is required")
	}
	if !schema.IsValidCategory(r.Category) {
		return ruleErr(idx, r.ID, "unknown category %q", r.Category)
	}
	if !schema.IsValidSeverity(r.Severity) {
		return ruleErr(idx, r.ID, "invalid severity %q (must be critical, high, medium, low, or info)", r.Severity)
	}
	if r.Regulation == "" {
		return ruleErr(idx, r.ID, "regulation is required")
	}
	if r.Description == "" {
		return ruleErr(idx, r.ID, "description is required")
	}

	switch r.Kind {
	case schema.KindPresence:
		return validatePresence(r, idx)
	case schema.KindAbsence:
		return validateAbsence(r, idx)
	default:
		return ruleErr(idx, r.ID, "invalid kind %q (must be presence or absence)", r.Kind)
	}
}

func validatePresence(r *Rule, idx int) error {
	if len(r.Triggers) == 0 {
		return ruleErr(idx, r.ID, "presence rule needs at least one trigger phrase")
	}
	if r.Requirement != nil {
		return ruleErr(idx, r.ID, "presence rule must not declare a requirement")
	}
	seen := make(map[string]bool, len(r.Triggers))
	for j, t := range r.Triggers {
		if t == "" {
			return ruleErr(idx, r.ID, "triggers[%d] is empty", j)
		}
		if seen[t] {
			return ruleErr(idx, r.ID, "triggers[%d] %q repeats an earlier phrase", j, t)
		}
		seen[t] = true
	}
	return nil
}

func validateAbsence(r *Rule, idx int) error {
	if len(r.Triggers) != 0 {
		return ruleErr(idx, r.ID, "absence rule must not declare trigger phrases")
	}
	if r.Requirement == nil || (r.Requirement.Pattern == "" && len(r.Requirement.AnyOf) == 0) {
		return ruleErr(idx, r.ID, "absence rule needs a requirement pattern or anyOf phrases")
	}
	for j, p := range r.Requirement.AnyOf {
		if strings.TrimSpace(p) == "" {
			return ruleErr(idx, r.ID, "requirement.anyOf[%d] is empty", j)
		}
	}
	if r.Placeholder == "" {
		return ruleErr(idx, r.ID, "absence rule needs a placeholder excerpt")
	}
	if r.Suggestion == "" {
		return ruleErr(idx, r.ID, "absence rule needs a suggestion")
	}
	return nil
}

func compileRequirement(r *Rule, idx int) error {
	if r.Requirement == nil || r.Requirement.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + r.Requirement.Pattern)
	if err != nil {
		return ruleErr(idx, r.ID, "requirement.pattern does not compile: %s", err)
	}
	r.pattern = re
	return nil
}
