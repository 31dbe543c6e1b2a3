package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/contentaudit/internal/schema"
)

const minimalDoc = `
version: "test-1"
presenceSuggestion: 'remove "{phrase}"'
rules:
  - id: p-1
    category: advertising
    regulation: "Reg A"
    article: "Art. 1"
    description: "no guarantees"
    kind: presence
    severity: critical
    triggers: ["Garantido", "  cura   TOTAL "]
  - id: a-1
    category: advertising
    regulation: "Reg A"
    article: "Art. 2"
    description: "license required"
    kind: absence
    severity: medium
    requirement:
      pattern: 'crm[\s-]*\d'
    placeholder: "license missing"
    suggestion: "add your license"
`

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}
	if c.Version() == "" {
		t.Error("embedded catalog has no version")
	}
	for _, cat := range schema.Categories {
		if len(c.ByCategory(cat)) == 0 {
			t.Errorf("category %q has no rules", cat)
		}
	}
	if c.Index().Len() == 0 {
		t.Error("trigger index is empty")
	}
}

func TestDefault_AbsenceRulesPresent(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"pub-007", "bp-001"} {
		r, ok := c.Get(id)
		if !ok {
			t.Fatalf("rule %s missing", id)
		}
		if r.Kind != schema.KindAbsence {
			t.Errorf("rule %s kind = %q, want absence", id, r.Kind)
		}
		if r.Severity != schema.SeverityMedium {
			t.Errorf("rule %s severity = %q, want medium", id, r.Severity)
		}
	}
}

func TestAll_StableOrderAndCopy(t *testing.T) {
	c, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	all := c.All()
	if len(all) != 2 || all[0].ID != "p-1" || all[1].ID != "a-1" {
		t.Fatalf("unexpected order: %+v", all)
	}
	all[0].ID = "mutated"
	if c.All()[0].ID != "p-1" {
		t.Error("All must return a copy")
	}
}

func TestParse_NormalizesTriggers(t *testing.T) {
	c, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r, _ := c.Get("p-1")
	want := []string{"garantido", "cura total"}
	for i, w := range want {
		if r.Triggers[i] != w {
			t.Errorf("trigger[%d] = %q, want %q", i, r.Triggers[i], w)
		}
	}
}

func TestParse_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name: "duplicate id",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: presence, severity: high, triggers: [a]}
  - {id: x, category: ethics, regulation: r, description: d, kind: presence, severity: high, triggers: [b]}`,
			wantMsg: "duplicate id",
		},
		{
			name: "presence without triggers",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: presence, severity: high}`,
			wantMsg: "at least one trigger",
		},
		{
			name: "absence without requirement",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: absence, severity: low, placeholder: p, suggestion: s}`,
			wantMsg: "requirement",
		},
		{
			name: "absence with triggers",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: absence, severity: low, triggers: [a], requirement: {anyOf: [b]}, placeholder: p, suggestion: s}`,
			wantMsg: "must not declare trigger",
		},
		{
			name: "unknown category",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ato-medico, regulation: r, description: d, kind: presence, severity: high, triggers: [a]}`,
			wantMsg: "unknown category",
		},
		{
			name: "bad severity",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: presence, severity: severe, triggers: [a]}`,
			wantMsg: "invalid severity",
		},
		{
			name: "bad kind",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: maybe, severity: high, triggers: [a]}`,
			wantMsg: "invalid kind",
		},
		{
			name: "missing id",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {category: ethics, regulation: r, description: d, kind: presence, severity: high, triggers: [a]}`,
			wantMsg: "id is required",
		},
		{
			name: "repeated trigger after normalization",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: presence, severity: high, triggers: [Abc, "abc "]}`,
			wantMsg: "repeats",
		},
		{
			name: "bad pattern",
			doc: `version: v
presenceSuggestion: '{phrase}'
rules:
  - {id: x, category: ethics, regulation: r, description: d, kind: absence, severity: low, requirement: {pattern: "crm("}, placeholder: p, suggestion: s}`,
			wantMsg: "does not compile",
		},
		{
			name:    "empty catalog",
			doc:     "version: v\npresenceSuggestion: '{phrase}'\nrules: []\n",
			wantMsg: "no rules",
		},
		{
			name:    "missing version",
			doc:     "presenceSuggestion: '{phrase}'\nrules: []\n",
			wantMsg: "version is required",
		},
		{
			name:    "not yaml",
			doc:     "rules: [unclosed",
			wantMsg: "YAML parse failed",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("expected configuration error, got nil")
			}
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("error does not wrap ErrInvalidCatalog: %v", err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("expected *ConfigError, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(minimalDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Version() != "test-1" {
		t.Errorf("Version = %q, want test-1", c.Version())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/rules.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadOrDefault_EmptyPathUsesEmbedded(t *testing.T) {
	c, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	d, _ := Default()
	if c.Len() != d.Len() {
		t.Errorf("Len = %d, want %d", c.Len(), d.Len())
	}
}

func TestSatisfied(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	license, _ := c.Get("pub-007")
	disclaimer, _ := c.Get("bp-001")

	tests := []struct {
		name string
		rule Rule
		text string
		want bool
	}{
		{"license plain", license, "CRM 123456", true},
		{"license dash lowercase", license, "crm-998877", true},
		{"license glued", license, "CRM123", true},
		{"license missing digits", license, "CRM/SP", false},
		{"license empty", license, "", false},
		{"disclaimer any phrase", disclaimer, "Este post NÃO SUBSTITUI a consulta", true},
		{"disclaimer educational", disclaimer, "Conteúdo educacional.", true},
		{"disclaimer missing", disclaimer, "consulte-nos", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rule.Satisfied(tc.text); got != tc.want {
				t.Errorf("Satisfied(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestSuggestionFor(t *testing.T) {
	c, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.SuggestionFor(c.At(0), "garantido"); got != `remove "garantido"` {
		t.Errorf("presence suggestion = %q", got)
	}
	if got := c.SuggestionFor(c.At(1), ""); got != "add your license" {
		t.Errorf("absence suggestion = %q", got)
	}
}
