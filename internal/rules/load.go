package rules

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultDocument is the rule catalog compiled into the binary. It is used
// whenever no rules file is configured.
//
//go:embed catalog.yaml
var defaultDocument []byte

// document is the on-disk shape of a rule catalog.
type document struct {
	Version            string `yaml:"version"`
	PresenceSuggestion string `yaml:"presenceSuggestion"`
	Rules              []Rule `yaml:"rules"`
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultDocument)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return c, nil
}

// Load reads and parses a catalog document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return c, nil
}

// LoadOrDefault loads path, or the embedded catalog when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Parse unmarshals a YAML catalog document, validates every rule, normalizes
// trigger phrases, compiles requirement patterns and builds the trigger index.
// Any inconsistency is returned as a *ConfigError.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{RuleIndex: -1, Msg: fmt.Sprintf("YAML parse failed: %s", err)}
	}

	for i := range doc.Rules {
		normalizeTriggers(&doc.Rules[i])
	}
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	for i := range doc.Rules {
		if err := compileRequirement(&doc.Rules[i], i); err != nil {
			return nil, err
		}
	}

	c := &Catalog{
		version:            doc.Version,
		presenceSuggestion: doc.PresenceSuggestion,
		rules:              doc.Rules,
		byID:               make(map[string]int, len(doc.Rules)),
	}
	for i, r := range c.rules {
		c.byID[r.ID] = i
	}
	c.index = buildIndex(c.rules)
	return c, nil
}

func normalizeTriggers(r *Rule) {
	for i, t := range r.Triggers {
		r.Triggers[i] = Normalize(t)
	}
}
