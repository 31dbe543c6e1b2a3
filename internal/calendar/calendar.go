// Package calendar loads a content calendar: a YAML manifest of posts to be
// audited together.
//
//	defaultPlatform: instagram
//	items:
//	  - id: post-01
//	    date: 2026-05-04
//	    text: "Dica de saúde..."
//	  - id: post-02
//	    platform: linkedin
//	    path: posts/02.md
//
// Item paths are resolved against the manifest's directory.
package calendar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dshills/contentaudit/internal/content"
	"github.com/dshills/contentaudit/internal/schema"
)

// MaxItems bounds a single calendar.
const MaxItems = 1000

var validate = validator.New()

type manifest struct {
	DefaultPlatform string `yaml:"defaultPlatform" validate:"omitempty,oneof=instagram linkedin whatsapp site"`
	Items           []item `yaml:"items" validate:"required,min=1,max=1000,dive"`
}

type item struct {
	ID       string `yaml:"id" validate:"required,max=128"`
	Date     string `yaml:"date" validate:"omitempty,datetime=2006-01-02"`
	Platform string `yaml:"platform" validate:"omitempty,oneof=instagram linkedin whatsapp site"`
	Path     string `yaml:"path"`

	// Text is a pointer so that an explicit empty string is an item to
	// audit rather than a missing field.
	Text *string `yaml:"text" validate:"required_without=Path,excluded_with=Path"`
}

// Entry is one calendar post with its text loaded.
type Entry struct {
	ID       string
	Date     string
	Platform schema.Platform
	Text     string
	Source   string // file path, or the manifest path for inline text
}

// Load reads and validates the manifest at path and loads every item's text.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes a manifest. path locates relative item paths and labels
// errors.
func Parse(data []byte, path string) ([]Entry, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing calendar %s: %w", path, err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid calendar %s: %w", path, describe(err))
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Items))
	entries := make([]Entry, 0, len(m.Items))
	for i, it := range m.Items {
		if seen[it.ID] {
			return nil, fmt.Errorf("invalid calendar %s: items[%d]: duplicate id %q", path, i, it.ID)
		}
		seen[it.ID] = true

		platform := it.Platform
		if platform == "" {
			platform = m.DefaultPlatform
		}
		if platform == "" {
			return nil, fmt.Errorf("invalid calendar %s: items[%d] (%s): platform is required when no defaultPlatform is set", path, i, it.ID)
		}

		e := Entry{ID: it.ID, Date: it.Date, Platform: schema.Platform(platform), Source: path}
		if it.Text != nil {
			e.Text = *it.Text
		} else {
			p := it.Path
			if !filepath.IsAbs(p) {
				p = filepath.Join(base, p)
			}
			c, err := content.Load(p)
			if err != nil {
				return nil, fmt.Errorf("calendar item %s: %w", it.ID, err)
			}
			e.Text, e.Source = c.Text, p
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// describe flattens validator errors into one readable line.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "manifest.")
		switch fe.Tag() {
		case "required", "required_without":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "excluded_with":
			msgs = append(msgs, field+": set either text or path, not both")
		case "datetime":
			msgs = append(msgs, field+" must be a YYYY-MM-DD date")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
