// Package render turns audit reports into the CLI's output formats.
package render

import (
	"fmt"
	"strings"

	"github.com/dshills/contentaudit/internal/schema"
)

// Formats lists the accepted --format values.
var Formats = []string{"json", "md"}

// Renderer formats single-file and calendar reports.
type Renderer interface {
	Render(report *schema.Report) ([]byte, error)
	RenderBatch(report *schema.BatchReport) ([]byte, error)
}

// NewRenderer returns the Renderer for format.
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "json":
		return jsonRenderer{}, nil
	case "md":
		return markdownRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q: supported formats are %s", format, strings.Join(Formats, ", "))
}
