package render

import (
	"bytes"
	"encoding/json"

	"github.com/dshills/contentaudit/internal/schema"
)

// jsonRenderer writes indented JSON. HTML escaping is off so excerpts and
// suggestions keep their quotes and angle brackets as written.
type jsonRenderer struct{}

func (jsonRenderer) Render(report *schema.Report) ([]byte, error) { return encode(report) }

func (jsonRenderer) RenderBatch(report *schema.BatchReport) ([]byte, error) { return encode(report) }

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
