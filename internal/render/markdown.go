package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/dshills/contentaudit/internal/schema"
)

type markdownRenderer struct{}

var funcs = template.FuncMap{
	"upper": func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"percent": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f*100)
	},
	"lines": func(ls []int) string {
		parts := make([]string, len(ls))
		for i, l := range ls {
			parts[i] = fmt.Sprintf("L%d", l)
		}
		return strings.Join(parts, ", ")
	},
	"count": func(m map[schema.Severity]int, s string) int {
		return m[schema.Severity(s)]
	},
	"verdict": func(approved bool) string {
		if approved {
			return "APPROVED"
		}
		return "REJECTED"
	},
}

var mdTemplate = template.Must(template.New("report").Funcs(funcs).Parse(`# Content Audit Report

**Verdict:** {{ verdict .Result.Approved }}
**Score:** {{ .Result.Score }}/100
**Risk tier:** {{ upper .Result.RiskTier }}
**Critical:** {{ count .Counts "critical" }} | **High:** {{ count .Counts "high" }} | **Medium:** {{ count .Counts "medium" }} | **Low:** {{ count .Counts "low" }} | **Info:** {{ count .Counts "info" }}
{{- if .Threshold }}
> Note: counts reflect all findings; --severity-threshold {{ .Threshold }} may hide some from this output.
{{- end }}
{{ if .Result.Violations }}
---

## Violations
{{ range .Result.Violations }}
### {{ .RuleID }} · {{ .Severity }} · {{ .Category }}
**Found:** "{{ .MatchedExcerpt }}"{{ with index $.Lines .MatchedExcerpt }} ({{ lines . }}){{ end }}

**Citation:** {{ .Regulation }}{{ if .Article }}, {{ .Article }}{{ end }}
{{- if .Penalty }}
**Penalty:** {{ .Penalty }}
{{- end }}
**Suggestion:** {{ .Suggestion }}
{{ end }}{{ end }}
---
*File: {{ .Input.Path }} | {{ .Result.TotalRulesEvaluated }} rules ({{ .Result.CatalogVersion }}) | Platform: {{ .Result.Platform }} | Audit: {{ .Result.ID }}*
`))

var mdBatchTemplate = template.Must(template.New("batch").Funcs(funcs).Parse(`# Content Calendar Audit

**Source:** {{ .Source }}
**Audits:** {{ .Stats.TotalAudits }} | **Approved:** {{ .Stats.Approved }} | **Rejected:** {{ .Stats.Rejected }}
**Approval rate:** {{ percent .Stats.ApprovalRate }} | **Average score:** {{ printf "%.1f" .Stats.AverageScore }}

| Item | Date | Platform | Score | Tier | Verdict | Violations |
|---|---|---|---|---|---|---|
{{ range .Items }}{{ if .Result -}}
| {{ .ID }} | {{ .Date }} | {{ .Result.Platform }} | {{ .Result.Score }} | {{ .Result.RiskTier }} | {{ verdict .Result.Approved }} | {{ len .Result.Violations }} |
{{ else -}}
| {{ .ID }} | {{ .Date }} | | | | ERROR: {{ .Error }} | |
{{ end }}{{ end }}
{{- range .Items }}{{ if and .Result .Result.Violations }}
## {{ .ID }}
{{ range .Result.Violations }}
- **{{ .RuleID }}** ({{ .Severity }}) "{{ .MatchedExcerpt }}": {{ .Suggestion }}
{{- end }}
{{ end }}{{ end }}`))

func (markdownRenderer) Render(report *schema.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func (markdownRenderer) RenderBatch(report *schema.BatchReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdBatchTemplate.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
