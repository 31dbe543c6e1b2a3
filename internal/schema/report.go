package schema

// Report is the CLI output document for one audited file.
type Report struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	Input   Input        `json:"input"`
	Result  *AuditResult `json:"result"`

	// Counts are per severity over all violations, before any display filter.
	Counts map[Severity]int `json:"counts"`

	// Lines maps a matched phrase to the input lines that contain it.
	Lines map[string][]int `json:"lines,omitempty"`

	// Threshold is the display filter applied to Result.Violations, if any.
	Threshold Severity `json:"severityThreshold,omitempty"`
}

// Input describes the audited file without carrying its text.
type Input struct {
	Path      string `json:"path"`
	Hash      string `json:"hash"`
	LineCount int    `json:"lineCount"`
}

// BatchReport is the CLI output document for a content calendar.
type BatchReport struct {
	Tool    string      `json:"tool"`
	Version string      `json:"version"`
	Source  string      `json:"source"`
	Items   []BatchItem `json:"items"`
	Stats   Stats       `json:"stats"`
}

// BatchItem is one calendar entry's outcome. Exactly one of Result and Error
// is set.
type BatchItem struct {
	ID     string       `json:"id"`
	Date   string       `json:"date,omitempty"`
	Result *AuditResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}
