// Package patch turns audit findings into a remediation diff that can be
// applied to the audited text.
package patch

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/contentaudit/internal/schema"
)

// edit is one remediation for one violation.
type edit struct {
	label  string
	before string
	after  string
}

// GenerateDiff returns one diff block per violation: flagged phrases are
// stripped from raw, and each missing required element is appended as a
// bracketed placeholder line. Violations whose phrase cannot be located in
// raw are skipped with a warning written to w (may be nil).
func GenerateDiff(raw string, violations []schema.Violation, w io.Writer) string {
	if len(violations) == 0 {
		return ""
	}
	raw = normalizeEOL(raw)

	dmp := diffmatchpatch.New()
	var out strings.Builder
	for _, v := range violations {
		e, ok := resolve(raw, v)
		if !ok {
			if w != nil {
				fmt.Fprintf(w, "WARN: %s phrase %q could not be located in the text\n", v.RuleID, v.MatchedExcerpt)
			}
			continue
		}

		diffs := dmp.DiffMain(e.before, e.after, false)
		patchText := dmp.PatchToText(dmp.PatchMake(e.before, diffs))
		if patchText == "" {
			continue
		}
		fmt.Fprintf(&out, "# patch for %s\n", e.label)
		out.WriteString(patchText)
		out.WriteString("\n")
	}
	return out.String()
}

// Remediate applies every edit to raw in order and returns the result.
func Remediate(raw string, violations []schema.Violation) string {
	text := normalizeEOL(raw)
	for _, v := range violations {
		if e, ok := resolve(text, v); ok {
			text = e.after
		}
	}
	return text
}

func resolve(raw string, v schema.Violation) (edit, bool) {
	if v.Kind == schema.KindAbsence {
		return edit{
			label:  fmt.Sprintf("%s (%s)", v.RuleID, v.MatchedExcerpt),
			before: raw,
			after:  appendLine(raw, "["+v.Suggestion+"]"),
		}, true
	}

	re := phrasePattern(v.MatchedExcerpt)
	if re == nil || !re.MatchString(raw) {
		return edit{}, false
	}
	return edit{
		label:  fmt.Sprintf("%s %q", v.RuleID, v.MatchedExcerpt),
		before: raw,
		after:  re.ReplaceAllString(raw, ""),
	}, true
}

// phrasePattern matches a normalized phrase in raw text case-insensitively,
// across any run of whitespace. At a line start the trailing blanks are
// consumed; elsewhere the leading blanks are.
func phrasePattern(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return nil
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	body := strings.Join(words, `\s+`)
	return regexp.MustCompile(`(?im)^[ \t]*` + body + `[ \t]*|[ \t]*` + body)
}

func appendLine(text, line string) string {
	if text == "" {
		return line + "\n"
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + line + "\n"
}

func normalizeEOL(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
