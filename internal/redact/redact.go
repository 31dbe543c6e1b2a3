// Package redact masks patient personal data (LGPD) in text before it is
// logged. Audited text may quote patients; debug logs must not.
package redact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const redacted = "[REDACTED]"

// patterns holds single-line personal-data regexes in priority order.
// CPF runs before phone numbers since an unpunctuated CPF is also a valid
// phone-shaped digit run.
var patterns = []*regexp.Regexp{
	// CPF, punctuated or bare
	regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`),
	// CNS (cartão nacional de saúde), 15 digits optionally grouped
	regexp.MustCompile(`\b\d{3}\s?\d{4}\s?\d{4}\s?\d{4}\b`),
	// e-mail addresses
	regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	// Brazilian phone numbers: optional +55, area code, 8 or 9 digit number
	regexp.MustCompile(`(?:\+?55[\s-]?)?\(?\b\d{2}\)?[\s-]?9?\d{4}[\s-]?\d{4}\b`),
	// Inline patient name labels
	regexp.MustCompile(`(?i)\b(?:paciente|nome)\s*:\s*[^\n,;]+`),
}

// Redact replaces known personal-data patterns in input with [REDACTED].
// Line structure is preserved: no pattern spans a newline.
func Redact(input string) string {
	for _, re := range patterns {
		input = re.ReplaceAllString(input, redacted)
	}
	return input
}

// Preview returns the redacted text cut to at most max runes, with newlines
// flattened, for a single log line. max <= 0 means no limit.
func Preview(input string, max int) string {
	out := strings.Join(strings.Fields(Redact(input)), " ")
	if max <= 0 || utf8.RuneCountInString(out) <= max {
		return out
	}
	runes := []rune(out)
	return string(runes[:max]) + "…"
}
