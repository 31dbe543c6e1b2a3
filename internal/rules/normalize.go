package rules

import "strings"

// Normalize lowercases s and collapses every run of whitespace into a single
// space, trimming both ends. Diacritics are kept: matching is literal apart
// from letter case.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
