// Package content loads the text to be audited from disk or stdin.
package content

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/contentaudit/internal/rules"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Content holds a loaded text with derived metadata.
type Content struct {
	Path      string
	Hash      string // "sha256:<hex>"
	Text      string // original content, BOM removed
	LineCount int
}

// Load reads a content file from disk, or from stdin when path is "-".
func Load(path string) (*Content, error) {
	var (
		data []byte
		err  error
	)
	if path == Stdin {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading content file: %w", err)
	}
	return FromBytes(path, data)
}

// FromBytes builds a Content from data already in memory. Bytes that are not
// valid UTF-8 become U+FFFD in Text; Hash covers the bytes as read.
func FromBytes(path string, data []byte) (*Content, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	sum := sha256.Sum256(data)
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	return &Content{
		Path:      path,
		Hash:      fmt.Sprintf("sha256:%x", sum),
		Text:      text,
		LineCount: countLines(text),
	}, nil
}

// countLines counts lines, not counting the empty string after a final newline.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// LinesOf returns the 1-based line numbers whose normalized text contains the
// normalized phrase. A phrase that spans a line break is not located.
func (c *Content) LinesOf(phrase string) []int {
	needle := rules.Normalize(phrase)
	if needle == "" {
		return nil
	}
	var out []int
	for i, line := range strings.Split(c.Text, "\n") {
		if strings.Contains(rules.Normalize(line), needle) {
			out = append(out, i+1)
		}
	}
	return out
}
