package corpus

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var (
	blankLine  = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ParsePassages splits a passage file into passages. Passages are separated
// by one or more blank lines.
func ParsePassages(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WritePassages writes passages in the format read by ParsePassages.
func WritePassages(w io.Writer, passages []string) error {
	bw := bufio.NewWriter(w)
	for _, p := range passages {
		p = NormalizeWhitespace(p)
		if p == "" {
			continue
		}
		if _, err := bw.WriteString(p + "\n\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// NormalizeWhitespace collapses whitespace runs, newlines included, to a
// single space and trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
