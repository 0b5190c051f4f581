// Package sanitize normalises raw extracted text into clean, printable text.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// PrintableThreshold is the ratio below which text is treated as binary noise.
const PrintableThreshold = 0.5

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Sanitize cleans raw text. It returns false when nothing usable remains,
// which callers treat as "no text" rather than an error.
//
// Applying Sanitize to its own output is a no-op.
func Sanitize(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	s := strings.ReplaceAll(raw, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	if PrintableRatio(s) < PrintableThreshold {
		for _, r := range s {
			if isPrintable(r) || isSpace(r) {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		}
	} else {
		for _, r := range s {
			if unicode.IsControl(r) && !isSpace(r) {
				continue
			}
			b.WriteRune(r)
		}
	}

	s = trimLines(b.String())
	s = blankRuns.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// PrintableRatio returns the share of printable ASCII among non-whitespace
// runes. Whitespace is excluded from both sides so trimming it never moves
// text across the threshold. Text without visible runes scores 1.
func PrintableRatio(s string) float64 {
	var printable, total int
	for _, r := range s {
		if isSpace(r) {
			continue
		}
		total++
		if isPrintable(r) {
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}

// Truncate cuts s to at most maxChars runes. maxChars <= 0 disables the cut.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}

func isPrintable(r rune) bool {
	return r > ' ' && r <= '~'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}
