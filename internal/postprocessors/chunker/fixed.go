package chunker

import (
	"regexp"
	"strings"
)

// SplitFixed cuts text into consecutive pieces of exactly size characters,
// the last possibly shorter. Text that already fits is returned unchanged as
// a single piece. Concatenating the pieces yields the input.
func SplitFixed(text string, size int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}

	parts := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

var (
	spaceBeforeNewline = regexp.MustCompile(`\s+\n`)
	blankLineRuns      = regexp.MustCompile(`\n{3,}`)
)

// ChunkText normalises whitespace and cuts text into overlapping windows.
// Defaults are 1000 characters with 200 overlap. The last window always ends
// at the end of the text.
func ChunkText(text string, opts ...Option) []string {
	o := buildOptions(1000, DefaultChunkOverlap, opts)

	clean := spaceBeforeNewline.ReplaceAllString(text, "\n")
	clean = blankLineRuns.ReplaceAllString(clean, "\n\n")
	runes := []rune(strings.TrimSpace(clean))

	var parts []string
	for start := 0; start < len(runes); {
		end := start + o.chunkSize
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}
		parts = append(parts, string(runes[start:end]))
		start = end - o.overlap
	}
	return parts
}
