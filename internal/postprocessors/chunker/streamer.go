package chunker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// MaxLineBytes is the longest single line the streamer accepts.
const MaxLineBytes = 16 * 1024 * 1024

// Streamer packs lines greedily into chunks of at most chunkSize characters.
// Consecutive chunks share up to overlap characters.
type Streamer struct {
	chunkSize int
	overlap   int
}

// NewStreamer creates a streamer with the given options.
func NewStreamer(opts ...Option) *Streamer {
	o := buildOptions(DefaultChunkSize, DefaultChunkOverlap, opts)
	return &Streamer{chunkSize: o.chunkSize, overlap: o.overlap}
}

// ChunkSize returns the configured chunk size.
func (s *Streamer) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Streamer) Overlap() int {
	return s.overlap
}

// Stream reads r line by line and calls emit for every non-empty chunk, in
// order. Only the current buffer is held in memory. It returns the number of
// chunks emitted. An error from emit stops the stream and is returned as is.
//
// A single line longer than the chunk size is emitted as one oversized chunk.
func (s *Streamer) Stream(ctx context.Context, r io.Reader, source string, emit func(domain.Chunk) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	var buf []rune
	ordinal := 0

	flush := func() error {
		text := strings.TrimSpace(string(buf))
		if text == "" {
			return nil
		}
		c := domain.Chunk{
			ID:      ChunkID(source, ordinal, string(buf)),
			Text:    text,
			Source:  source,
			Ordinal: ordinal,
		}
		ordinal++
		return emit(c)
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return ordinal, err
		}

		line := []rune(scanner.Text())
		if len(buf) > 0 && len(buf)+len(line)+1 > s.chunkSize {
			if err := flush(); err != nil {
				return ordinal, err
			}
			buf = tail(buf, s.seedFor(len(line)))
		}

		if len(buf) > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, line...)
	}
	if err := scanner.Err(); err != nil {
		return ordinal, fmt.Errorf("read %s: %w", source, err)
	}

	if err := flush(); err != nil {
		return ordinal, err
	}
	return ordinal, nil
}

// Chunks collects every chunk of text in memory.
func (s *Streamer) Chunks(text, source string) []domain.Chunk {
	var out []domain.Chunk
	_, _ = s.Stream(context.Background(), strings.NewReader(text), source, func(c domain.Chunk) error {
		out = append(out, c)
		return nil
	})
	return out
}

// seedFor returns how much of the previous buffer to carry into the next
// chunk so that seed, newline and the incoming line still fit.
func (s *Streamer) seedFor(lineLen int) int {
	room := s.chunkSize - lineLen - 1
	if room < 0 {
		return 0
	}
	if room < s.overlap {
		return room
	}
	return s.overlap
}

func tail(buf []rune, n int) []rune {
	if n <= 0 {
		return nil
	}
	if n >= len(buf) {
		n = len(buf)
	}
	out := make([]rune, n)
	copy(out, buf[len(buf)-n:])
	return out
}
