// Package chunker splits text into bounded, overlapping chunks for embedding.
package chunker

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultChunkSize is the default number of characters per streamed chunk.
const DefaultChunkSize = 1500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// chunkNamespace scopes chunk IDs so they never collide with other UUIDv5 users.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("policyrag:chunk"))

type options struct {
	chunkSize int
	overlap   int
}

// Option configures chunk size and overlap.
type Option func(*options)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(o *options) {
		if overlap >= 0 {
			o.overlap = overlap
		}
	}
}

func buildOptions(size, overlap int, opts []Option) options {
	o := options{chunkSize: size, overlap: overlap}
	for _, opt := range opts {
		opt(&o)
	}

	// Ensure overlap doesn't exceed chunk size
	if o.overlap >= o.chunkSize {
		o.overlap = o.chunkSize / 4
	}
	return o
}

// ChunkID derives a stable identifier from source, ordinal and text.
// Re-ingesting the same input overwrites the same index entries.
func ChunkID(source string, ordinal int, text string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s:%d:%s", source, ordinal, text))).String()
}
