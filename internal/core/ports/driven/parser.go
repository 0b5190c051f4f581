package driven

import (
	"context"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// DocumentParser extracts raw text from a binary document format.
// Parse may fail on corrupt or unsupported input; callers must recover.
type DocumentParser interface {
	// Kind returns the parser kind this implementation serves.
	Kind() domain.ParserKind

	// Parse returns the unsanitised text content of data.
	Parse(ctx context.Context, data []byte) (string, error)
}
