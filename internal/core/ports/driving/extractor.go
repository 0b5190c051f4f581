package driving

import (
	"context"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// ExtractorService extracts sanitized text from documents.
type ExtractorService interface {
	// Extract dispatches on mime and name. maxChars <= 0 disables truncation.
	Extract(ctx context.Context, data []byte, mime, name string, maxChars int) domain.Extraction

	// ExtractFile reads path and extracts it.
	ExtractFile(ctx context.Context, path, mime string, maxChars int) domain.Extraction
}
