package driven

import (
	"context"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// VectorIndex is a namespaced similarity index.
// Every call is scoped to the namespace the index was opened with.
type VectorIndex interface {
	// Upsert inserts or replaces entries by ID.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Query returns up to topK nearest neighbours, highest score first.
	// Metadata is populated only when includeMetadata is true.
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]domain.VectorMatch, error)

	// Namespace returns the logical partition this index reads and writes.
	Namespace() string

	// Close releases resources.
	Close() error
}
