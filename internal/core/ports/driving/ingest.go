package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// IngestService populates the vector index ahead of query time.
type IngestService interface {
	// Ingest streams r, chunks, embeds and upserts it under source.
	Ingest(ctx context.Context, r io.Reader, source string) (domain.IngestReport, error)

	// IngestFile ingests the file at path, using the path as source.
	IngestFile(ctx context.Context, path string) (domain.IngestReport, error)
}
