package driving

import (
	"context"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// RetrieverService turns a user query into ranked, budget-trimmed context.
type RetrieverService interface {
	// RetrieveContext never fails: retrieval problems degrade to an empty result.
	RetrieveContext(ctx context.Context, query string, topK int) domain.RetrievalResult
}
