package driven

import (
	"context"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// AIConfigValidator validates provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM validates an LLM configuration by pinging the provider.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error

	// ValidateIndex opens the configured vector index and closes it again.
	ValidateIndex(ctx context.Context, config *domain.IndexSettings, dimensions int) error
}
