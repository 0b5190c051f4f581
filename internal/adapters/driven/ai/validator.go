package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// hostResolver is implemented by indexes that resolve their endpoint lazily.
type hostResolver interface {
	Host(ctx context.Context) (string, error)
}

// ConfigValidator validates provider and index configurations by connecting
// to them.
type ConfigValidator struct{}

// NewConfigValidator creates a new config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLM validates an LLM configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateIndex opens the configured index. Pinecone indexes also resolve
// their data-plane host so a wrong index name is caught here.
func (v *ConfigValidator) ValidateIndex(ctx context.Context, settings *domain.IndexSettings, dimensions int) error {
	if settings == nil {
		return &domain.MissingSettingError{Setting: "index.backend", Env: "VECTOR_INDEX_BACKEND"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	backend, err := storage.Open(pingCtx, *settings, dimensions)
	if err != nil {
		return err
	}
	defer backend.Close()

	if r, ok := backend.Index.(hostResolver); ok {
		if _, err := r.Host(pingCtx); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return nil
}
