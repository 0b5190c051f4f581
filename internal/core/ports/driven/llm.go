package driven

import (
	"context"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// LLMService provides chat completion.
// This is an optional service - when nil, chat is unavailable but retrieval
// and context assembly still work.
//
// Implementations may include:
//   - Azure OpenAI / OpenAI (gpt-4o, gpt-4o-mini)
//   - Ollama (local models)
type LLMService interface {
	// StreamChat runs one completion, calling onDelta for every content
	// fragment as it arrives, and reports why the model stopped.
	StreamChat(
		ctx context.Context,
		messages []domain.ChatMessage,
		opts ChatOptions,
		onDelta func(string) error,
	) (domain.FinishReason, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
}
