package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// ChatService answers a conversation with retrieval-augmented context.
type ChatService interface {
	// Chat streams the answer to w and returns the complete response.
	Chat(ctx context.Context, req domain.ChatRequest, w io.Writer) (domain.ChatResponse, error)

	// BuildContext assembles the system message without calling the model.
	BuildContext(ctx context.Context, req domain.ChatRequest) (domain.AssembledContext, domain.RetrievalResult)
}
