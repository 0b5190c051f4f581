package driving

import (
	"context"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// PolicyService loads policy document text for prompt assembly.
type PolicyService interface {
	// LoadPolicyText never fails; unreadable documents return OK=false.
	LoadPolicyText(ctx context.Context, doc *domain.PolicyDocument, opts domain.PolicyLoadOptions) domain.PolicyText
}
