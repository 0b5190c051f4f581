package driving

import "github.com/custodia-labs/policyrag/internal/core/domain"

// AssemblerService composes the system message for a completion request.
type AssemblerService interface {
	Assemble(in domain.AssemblyInput) domain.AssembledContext
}
