package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/postprocessors/chunker"
)

// Ensure AssemblerService implements the interface.
var _ driving.AssemblerService = (*AssemblerService)(nil)

// KnowledgeBasePrefix introduces the retrieved context section.
const KnowledgeBasePrefix = "Knowledge Base Context (verbatim; cite with bracket numbers where used):\n\n"

// AssemblerService builds the system message from its parts.
type AssemblerService struct {
	policyChunkSize int
}

// NewAssemblerService creates an assembler. Policy text longer than
// policyChunkSize is split into numbered segments.
func NewAssemblerService(policyChunkSize int) *AssemblerService {
	if policyChunkSize <= 0 {
		policyChunkSize = domain.DefaultPolicyChunkSize
	}
	return &AssemblerService{policyChunkSize: policyChunkSize}
}

// Assemble returns the sections in their fixed order: base instructions,
// additional instructions, knowledge base context and policies. Blank parts
// are left out; nothing is dropped for length.
func (s *AssemblerService) Assemble(in domain.AssemblyInput) domain.AssembledContext {
	var sections []domain.Section

	if t := strings.TrimSpace(in.BaseInstructions); t != "" {
		sections = append(sections, domain.Section{Kind: domain.SectionBaseInstructions, Text: t})
	}
	if t := strings.TrimSpace(in.AdditionalInstructions); t != "" {
		sections = append(sections, domain.Section{Kind: domain.SectionAdditionalInstructions, Text: t})
	}
	if strings.TrimSpace(in.KnowledgeBase) != "" {
		sections = append(sections, domain.Section{
			Kind: domain.SectionKnowledgeBase,
			Text: KnowledgeBasePrefix + in.KnowledgeBase,
		})
	}

	for _, p := range orderPolicies(in.Policies) {
		sections = append(sections, domain.Section{Kind: domain.SectionPolicy, Text: s.policySection(p)})
	}

	return domain.AssembledContext{Sections: sections}
}

func (s *AssemblerService) policySection(p domain.PolicyText) string {
	header := PolicyHeader(p.Kind)

	text := strings.TrimSpace(p.Text)
	if !p.OK || text == "" {
		return header + "\n\n" + fmt.Sprintf("[%s: %s]", p.Name, domain.UnreadablePlaceholder)
	}

	parts := chunker.SplitFixed(text, s.policyChunkSize)
	if len(parts) == 1 {
		return header + "\n\n" + text
	}

	blocks := make([]string, 0, len(parts)+1)
	blocks = append(blocks, header)
	for i, part := range parts {
		blocks = append(blocks, fmt.Sprintf("Segment %d:\n%s", i+1, part))
	}
	return strings.Join(blocks, "\n\n")
}

// PolicyHeader returns the heading for a policy section of the given kind.
func PolicyHeader(kind domain.PolicyKind) string {
	if kind == "" {
		return "Customer policy excerpt (unverified):"
	}
	return fmt.Sprintf("Customer %s policy excerpt (unverified):", kind.Title())
}

// orderPolicies sorts home before auto before any other kind, keeping input
// order otherwise.
func orderPolicies(policies []domain.PolicyText) []domain.PolicyText {
	rank := func(k domain.PolicyKind) int {
		switch k {
		case domain.PolicyKindHome:
			return 0
		case domain.PolicyKindAuto:
			return 1
		default:
			return 2
		}
	}
	out := make([]domain.PolicyText, len(policies))
	copy(out, policies)
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].Kind) < rank(out[j].Kind)
	})
	return out
}
