package domain

import "strings"

// SectionSeparator joins assembled prompt sections.
const SectionSeparator = "\n\n---\n\n"

// SectionKind identifies the role of an assembled section.
type SectionKind string

// Section kinds in their fixed assembly order.
const (
	SectionBaseInstructions       SectionKind = "base_instructions"
	SectionAdditionalInstructions SectionKind = "additional_instructions"
	SectionKnowledgeBase          SectionKind = "knowledge_base"
	SectionPolicy                 SectionKind = "policy"
)

// Section is one block of the system message.
type Section struct {
	Kind SectionKind `json:"kind"`
	Text string      `json:"text"`
}

// AssembledContext is the ordered list of sections for one completion request.
type AssembledContext struct {
	Sections []Section `json:"sections"`
}

// String joins all sections with SectionSeparator.
func (a AssembledContext) String() string {
	parts := make([]string, len(a.Sections))
	for i, s := range a.Sections {
		parts[i] = s.Text
	}
	return strings.Join(parts, SectionSeparator)
}

// Len returns the rendered length in bytes.
func (a AssembledContext) Len() int {
	return len(a.String())
}

// AssemblyInput carries everything the assembler combines.
type AssemblyInput struct {
	// BaseInstructions is the static system prompt.
	BaseInstructions string

	// AdditionalInstructions is an optional user-supplied override.
	AdditionalInstructions string

	// KnowledgeBase is the rendered retrieval context, possibly empty.
	KnowledgeBase string

	// Policies are the loaded policy texts, in any order.
	Policies []PolicyText
}
