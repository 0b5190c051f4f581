package mcp

import (
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever finds knowledge base context for a query.
	Retriever driving.RetrieverService

	// Extractor turns policy documents into text.
	Extractor driving.ExtractorService

	// Chat assembles the system message for a conversation.
	Chat driving.ChatService

	// Prompts serves the base instructions resource.
	Prompts driven.PromptStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetrieverService
	}
	return nil
}
