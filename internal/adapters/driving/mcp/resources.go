package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

const (
	// uriScheme is the custom URI scheme for policyrag resources.
	uriScheme = "policyrag://"

	promptsPrefix = uriScheme + "prompts/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Prompts == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         promptsPrefix + driven.PromptBaseInstructions,
		Name:        driven.PromptBaseInstructions,
		Description: "System prompt of the insurance assistant",
		MIMEType:    "text/markdown",
	}, s.handlePromptResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: promptsPrefix + "{name}",
		Name:        "prompt",
		Description: "A named prompt from the prompt directory",
		MIMEType:    "text/markdown",
	}, s.handlePromptResource)
}

// handlePromptResource returns the prompt named in the URI.
func (s *Server) handlePromptResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractPromptName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.Prompts.Load(name)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     text,
		}},
	}, nil
}

// extractPromptName extracts the prompt name from policyrag://prompts/{name}.
func extractPromptName(uri string) string {
	if !strings.HasPrefix(uri, promptsPrefix) {
		return ""
	}
	name := strings.TrimPrefix(uri, promptsPrefix)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ""
	}
	return name
}
