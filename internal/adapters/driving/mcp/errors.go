// Package mcp provides an MCP (Model Context Protocol) server adapter for
// policyrag. It lets AI assistants retrieve knowledge base context and
// extract policy documents.
package mcp

import "errors"

// ErrMissingRetrieverService is returned when the retriever service is not provided.
var ErrMissingRetrieverService = errors.New("mcp: retriever service is required")
