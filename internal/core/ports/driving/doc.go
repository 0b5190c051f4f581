// Package driving declares what the CLI, the HTTP API and the MCP server may
// ask of the core: extraction, ingestion, retrieval, context assembly, chat
// and settings. internal/core/services provides the implementations; the
// adapters under internal/adapters/driving only ever see these interfaces.
package driving
