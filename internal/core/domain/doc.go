// Package domain defines the core business entities for policyrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded slice of source text with a stable identity
//   - IndexEntry: The persisted (id, vector, metadata) unit of the vector index
//   - RetrievedChunk: A query-time match with its similarity score
//   - PolicyDocument: An uploaded customer policy read by the assembler
//   - AssembledContext: The ordered, separator-joined system message
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
