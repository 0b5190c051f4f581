// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - EmbeddingService: Converts text to vectors (OpenAI, Azure OpenAI, Ollama)
//   - VectorIndex: Namespaced upsert and top-K query (Pinecone, SQLite, pgvector)
//   - DocumentParser: Extracts raw text from binary documents (PDF, DOCX)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Chat completion. Without it, only retrieval and assembly work.
//   - PolicyCache: Extracted policy text cache. Without it, policies are re-extracted.
//   - PromptStore: Editable instructions. Without it, built-in defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or parser package
package driven
