package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document format or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Chat completion is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrExtractionFailed indicates a document parser could not produce text.
	// Callers substitute a placeholder; it never fails a request.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrUpsertFailed indicates a vector upsert exhausted its retries.
	ErrUpsertFailed = errors.New("upsert failed")

	// ErrMissingSetting indicates a required configuration value is absent.
	ErrMissingSetting = errors.New("missing setting")
)

// MissingSettingError names the configuration value an operation needs.
type MissingSettingError struct {
	// Setting is the config file key, e.g. "index.api_key".
	Setting string

	// Env is the environment variable that can provide it.
	Env string
}

func (e *MissingSettingError) Error() string {
	if e.Env == "" {
		return fmt.Sprintf("missing setting %q", e.Setting)
	}
	return fmt.Sprintf("missing setting %q (set %s)", e.Setting, e.Env)
}

// Is reports ErrMissingSetting so callers can match on the sentinel.
func (e *MissingSettingError) Is(target error) bool {
	return target == ErrMissingSetting
}
