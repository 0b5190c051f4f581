package driven

import "context"

// PolicyCache stores extracted policy text keyed by the document's stored path.
type PolicyCache interface {
	// Get returns the cached text and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores text for key, replacing any previous value.
	Put(ctx context.Context, key, text string) error
}
