package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force cosine index held in memory.
type VectorIndex struct {
	mu        sync.RWMutex
	namespace string
	entries   map[string]domain.IndexEntry
}

// NewVectorIndex creates an empty index scoped to namespace.
func NewVectorIndex(namespace string) *VectorIndex {
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	return &VectorIndex{namespace: namespace, entries: make(map[string]domain.IndexEntry)}
}

// Upsert inserts or replaces entries by ID.
func (v *VectorIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry without id", domain.ErrInvalidInput)
		}
		meta := make(map[string]any, len(e.Metadata))
		for k, val := range e.Metadata {
			meta[k] = val
		}
		values := make([]float32, len(e.Values))
		copy(values, e.Values)
		v.entries[e.ID] = domain.IndexEntry{ID: e.ID, Values: values, Metadata: meta}
	}
	return nil
}

// Query returns the topK most similar entries, best first.
func (v *VectorIndex) Query(_ context.Context, vector []float32, topK int, includeMetadata bool) ([]domain.VectorMatch, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	matches := make([]domain.VectorMatch, 0, len(v.entries))
	for _, e := range v.entries {
		if len(e.Values) != len(vector) {
			continue
		}
		m := domain.VectorMatch{ID: e.ID, Score: similarity.Cosine(vector, e.Values)}
		if includeMetadata {
			m.Metadata = maps.Clone(e.Metadata)
		}
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Namespace returns the namespace this index is scoped to.
func (v *VectorIndex) Namespace() string {
	return v.namespace
}

// Len returns the number of stored entries.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
