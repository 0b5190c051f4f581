package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Ensure PolicyCache implements the interface.
var _ driven.PolicyCache = (*PolicyCache)(nil)

// PolicyCache keeps extracted policy text for the life of the process.
type PolicyCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewPolicyCache creates an empty policy cache.
func NewPolicyCache() *PolicyCache {
	return &PolicyCache{entries: make(map[string]string)}
}

// Get returns the cached text for key.
func (c *PolicyCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.entries[key]
	return text, ok, nil
}

// Put stores text under key, replacing any previous value.
func (c *PolicyCache) Put(_ context.Context, key, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = text
	return nil
}
