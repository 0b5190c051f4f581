package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

var _ driven.PolicyCache = (*PolicyCache)(nil)

// PolicyCache implements driven.PolicyCache over the policy_text table.
type PolicyCache struct {
	store *Store
}

// Get returns the cached text for a stored policy path.
func (c *PolicyCache) Get(ctx context.Context, key string) (string, bool, error) {
	var text string
	err := c.store.db.QueryRowContext(ctx, "SELECT text FROM policy_text WHERE path = ?", key).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting policy text: %w", err)
	}
	return text, true, nil
}

// Put stores text for a stored policy path.
func (c *PolicyCache) Put(ctx context.Context, key, text string) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO policy_text (path, text, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			text = excluded.text,
			updated_at = excluded.updated_at
	`, key, text)
	if err != nil {
		return fmt.Errorf("saving policy text: %w", err)
	}
	return nil
}
