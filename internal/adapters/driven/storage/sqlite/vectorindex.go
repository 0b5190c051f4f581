package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex over the vectors table.
// Queries scan every row of matching dimension in the namespace.
type VectorIndex struct {
	store     *Store
	namespace string
}

// Upsert inserts or replaces entries in one transaction.
func (v *VectorIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (namespace, id, embedding, dimensions, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, id) DO UPDATE SET
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry without id", domain.ErrInvalidInput)
		}
		metadata := e.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, v.namespace, e.ID, float32SliceToBytes(e.Values), len(e.Values), string(metadataJSON)); err != nil {
			return fmt.Errorf("upserting %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Query returns the topK most similar entries, best first.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]domain.VectorMatch, error) {
	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, embedding, metadata FROM vectors
		WHERE namespace = ? AND dimensions = ?
	`, v.namespace, len(vector))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id, metadataJSON string
		var blob []byte
		if err := rows.Scan(&id, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		m := domain.VectorMatch{ID: id, Score: similarity.Cosine(vector, bytesToFloat32Slice(blob))}
		if includeMetadata {
			if err := json.Unmarshal([]byte(metadataJSON), &m.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata for %s: %w", id, err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
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

// Count returns the number of entries in the namespace.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE namespace = ?", v.namespace).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Namespace returns the namespace this index is scoped to.
func (v *VectorIndex) Namespace() string {
	return v.namespace
}

// Close is a no-op; the Store owns the connection.
func (v *VectorIndex) Close() error {
	return nil
}
