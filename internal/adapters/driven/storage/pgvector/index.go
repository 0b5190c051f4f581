// Package pgvector provides a vector index adapter for PostgreSQL with the
// pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// DefaultTable holds the vectors when Config.Table is empty.
const DefaultTable = "policy_vectors"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds configuration for the pgvector index.
type Config struct {
	// DSN is the PostgreSQL connection string (required).
	DSN string

	// Namespace scopes every read and write (default: kb).
	Namespace string

	// Table is the table name (default: policy_vectors).
	Table string

	// Dimensions fixes the vector column size. Zero leaves it untyped.
	Dimensions int
}

// VectorIndex stores embeddings in a pgvector table and searches by cosine
// distance.
type VectorIndex struct {
	db        *sql.DB
	table     string
	namespace string
}

// NewVectorIndex connects, verifies the connection and ensures the schema.
func NewVectorIndex(ctx context.Context, cfg Config) (*VectorIndex, error) {
	if cfg.DSN == "" {
		return nil, &domain.MissingSettingError{Setting: "index.dsn", Env: "PGVECTOR_DSN"}
	}
	cfg = withDefaults(cfg)
	if !tableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: table name %q", domain.ErrInvalidInput, cfg.Table)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	v := &VectorIndex{db: db, table: cfg.Table, namespace: cfg.Namespace}
	if err := v.ensureSchema(ctx, cfg.Dimensions); err != nil {
		db.Close()
		return nil, err
	}
	return v, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Namespace == "" {
		cfg.Namespace = domain.DefaultNamespace
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	return cfg
}

func (v *VectorIndex) ensureSchema(ctx context.Context, dims int) error {
	for _, stmt := range schemaStatements(v.table, dims) {
		if _, err := v.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(table string, dims int) []string {
	column := "vector"
	if dims > 0 {
		column = "vector(" + strconv.Itoa(dims) + ")"
	}
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			namespace  TEXT NOT NULL,
			id         TEXT NOT NULL,
			embedding  %s NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (namespace, id)
		)`, table, column),
	}
}

// Upsert inserts or replaces entries in one transaction.
func (v *VectorIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (namespace, id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3::vector, $4::jsonb, now())
		ON CONFLICT (namespace, id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`, v.table))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry without id", domain.ErrInvalidInput)
		}
		metadata, err := marshalMetadata(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, v.namespace, e.ID, vectorToString(e.Values), metadata); err != nil {
			return fmt.Errorf("upsert %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Query performs a cosine similarity search, best first.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]domain.VectorMatch, error) {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	query := fmt.Sprintf(`SELECT id, metadata, 1 - (embedding <=> $1::vector) AS similarity
		FROM %s
		WHERE namespace = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`, v.table)

	rows, err := v.db.QueryContext(ctx, query, vectorToString(vector), v.namespace, topK)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var m domain.VectorMatch
		var metadata []byte
		if err := rows.Scan(&m.ID, &metadata, &m.Score); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		if includeMetadata {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar: %w", err)
	}
	return matches, nil
}

// Namespace returns the namespace this index is scoped to.
func (v *VectorIndex) Namespace() string {
	return v.namespace
}

// Close closes the database connection.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
