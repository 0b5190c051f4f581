// Package storage opens the vector index and policy cache selected by the
// index settings.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage/pinecone"
	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Backend bundles the opened vector index with the policy text cache.
// Remote indexes keep their policy cache in the local SQLite store.
type Backend struct {
	Index driven.VectorIndex
	Cache driven.PolicyCache

	closers []func() error
}

// Open creates the backend described by settings. dimensions fixes the
// vector column size where the backend needs one (pgvector); zero leaves it
// untyped.
func Open(ctx context.Context, settings domain.IndexSettings, dimensions int) (*Backend, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	namespace := settings.Namespace
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}

	switch settings.Backend {
	case domain.IndexBackendMemory:
		return &Backend{
			Index: memory.NewVectorIndex(namespace),
			Cache: memory.NewPolicyCache(),
		}, nil

	case domain.IndexBackendSQLite:
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return &Backend{
			Index:   store.VectorIndex(namespace),
			Cache:   store.PolicyCache(),
			closers: []func() error{store.Close},
		}, nil

	case domain.IndexBackendPinecone:
		index, err := pinecone.NewVectorIndex(pinecone.Config{
			APIKey:    settings.APIKey,
			Host:      settings.Host,
			IndexName: settings.Name,
			Namespace: namespace,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return withLocalCache(index, settings.DataDir)

	case domain.IndexBackendPGVector:
		index, err := pgvector.NewVectorIndex(ctx, pgvector.Config{
			DSN:        settings.DSN,
			Namespace:  namespace,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return withLocalCache(index, settings.DataDir)

	default:
		return nil, fmt.Errorf("%w: index backend %s", domain.ErrUnsupportedType, settings.Backend)
	}
}

// withLocalCache pairs a remote index with a SQLite policy cache.
func withLocalCache(index driven.VectorIndex, dataDir string) (*Backend, error) {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("opening policy cache: %w", err)
	}
	return &Backend{
		Index:   index,
		Cache:   store.PolicyCache(),
		closers: []func() error{index.Close, store.Close},
	}, nil
}

// Close releases every resource held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
