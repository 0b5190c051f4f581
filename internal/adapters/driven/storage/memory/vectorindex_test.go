package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

func TestVectorIndex_UpsertAndQuery(t *testing.T) {
	idx := NewVectorIndex("")
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		{ID: "home", Values: []float32{1, 0}, Metadata: map[string]any{domain.MetaText: "home"}},
		{ID: "auto", Values: []float32{0, 1}, Metadata: map[string]any{domain.MetaText: "auto"}},
		{ID: "both", Values: []float32{1, 1}, Metadata: map[string]any{domain.MetaText: "both"}},
	}))

	matches, err := idx.Query(ctx, []float32{1, 0.1}, 2, true)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "home", matches[0].ID)
	assert.Equal(t, "both", matches[1].ID)
	assert.Equal(t, "home", matches[0].Metadata[domain.MetaText])
	assert.Equal(t, domain.DefaultNamespace, idx.Namespace())
}

func TestVectorIndex_UpsertIsIdempotent(t *testing.T) {
	idx := NewVectorIndex("kb")
	ctx := context.Background()
	entry := domain.IndexEntry{ID: "a", Values: []float32{1, 2}, Metadata: map[string]any{domain.MetaText: "v1"}}

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{entry}))
	entry.Metadata = map[string]any{domain.MetaText: "v2"}
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{entry}))

	assert.Equal(t, 1, idx.Len())
	matches, err := idx.Query(ctx, []float32{1, 2}, 5, true)
	require.NoError(t, err)
	assert.Equal(t, "v2", matches[0].Metadata[domain.MetaText])
}

func TestVectorIndex_QueryWithoutMetadata(t *testing.T) {
	idx := NewVectorIndex("kb")
	require.NoError(t, idx.Upsert(context.Background(), []domain.IndexEntry{
		{ID: "a", Values: []float32{1}, Metadata: map[string]any{domain.MetaText: "x"}},
	}))

	matches, err := idx.Query(context.Background(), []float32{1}, 1, false)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].Metadata)
}

func TestVectorIndex_QueryReturnsMetadataCopy(t *testing.T) {
	idx := NewVectorIndex("kb")
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		{ID: "a", Values: []float32{1, 0}, Metadata: map[string]any{domain.MetaText: "original"}},
	}))

	matches, err := idx.Query(ctx, []float32{1, 0}, 1, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	matches[0].Metadata[domain.MetaText] = "changed"
	matches[0].Metadata["extra"] = true

	again, err := idx.Query(ctx, []float32{1, 0}, 1, true)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "original", again[0].Metadata[domain.MetaText])
	assert.NotContains(t, again[0].Metadata, "extra")
}

func TestVectorIndex_RejectsEmptyID(t *testing.T) {
	err := NewVectorIndex("kb").Upsert(context.Background(), []domain.IndexEntry{{Values: []float32{1}}})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPolicyCache(t *testing.T) {
	cache := NewPolicyCache()
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "/data/home.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "/data/home.pdf", "Dwelling 350k"))
	text, ok, err := cache.Get(ctx, "/data/home.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Dwelling 350k", text)
}
