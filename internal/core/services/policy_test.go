package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

func TestPolicyService_UsesCachedText(t *testing.T) {
	extractor := &mockExtractor{}
	svc := NewPolicyService(extractor, nil)
	doc := &domain.PolicyDocument{
		Name: "home.pdf", Kind: domain.PolicyKindHome, StoredPath: "/data/home.pdf",
		CachedText: "  Dwelling coverage A: 350,000  ",
	}

	got := svc.LoadPolicyText(context.Background(), doc, domain.PolicyLoadOptions{MinLength: 10})

	require.True(t, got.OK)
	assert.True(t, got.FromCache)
	assert.Equal(t, "Dwelling coverage A: 350,000", got.Text)
	assert.Equal(t, domain.PolicyKindHome, got.Kind)
	assert.Equal(t, 0, extractor.calls)
}

func TestPolicyService_ShortCacheReextracts(t *testing.T) {
	extractor := &mockExtractor{results: []domain.Extraction{{Text: "Full extracted policy text", OK: true}}}
	cache := &mockPolicyCache{}
	svc := NewPolicyService(extractor, cache)
	doc := &domain.PolicyDocument{Name: "auto.pdf", StoredPath: "/data/auto.pdf", CachedText: "abc"}

	got := svc.LoadPolicyText(context.Background(), doc, domain.PolicyLoadOptions{MinLength: 20, MaxChars: 1000})

	require.True(t, got.OK)
	assert.False(t, got.FromCache)
	assert.Equal(t, "Full extracted policy text", got.Text)
	assert.Equal(t, "Full extracted policy text", doc.CachedText)
	assert.Equal(t, []int{1000}, extractor.maxChars)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, "Full extracted policy text", cache.entries["/data/auto.pdf"])
}

func TestPolicyService_ForceReextract(t *testing.T) {
	extractor := &mockExtractor{results: []domain.Extraction{{Text: "fresh", OK: true}}}
	svc := NewPolicyService(extractor, nil)
	doc := &domain.PolicyDocument{Name: "home.pdf", StoredPath: "/data/home.pdf", CachedText: "stale but long enough"}

	got := svc.LoadPolicyText(context.Background(), doc, domain.PolicyLoadOptions{ForceReextract: true})

	assert.Equal(t, "fresh", got.Text)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, []int{domain.DefaultPolicyMaxChars}, extractor.maxChars)
}

func TestPolicyService_ExtractionFails(t *testing.T) {
	extractor := &mockExtractor{results: []domain.Extraction{{Err: domain.ErrExtractionFailed}}}
	svc := NewPolicyService(extractor, nil)
	doc := &domain.PolicyDocument{Name: "scan.pdf", Kind: domain.PolicyKindAuto, StoredPath: "/data/scan.pdf"}

	got := svc.LoadPolicyText(context.Background(), doc, domain.PolicyLoadOptions{})

	assert.False(t, got.OK)
	assert.Empty(t, got.Text)
	assert.Equal(t, "scan.pdf", got.Name)
	assert.Equal(t, domain.PolicyKindAuto, got.Kind)
}

func TestPolicyService_ExtractionFailsFallsBackToCache(t *testing.T) {
	extractor := &mockExtractor{results: []domain.Extraction{{Err: domain.ErrExtractionFailed}}}
	svc := NewPolicyService(extractor, nil)
	doc := &domain.PolicyDocument{Name: "home.pdf", StoredPath: "/data/home.pdf", CachedText: "previous text"}

	got := svc.LoadPolicyText(context.Background(), doc, domain.PolicyLoadOptions{ForceReextract: true})

	require.True(t, got.OK)
	assert.True(t, got.FromCache)
	assert.Equal(t, "previous text", got.Text)
}

func TestPolicyService_NoStoredPath(t *testing.T) {
	svc := NewPolicyService(&mockExtractor{}, nil)

	got := svc.LoadPolicyText(context.Background(), &domain.PolicyDocument{Name: "inline", CachedText: "0123456789"},
		domain.PolicyLoadOptions{MaxChars: 4})
	assert.True(t, got.OK)
	assert.Equal(t, "0123", got.Text)

	got = svc.LoadPolicyText(context.Background(), &domain.PolicyDocument{Name: "nothing"}, domain.PolicyLoadOptions{})
	assert.False(t, got.OK)
}

func TestPolicyService_ReadsPersistentCache(t *testing.T) {
	extractor := &mockExtractor{}
	cache := &mockPolicyCache{entries: map[string]string{"/data/home.pdf": "cached on disk"}}
	svc := NewPolicyService(extractor, cache)
	doc := &domain.PolicyDocument{Name: "home.pdf", StoredPath: "/data/home.pdf"}

	got := svc.LoadPolicyText(context.Background(), doc, domain.PolicyLoadOptions{})

	require.True(t, got.OK)
	assert.True(t, got.FromCache)
	assert.Equal(t, "cached on disk", got.Text)
	assert.Equal(t, 0, extractor.calls)
	assert.Equal(t, 0, cache.puts)
}

func TestPolicyService_CacheErrorIgnored(t *testing.T) {
	extractor := &mockExtractor{results: []domain.Extraction{{Text: "extracted", OK: true}}}
	cache := &mockPolicyCache{getErr: errors.New("database is locked")}
	svc := NewPolicyService(extractor, cache)

	got := svc.LoadPolicyText(context.Background(), &domain.PolicyDocument{Name: "a", StoredPath: "/a"}, domain.PolicyLoadOptions{})

	assert.True(t, got.OK)
	assert.Equal(t, "extracted", got.Text)
}
