package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrieverService = (*RetrieverService)(nil)

// RetrieverConfig tunes retrieval.
type RetrieverConfig struct {
	// TopK is used when the caller passes topK <= 0.
	TopK int

	// Budget is the character budget for the rendered context.
	Budget int

	// Overhead is charged per chunk for its citation header.
	Overhead int
}

// DefaultRetrieverConfig returns the default retrieval tuning.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:     domain.DefaultTopK,
		Budget:   domain.DefaultContextBudget,
		Overhead: domain.DefaultChunkOverhead,
	}
}

// RetrieverService finds knowledge base chunks for a query and renders them
// as a citation-numbered context block.
type RetrieverService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	cfg      RetrieverConfig
}

// NewRetrieverService creates a retriever. Either port may be nil, in which
// case every query returns an empty result.
func NewRetrieverService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg RetrieverConfig,
) *RetrieverService {
	defaults := DefaultRetrieverConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.Budget <= 0 {
		cfg.Budget = defaults.Budget
	}
	if cfg.Overhead < 0 {
		cfg.Overhead = defaults.Overhead
	}
	return &RetrieverService{embedder: embedder, index: index, cfg: cfg}
}

// RetrieveContext embeds query, fetches the nearest chunks and packs them
// into the character budget. It never fails: embedding or index errors are
// logged and produce an empty result so the caller can continue without
// knowledge base context.
func (s *RetrieverService) RetrieveContext(ctx context.Context, query string, topK int) domain.RetrievalResult {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, skipping retrieval")
		return emptyRetrieval()
	}
	if s.embedder == nil || s.index == nil {
		logger.Debug("Retrieval not configured, skipping")
		return emptyRetrieval()
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		logger.Warn("Retrieval degraded: embed query: %v", err)
		return emptyRetrieval()
	}
	if len(vectors) != 1 {
		logger.Warn("Retrieval degraded: expected 1 query vector, got %d", len(vectors))
		return emptyRetrieval()
	}

	matches, err := s.index.Query(ctx, vectors[0], topK, true)
	if err != nil {
		logger.Warn("Retrieval degraded: query index: %v", err)
		return emptyRetrieval()
	}
	logger.Debug("Index returned %d matches (topK=%d, namespace=%q)", len(matches), topK, s.index.Namespace())

	chunks := make([]domain.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, domain.RetrievedChunkFromMatch(m))
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	selected := SelectWithinBudget(chunks, s.cfg.Budget, s.cfg.Overhead)
	logger.Debug("Selected %d of %d chunks within budget %d", len(selected), len(chunks), s.cfg.Budget)

	return domain.RetrievalResult{
		Context: RenderContext(selected),
		Chunks:  selected,
	}
}

// SelectWithinBudget keeps chunks in order while their running cost,
// text length plus overhead each, stays within budget. Selection stops at
// the first chunk that does not fit; no chunk is truncated.
func SelectWithinBudget(chunks []domain.RetrievedChunk, budget, overhead int) []domain.RetrievedChunk {
	selected := make([]domain.RetrievedChunk, 0, len(chunks))
	total := 0
	for _, c := range chunks {
		cost := utf8.RuneCountInString(c.Text) + overhead
		if total+cost > budget {
			break
		}
		selected = append(selected, c)
		total += cost
	}
	return selected
}

// RenderContext formats chunks as "[[n]] <label> #<ordinal>" blocks numbered
// from 1 and joined by the section separator.
func RenderContext(chunks []domain.RetrievedChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[[%d]] %s #%d\n%s", i+1, c.Label(), c.Ordinal(), c.Text)
	}
	return strings.Join(blocks, domain.SectionSeparator)
}

func emptyRetrieval() domain.RetrievalResult {
	return domain.RetrievalResult{Chunks: []domain.RetrievedChunk{}}
}
