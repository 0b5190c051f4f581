package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/logger"
	"github.com/custodia-labs/policyrag/internal/normalisers/sanitize"
)

// Ensure PolicyService implements the interface.
var _ driving.PolicyService = (*PolicyService)(nil)

// PolicyService loads customer policy text for prompt assembly, reusing a
// previous extraction when it is good enough.
type PolicyService struct {
	extractor driving.ExtractorService
	cache     driven.PolicyCache
}

// NewPolicyService creates a policy loader. cache may be nil.
func NewPolicyService(extractor driving.ExtractorService, cache driven.PolicyCache) *PolicyService {
	return &PolicyService{extractor: extractor, cache: cache}
}

// LoadPolicyText returns the policy's text, or a result with OK false when
// nothing readable could be extracted. It never fails.
func (s *PolicyService) LoadPolicyText(
	ctx context.Context, doc *domain.PolicyDocument, opts domain.PolicyLoadOptions,
) domain.PolicyText {
	out := domain.PolicyText{Name: doc.Name, Kind: doc.Kind}

	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = domain.DefaultPolicyMaxChars
	}

	cached := strings.TrimSpace(doc.CachedText)
	if cached == "" {
		cached = s.lookup(ctx, doc.StoredPath)
	}

	if doc.StoredPath == "" {
		if cached == "" {
			return out
		}
		out.Text, out.OK, out.FromCache = sanitize.Truncate(cached, maxChars), true, true
		return out
	}

	text := cached
	fromCache := true
	if opts.ForceReextract || cached == "" || utf8.RuneCountInString(cached) < opts.MinLength {
		ext := s.extractor.ExtractFile(ctx, doc.StoredPath, doc.MIME, maxChars)
		switch {
		case ext.OK:
			text, fromCache = ext.Text, false
		case cached != "":
			logger.Warn("Re-extraction of %q failed, using cached text", doc.Name)
		default:
			logger.Warn("Policy %q has no readable text", doc.Name)
			return out
		}
	}

	text = sanitize.Truncate(text, maxChars)
	out.Text, out.OK, out.FromCache = text, true, fromCache

	doc.CachedText = text
	if s.cache != nil && !fromCache {
		if err := s.cache.Put(ctx, doc.StoredPath, text); err != nil {
			logger.Warn("Failed to cache policy text for %q: %v", doc.Name, err)
		}
	}
	return out
}

func (s *PolicyService) lookup(ctx context.Context, key string) string {
	if s.cache == nil || key == "" {
		return ""
	}
	text, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Policy cache lookup for %s failed: %v", key, err)
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
