package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/logger"
)

// EmbedTexts embeds texts in one batch and checks that every input got a
// vector. Empty input returns an empty result without calling the service.
func EmbedTexts(ctx context.Context, svc driven.EmbeddingService, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if svc == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vectors, err := svc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed %d texts: got %d vectors", len(texts), len(vectors))
	}
	return vectors, nil
}

// RetryPolicy controls UpsertWithRetry.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// BaseDelay is multiplied by attempt² between tries.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns 3 attempts with a 300ms base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 300 * time.Millisecond}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt*attempt)
}

// UpsertWithRetry upserts entries, retrying failures with quadratic backoff.
// After the last attempt the error wraps domain.ErrUpsertFailed.
func UpsertWithRetry(ctx context.Context, index driven.VectorIndex, entries []domain.IndexEntry, policy RetryPolicy) error {
	if len(entries) == 0 {
		return nil
	}

	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = index.Upsert(ctx, entries)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := policy.Delay(attempt)
		logger.Warn("Upsert of %d entries failed (attempt %d/%d), retrying in %s: %v",
			len(entries), attempt, attempts, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", domain.ErrUpsertFailed, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", domain.ErrUpsertFailed, attempts, lastErr)
}
