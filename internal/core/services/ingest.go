package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/logger"
	"github.com/custodia-labs/policyrag/internal/postprocessors/chunker"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestConfig tunes an ingestion run.
type IngestConfig struct {
	// BatchSize is the number of chunks embedded and upserted together.
	BatchSize int

	// ContinueOnError skips a batch that exhausted its retries instead of
	// aborting the run.
	ContinueOnError bool

	// Retry controls upsert retries.
	Retry RetryPolicy

	// Title is stored as chunk metadata and used as the citation label.
	Title string
}

// DefaultIngestConfig returns the default ingestion tuning.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		BatchSize: domain.DefaultBatchSize,
		Retry:     DefaultRetryPolicy(),
	}
}

// ProgressFunc is called after every batch with the running report.
type ProgressFunc func(domain.IngestReport)

// IngestService streams a source through the chunker, embeds the chunks in
// batches and upserts them into the vector index.
type IngestService struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	streamer  *chunker.Streamer
	extractor driving.ExtractorService
	cfg       IngestConfig
	progress  ProgressFunc
}

// NewIngestService creates an ingestion service.
func NewIngestService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	streamer *chunker.Streamer,
	cfg IngestConfig,
) *IngestService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if streamer == nil {
		streamer = chunker.NewStreamer()
	}
	return &IngestService{
		embedder: embedder,
		index:    index,
		streamer: streamer,
		cfg:      cfg,
	}
}

// SetExtractor enables ingestion of binary documents (PDF, DOCX) by
// extracting their text first.
func (s *IngestService) SetExtractor(extractor driving.ExtractorService) {
	s.extractor = extractor
}

// SetProgress registers a per-batch progress callback.
func (s *IngestService) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// Ingest chunks, embeds and indexes everything read from r.
// Chunks upserted before a failure stay in the index; chunk IDs are
// deterministic so a rerun overwrites them.
func (s *IngestService) Ingest(ctx context.Context, r io.Reader, source string) (domain.IngestReport, error) {
	report := domain.IngestReport{Source: source}
	if s.embedder == nil {
		return report, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return report, domain.ErrVectorIndexUnavailable
	}

	logger.Section("Ingestion")
	logger.Debug("Source: %s, batch size: %d, namespace: %q", source, s.cfg.BatchSize, s.index.Namespace())

	batch := make([]domain.Chunk, 0, s.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		report.Batches++
		if err := s.indexBatch(ctx, batch); err != nil {
			if !s.cfg.ContinueOnError {
				return fmt.Errorf("batch %d: %w", report.Batches, err)
			}
			report.FailedBatches++
			logger.Warn("Skipping batch %d of %s (%d chunks): %v", report.Batches, source, len(batch), err)
		} else {
			report.Chunks += len(batch)
			logger.Info("Indexed batch %d (%d chunks)", report.Batches, len(batch))
		}
		batch = batch[:0]
		if s.progress != nil {
			s.progress(report)
		}
		return nil
	}

	_, err := s.streamer.Stream(ctx, r, source, func(c domain.Chunk) error {
		batch = append(batch, c)
		if len(batch) >= s.cfg.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	if err := flush(); err != nil {
		return report, err
	}
	return report, nil
}

// IngestFile ingests the file at path, using the path as source.
// Binary documents go through the extractor when one is set.
func (s *IngestService) IngestFile(ctx context.Context, path string) (domain.IngestReport, error) {
	format := domain.ResolveFormat("", path)
	if format.Kind == domain.FormatBinaryDocument {
		if s.extractor == nil {
			return domain.IngestReport{Source: path}, fmt.Errorf("ingest %s: %w", path, domain.ErrUnsupportedType)
		}
		ext := s.extractor.ExtractFile(ctx, path, "", 0)
		if !ext.OK {
			if ext.Err != nil {
				return domain.IngestReport{Source: path}, fmt.Errorf("ingest %s: %w", path, ext.Err)
			}
			return domain.IngestReport{Source: path}, fmt.Errorf("ingest %s: %w", path, domain.ErrExtractionFailed)
		}
		return s.Ingest(ctx, strings.NewReader(ext.Text), path)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.IngestReport{Source: path}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return s.Ingest(ctx, f, path)
}

func (s *IngestService) indexBatch(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := EmbedTexts(ctx, s.embedder, texts)
	if err != nil {
		return err
	}

	entries := make([]domain.IndexEntry, len(batch))
	for i, c := range batch {
		meta := c.Metadata()
		if s.cfg.Title != "" {
			meta[domain.MetaTitle] = s.cfg.Title
		}
		entries[i] = domain.IndexEntry{ID: c.ID, Values: vectors[i], Metadata: meta}
	}

	return UpsertWithRetry(ctx, s.index, entries, s.cfg.Retry)
}
