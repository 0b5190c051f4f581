package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/logger"
	"github.com/custodia-labs/policyrag/internal/normalisers/plaintext"
	"github.com/custodia-labs/policyrag/internal/normalisers/sanitize"
)

// Ensure ExtractorService implements the interface.
var _ driving.ExtractorService = (*ExtractorService)(nil)

// ExtractorService turns document bytes into sanitized text.
// Parser failures are reported in the returned Extraction, never raised.
type ExtractorService struct {
	parsers map[domain.ParserKind]driven.DocumentParser
}

// NewExtractorService creates an extractor with the given binary parsers.
func NewExtractorService(parsers ...driven.DocumentParser) *ExtractorService {
	s := &ExtractorService{parsers: make(map[domain.ParserKind]driven.DocumentParser, len(parsers))}
	for _, p := range parsers {
		s.parsers[p.Kind()] = p
	}
	return s
}

// Extract resolves the document format, parses or decodes the bytes and
// sanitizes the result. maxChars > 0 hard-cuts the sanitized text.
func (s *ExtractorService) Extract(
	ctx context.Context, data []byte, mime, name string, maxChars int,
) domain.Extraction {
	format := domain.ResolveFormat(mime, name)
	logger.Debug("Extracting %q as %s (%d bytes)", name, format, len(data))

	var raw string
	switch format.Kind {
	case domain.FormatBinaryDocument:
		parser, ok := s.parsers[format.Parser]
		if !ok {
			err := fmt.Errorf("%w: no %s parser: %w", domain.ErrExtractionFailed, format.Parser, domain.ErrUnsupportedType)
			logger.Warn("Failed to extract %q: %v", name, err)
			return domain.Extraction{Format: format, Err: err}
		}
		text, err := parse(ctx, parser, data)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailed, name, err)
			logger.Warn("Failed to parse %s document %q: %v", format.Parser, name, err)
			return domain.Extraction{Format: format, Err: err}
		}
		raw = text
	case domain.FormatPlainText, domain.FormatUnknown:
		raw = plaintext.Decode(data)
	}

	text, ok := sanitize.Sanitize(raw)
	if !ok {
		logger.Debug("No usable text in %q", name)
		return domain.Extraction{Format: format}
	}

	return domain.Extraction{
		Text:   sanitize.Truncate(text, maxChars),
		OK:     true,
		Format: format,
	}
}

// ExtractFile reads path and extracts its text. A read failure is reported
// through Err like a parser failure.
func (s *ExtractorService) ExtractFile(ctx context.Context, path, mime string, maxChars int) domain.Extraction {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("%w: read %s: %w", domain.ErrExtractionFailed, path, err)
		logger.Warn("%v", err)
		return domain.Extraction{Format: domain.ResolveFormat(mime, path), Err: err}
	}
	return s.Extract(ctx, data, mime, filepath.Base(path), maxChars)
}

// parse runs a parser and converts a panic into an error.
func parse(ctx context.Context, p driven.DocumentParser, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return p.Parse(ctx, data)
}
