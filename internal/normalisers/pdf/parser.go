// Package pdf extracts plain text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// ErrEmptyDocument is returned for zero-length input.
var ErrEmptyDocument = errors.New("pdf: empty document")

// DefaultMaxTextBytes bounds the text read from a single document.
const DefaultMaxTextBytes = 32 << 20

// Parser extracts text with github.com/ledongthuc/pdf.
type Parser struct {
	maxTextBytes int64
}

// New creates a new PDF parser.
func New() *Parser {
	return &Parser{maxTextBytes: DefaultMaxTextBytes}
}

// Kind returns the parser kind.
func (p *Parser) Kind() domain.ParserKind {
	return domain.ParserPDF
}

// Parse returns the document's plain text. Malformed files can make the
// underlying reader panic; that is reported as an error.
func (p *Parser) Parse(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: open: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: read text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(plain, p.maxTextBytes)); err != nil {
		return "", fmt.Errorf("pdf: copy text: %w", err)
	}
	return buf.String(), nil
}
