package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

func TestParser_Kind(t *testing.T) {
	assert.Equal(t, domain.ParserPDF, New().Kind())
}

func TestParser_Parse_Empty(t *testing.T) {
	_, err := New().Parse(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParser_Parse_NotAPDF(t *testing.T) {
	text, err := New().Parse(context.Background(), []byte("this is plain text, not a pdf"))
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestParser_Parse_TruncatedPDF(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	text, err := New().Parse(context.Background(), data)
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestParser_Parse_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Parse(ctx, []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentParser = New()
}
