package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

func TestExtractorService_PlainText(t *testing.T) {
	svc := NewExtractorService()

	ext := svc.Extract(context.Background(), []byte("Dwelling coverage   \r\nDeductible\r\n\r\n\r\n\r\nEnd"), "text/plain", "policy.txt", 0)

	require.True(t, ext.OK)
	assert.NoError(t, ext.Err)
	assert.Equal(t, "Dwelling coverage\nDeductible\n\nEnd", ext.Text)
	assert.Equal(t, domain.PlainText(), ext.Format)
}

func TestExtractorService_Truncates(t *testing.T) {
	svc := NewExtractorService()

	ext := svc.Extract(context.Background(), []byte(strings.Repeat("abc", 10)), "", "notes.md", 7)

	require.True(t, ext.OK)
	assert.Equal(t, "abcabca", ext.Text)
}

func TestExtractorService_UnknownFormatDecodedAsText(t *testing.T) {
	svc := NewExtractorService()

	ext := svc.Extract(context.Background(), []byte("plain words"), "application/octet-stream", "blob", 0)

	require.True(t, ext.OK)
	assert.Equal(t, "plain words", ext.Text)
	assert.Equal(t, domain.UnknownFormat(), ext.Format)
}

func TestExtractorService_EmptyResult(t *testing.T) {
	svc := NewExtractorService()

	ext := svc.Extract(context.Background(), []byte("\x00\x00 \n\n"), "text/plain", "empty.txt", 0)

	assert.False(t, ext.OK)
	assert.NoError(t, ext.Err)
	assert.Empty(t, ext.Text)
}

func TestExtractorService_BinaryDispatch(t *testing.T) {
	pdf := &mockParser{kind: domain.ParserPDF, text: "Policy number 123"}
	docx := &mockParser{kind: domain.ParserDOCX, text: "Auto policy"}
	svc := NewExtractorService(pdf, docx)

	ext := svc.Extract(context.Background(), []byte("%PDF-1.7"), "application/pdf", "home.bin", 0)
	require.True(t, ext.OK)
	assert.Equal(t, "Policy number 123", ext.Text)
	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, 8, pdf.lastLen)

	ext = svc.Extract(context.Background(), []byte("PK"), "", "auto.docx", 0)
	require.True(t, ext.OK)
	assert.Equal(t, "Auto policy", ext.Text)
	assert.Equal(t, 1, docx.calls)
}

func TestExtractorService_ParserFailure(t *testing.T) {
	cause := errors.New("malformed PDF")
	svc := NewExtractorService(&mockParser{kind: domain.ParserPDF, err: cause})

	ext := svc.Extract(context.Background(), []byte("garbage"), "application/pdf", "home.pdf", 0)

	assert.False(t, ext.OK)
	assert.Empty(t, ext.Text)
	assert.ErrorIs(t, ext.Err, domain.ErrExtractionFailed)
	assert.ErrorIs(t, ext.Err, cause)
	assert.Equal(t, domain.BinaryDocument(domain.ParserPDF), ext.Format)
}

func TestExtractorService_ParserPanic(t *testing.T) {
	svc := NewExtractorService(&mockParser{kind: domain.ParserPDF, panics: true})

	ext := svc.Extract(context.Background(), []byte("garbage"), "", "home.pdf", 0)

	assert.False(t, ext.OK)
	assert.ErrorIs(t, ext.Err, domain.ErrExtractionFailed)
	assert.Contains(t, ext.Err.Error(), "corrupt xref table")
}

func TestExtractorService_MissingParser(t *testing.T) {
	svc := NewExtractorService()

	ext := svc.Extract(context.Background(), []byte("PK"), "", "auto.docx", 0)

	assert.False(t, ext.OK)
	assert.ErrorIs(t, ext.Err, domain.ErrExtractionFailed)
	assert.ErrorIs(t, ext.Err, domain.ErrUnsupportedType)
}

func TestExtractorService_ExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.md")
	require.NoError(t, os.WriteFile(path, []byte("# Coverage\n\nLiability 500k"), 0o600))
	svc := NewExtractorService()

	ext := svc.ExtractFile(context.Background(), path, "", 0)

	require.True(t, ext.OK)
	assert.Equal(t, "# Coverage\n\nLiability 500k", ext.Text)
}

func TestExtractorService_ExtractFile_Missing(t *testing.T) {
	svc := NewExtractorService()

	ext := svc.ExtractFile(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), "", 0)

	assert.False(t, ext.OK)
	assert.ErrorIs(t, ext.Err, domain.ErrExtractionFailed)
	assert.ErrorIs(t, ext.Err, fs.ErrNotExist)
	assert.Equal(t, domain.BinaryDocument(domain.ParserPDF), ext.Format)
}
