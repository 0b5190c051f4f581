package domain

import (
	"path/filepath"
	"strings"
)

// FormatKind is the closed set of extraction strategies.
type FormatKind int

const (
	// FormatUnknown is decoded as UTF-8 and left to the sanitizer.
	FormatUnknown FormatKind = iota

	// FormatPlainText is decoded directly as UTF-8.
	FormatPlainText

	// FormatBinaryDocument requires a format-specific parser.
	FormatBinaryDocument
)

// ParserKind selects the parser for a binary document.
type ParserKind string

// Supported binary document parsers.
const (
	ParserPDF  ParserKind = "pdf"
	ParserDOCX ParserKind = "docx"
)

// DocumentFormat is resolved once from MIME type and file name.
type DocumentFormat struct {
	Kind   FormatKind
	Parser ParserKind
}

// PlainText returns the plain text variant.
func PlainText() DocumentFormat {
	return DocumentFormat{Kind: FormatPlainText}
}

// BinaryDocument returns the binary variant for the given parser.
func BinaryDocument(p ParserKind) DocumentFormat {
	return DocumentFormat{Kind: FormatBinaryDocument, Parser: p}
}

// UnknownFormat returns the unknown variant.
func UnknownFormat() DocumentFormat {
	return DocumentFormat{Kind: FormatUnknown}
}

// String returns a short label for logs.
func (f DocumentFormat) String() string {
	switch f.Kind {
	case FormatPlainText:
		return "text"
	case FormatBinaryDocument:
		return "binary:" + string(f.Parser)
	default:
		return "unknown"
	}
}

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var textMIMETypes = map[string]bool{
	"application/json":     true,
	"application/xml":      true,
	"application/x-yaml":   true,
	"application/yaml":     true,
	"application/x-ndjson": true,
}

var extensionFormats = map[string]DocumentFormat{
	".pdf":      BinaryDocument(ParserPDF),
	".docx":     BinaryDocument(ParserDOCX),
	".txt":      PlainText(),
	".md":       PlainText(),
	".markdown": PlainText(),
	".csv":      PlainText(),
	".json":     PlainText(),
	".xml":      PlainText(),
	".yaml":     PlainText(),
	".yml":      PlainText(),
	".html":     PlainText(),
	".htm":      PlainText(),
	".log":      PlainText(),
}

// ResolveFormat picks the extraction strategy. The MIME type wins when it is
// recognised; otherwise the file extension decides.
func ResolveFormat(mime, name string) DocumentFormat {
	m := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}

	switch {
	case m == mimePDF:
		return BinaryDocument(ParserPDF)
	case m == mimeDOCX:
		return BinaryDocument(ParserDOCX)
	case strings.HasPrefix(m, "text/"), textMIMETypes[m]:
		return PlainText()
	}

	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return UnknownFormat()
}
