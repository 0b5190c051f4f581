// Package normalisers holds the text extraction building blocks used by the
// document extractor: the sanitizer that cleans raw text, the plain text
// decoder, and one DocumentParser per binary format.
//
// Parsers are registered with the extractor service at startup.
package normalisers
