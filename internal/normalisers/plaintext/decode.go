// Package plaintext decodes text documents into strings.
package plaintext

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode returns data as text. A UTF-8 byte order mark is dropped and UTF-16
// input with a byte order mark is transcoded; anything else is taken as UTF-8.
// Invalid sequences without a byte order mark are left for the sanitizer.
func Decode(data []byte) string {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
