package domain

// Extraction is the explicit outcome of extracting text from a document.
// A failed parse is a value, not an error: Err explains it and OK is false.
type Extraction struct {
	// Text is the sanitized, possibly truncated text.
	Text string

	// OK is false when no usable text was produced.
	OK bool

	// Format is the resolved extraction strategy.
	Format DocumentFormat

	// Err is the parser or read failure, if any.
	Err error
}

// PolicyLoadOptions controls how policy text is loaded.
type PolicyLoadOptions struct {
	// MaxChars truncates extracted text; 0 means DefaultPolicyMaxChars.
	MaxChars int

	// MinLength is the shortest cached text that is trusted.
	MinLength int

	// ForceReextract ignores any cached text.
	ForceReextract bool
}
