package domain

import "strings"

// PolicyKind classifies an uploaded policy document.
type PolicyKind string

// Known policy kinds. Sections are assembled in this order.
const (
	PolicyKindHome PolicyKind = "home"
	PolicyKindAuto PolicyKind = "auto"
)

// String returns the string representation.
func (k PolicyKind) String() string {
	return string(k)
}

// Title returns the kind with an upper-case first letter, e.g. "Home".
func (k PolicyKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// PolicyDocument is a customer-uploaded policy file.
// The core only reads its bytes and may populate CachedText.
type PolicyDocument struct {
	// Name is the original file name.
	Name string `yaml:"name" json:"name"`

	// Kind is the policy category (home, auto).
	Kind PolicyKind `yaml:"kind" json:"kind"`

	// MIME is the declared content type, possibly empty.
	MIME string `yaml:"mime" json:"mime,omitempty"`

	// Size is the file size in bytes.
	Size int64 `yaml:"size" json:"size,omitempty"`

	// StoredPath is where the bytes live on disk.
	StoredPath string `yaml:"path" json:"-"`

	// CachedText is a previously extracted text, if any.
	CachedText string `yaml:"-" json:"-"`
}

// PolicyText is the outcome of loading a policy document for prompt assembly.
type PolicyText struct {
	Name string
	Kind PolicyKind
	Text string

	// OK is false when no readable text could be extracted.
	OK bool

	// FromCache is true when the text came from a previous extraction.
	FromCache bool
}

// UnreadablePlaceholder is substituted for policies without extractable text.
const UnreadablePlaceholder = "file not in a readable text format"
