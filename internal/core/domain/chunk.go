package domain

import "strconv"

// Metadata keys written alongside every indexed chunk.
const (
	MetaSource  = "source"
	MetaOrdinal = "ordinal"
	MetaText    = "text"
	MetaTitle   = "title"

	// MetaChunk is the ordinal key read at query time. Indexes populated by
	// older ingesters carry "chunk" or "ord" instead of "ordinal".
	MetaChunk = "chunk"
	metaOrd   = "ord"
)

// Chunk is a contiguous slice of source text produced by the chunker.
type Chunk struct {
	// ID is derived from source, ordinal and text; identical input yields the same ID.
	ID string

	// Text is the trimmed chunk content, never empty.
	Text string

	// Source identifies the origin (file path or document id).
	Source string

	// Ordinal is the zero-based position within the source.
	Ordinal int
}

// Metadata returns the index metadata stored with this chunk.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		MetaSource:  c.Source,
		MetaOrdinal: c.Ordinal,
		MetaText:    c.Text,
	}
}

// IndexEntry is the persisted unit of the vector index.
type IndexEntry struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// VectorMatch is a raw nearest-neighbour hit returned by a vector index.
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// RetrievedChunk is a query-time result. Higher Score means more relevant.
type RetrievedChunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Title  string  `json:"title,omitempty"`
	Chunk  *int    `json:"chunk,omitempty"`
	Score  float64 `json:"score"`
}

// Label returns the citation label: title, then source, then "source".
func (c RetrievedChunk) Label() string {
	if c.Title != "" {
		return c.Title
	}
	if c.Source != "" {
		return c.Source
	}
	return "source"
}

// Ordinal returns the chunk ordinal, or 0 when unknown.
func (c RetrievedChunk) Ordinal() int {
	if c.Chunk == nil {
		return 0
	}
	return *c.Chunk
}

// RetrievedChunkFromMatch maps index metadata onto a RetrievedChunk.
// Missing text defaults to the empty string.
func RetrievedChunkFromMatch(m VectorMatch) RetrievedChunk {
	rc := RetrievedChunk{Score: m.Score}
	if m.Metadata == nil {
		return rc
	}
	rc.Text = metaString(m.Metadata[MetaText])
	rc.Source = metaString(m.Metadata[MetaSource])
	rc.Title = metaString(m.Metadata[MetaTitle])
	for _, key := range []string{MetaChunk, MetaOrdinal, metaOrd} {
		if n, ok := metaInt(m.Metadata[key]); ok {
			rc.Chunk = &n
			break
		}
	}
	return rc
}

// RetrievalResult is the rendered context plus the chunks it contains.
type RetrievalResult struct {
	Context string           `json:"context"`
	Chunks  []RetrievedChunk `json:"chunks"`
}

// IsEmpty reports whether nothing was retrieved.
func (r RetrievalResult) IsEmpty() bool {
	return r.Context == "" && len(r.Chunks) == 0
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Source        string
	Chunks        int
	Batches       int
	FailedBatches int
}

func metaString(v any) string {
	s, _ := v.(string)
	return s
}

// metaInt accepts the numeric shapes JSON decoders and SQL drivers produce.
func metaInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
