package domain

import "fmt"

// Chunk is a contiguous slice of a source document's text, sized for
// embedding. Chunks are transient: they exist between chunking and
// upsert, and are persisted only inside a VectorRecord.
type Chunk struct {
	// SourceID identifies the owning document or article.
	SourceID string

	// Index is the 0-based position among sibling chunks.
	Index int

	// Text is the slice content, whitespace-trimmed.
	Text string

	// StartOffset and EndOffset locate the chunk in the original text.
	// They are informational and may be zero for synthesised chunks.
	StartOffset int
	EndOffset   int
}

// RecordID returns the deterministic vector record id for this chunk.
// The scheme makes re-ingestion of the same source idempotent: the new
// records overwrite the old ones key for key.
func (c Chunk) RecordID() string {
	return fmt.Sprintf("%s_chunk_%d", c.SourceID, c.Index)
}

// SourceMeta is the document-level metadata attached to every vector
// record produced from one source. It arrives alongside the extracted
// plain text; extraction itself happens outside the core.
type SourceMeta struct {
	Title       string
	URL         string
	Category    string
	PublishedAt string
}

// VectorRecord is the unit stored in and retrieved from the vector
// index. Records are never mutated, only replaced wholesale by
// re-ingestion under the same ID, or deleted.
type VectorRecord struct {
	// ID is "{sourceID}_chunk_{index}".
	ID string

	// Embedding is the fixed-length vector. Its dimension must match
	// the index's configured dimension; a mismatch is a hard failure.
	Embedding []float32

	// Metadata carries title, source_url, category, published_at,
	// chunk_index, total_chunks and chunk_text.
	Metadata map[string]any
}

// Metadata keys used on vector records. Adapters and the assembler
// agree on these instead of sharing a struct, because index backends
// round-trip metadata as loosely typed maps.
const (
	MetaTitle       = "title"
	MetaSourceID    = "source_id"
	MetaSourceURL   = "source_url"
	MetaCategory    = "category"
	MetaPublishedAt = "published_at"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaChunkText   = "chunk_text"
)

// Match is one similarity hit from the vector index.
type Match struct {
	// VectorID is the matched record's id.
	VectorID string

	// Score is the similarity, higher is more relevant.
	Score float64

	// Metadata is the record metadata as stored at upsert time.
	Metadata map[string]any
}

// Title returns the match's document title, or "" when absent.
func (m Match) Title() string {
	if t, ok := m.Metadata[MetaTitle].(string); ok {
		return t
	}
	return ""
}

// ChunkText returns the stored chunk text, or "" when absent.
func (m Match) ChunkText() string {
	if t, ok := m.Metadata[MetaChunkText].(string); ok {
		return t
	}
	return ""
}

// RetrievalResult is the ordered outcome of one similarity query.
// Matches are sorted descending by score and bounded by the requested
// topK. It is ephemeral and never persisted.
type RetrievalResult struct {
	Matches []Match
}

// Filter is a metadata predicate for similarity queries. Fields
// combine with AND semantics; a field with multiple values matches any
// of them (in-set).
type Filter map[string][]string

// Matches reports whether the record metadata satisfies the filter.
func (f Filter) Matches(meta map[string]any) bool {
	for field, wanted := range f {
		got, ok := meta[field].(string)
		if !ok {
			return false
		}
		found := false
		for _, w := range wanted {
			if got == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IndexStats reports aggregate information about the vector index.
type IndexStats struct {
	TotalVectorCount int
}
