package domain

import "time"

// Source ingestion statuses.
const (
	SourceStatusPending  = "pending"
	SourceStatusIngested = "ingested"
	SourceStatusFailed   = "failed"
)

// SourceRecord is the catalog row kept for every ingested document or
// article. The catalog tracks what is in the vector index; the index
// itself stays the retrieval authority.
type SourceRecord struct {
	// ID is the source identifier, shared with the vector record id
	// scheme "{id}_chunk_{n}".
	ID string

	// Title is the human-readable document title.
	Title string

	// URL is the original location, when known.
	URL string

	// Category groups sources for metadata filtering.
	Category string

	// Status is pending, ingested or failed.
	Status string

	// ChunkCount is the number of vector records produced by the most
	// recent successful ingestion.
	ChunkCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IngestReport summarises one ingestion run for a single source.
type IngestReport struct {
	SourceID   string `json:"source_id"`
	ChunkCount int    `json:"chunk_count"`
}

// AssistantStats aggregates index and catalog counts for the stats
// operation.
type AssistantStats struct {
	TotalVectorCount int  `json:"total_vector_count"`
	SourceCount      int  `json:"source_count"`
	IndexAvailable   bool `json:"index_available"`
}
