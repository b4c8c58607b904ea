package driven

import (
	"context"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

// VectorIndex provides similarity search over embedded chunks.
//
// Implementations may include:
//   - Postgres with pgvector
//   - An in-process brute-force cosine index for tests and single-node use
type VectorIndex interface {
	// Upsert inserts or replaces records, idempotent by record ID.
	// Records whose embedding dimension does not match the index
	// configuration are rejected with domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Query returns up to topK nearest records, ordered descending by
	// similarity. The optional filter restricts matches by metadata
	// equality with AND semantics across fields.
	Query(ctx context.Context, vector []float32, topK int, filter domain.Filter) (domain.RetrievalResult, error)

	// DeleteSource removes every record belonging to the given source.
	DeleteSource(ctx context.Context, sourceID string) error

	// Stats reports aggregate index information.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
