package driven

import (
	"context"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

// CatalogStore tracks every source that has been handed to the
// ingestion pipeline, with its status and chunk count. It is bookkeeping
// alongside the vector index, not a retrieval path.
type CatalogStore interface {
	// UpsertSource inserts or replaces the catalog row for a source.
	UpsertSource(ctx context.Context, rec *domain.SourceRecord) error

	// GetSource returns the catalog row, or domain.ErrNotFound.
	GetSource(ctx context.Context, id string) (*domain.SourceRecord, error)

	// ListSources returns all catalog rows ordered by update time,
	// newest first.
	ListSources(ctx context.Context) ([]domain.SourceRecord, error)

	// SetStatus updates a source's status and chunk count.
	SetStatus(ctx context.Context, id, status string, chunkCount int) error

	// CountSources returns the number of catalog rows.
	CountSources(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
