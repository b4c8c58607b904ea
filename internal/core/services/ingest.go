package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-labs/briefing/internal/chunker"
	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
	"github.com/meridian-labs/briefing/internal/core/ports/driving"
	"github.com/meridian-labs/briefing/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService turns extracted plain text into vector records:
// chunk -> embed -> replace the source's records in the index. The
// catalog tracks each source's status alongside.
type IngestService struct {
	chunker  *chunker.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	catalog  driven.CatalogStore

	now func() time.Time
}

// NewIngestService wires the ingestion pipeline. The catalog is
// optional; without it ingestion still works, just untracked.
func NewIngestService(
	ck *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	catalog driven.CatalogStore,
) *IngestService {
	return &IngestService{
		chunker:  ck,
		embedder: embedder,
		index:    index,
		catalog:  catalog,
		now:      time.Now,
	}
}

// Ingest processes one source. Re-ingesting a source ID first drops
// its previous records, so shrinking documents leave no stale chunks
// behind; the deterministic record ids make the overwrite idempotent.
func (s *IngestService) Ingest(ctx context.Context, sourceID, text string, meta domain.SourceMeta) (*domain.IngestReport, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, fmt.Errorf("empty source id: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty source text: %w", domain.ErrInvalidInput)
	}

	s.track(ctx, sourceID, meta, domain.SourceStatusPending, 0)

	chunks := s.chunker.Split(sourceID, text)
	logger.Info("ingesting %s: %d chunks", sourceID, len(chunks))

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.setStatus(ctx, sourceID, domain.SourceStatusFailed, 0)
		return nil, fmt.Errorf("embedding source %s: %w", sourceID, err)
	}
	if len(embeddings) != len(chunks) {
		s.setStatus(ctx, sourceID, domain.SourceStatusFailed, 0)
		return nil, fmt.Errorf("embedding source %s: got %d vectors for %d chunks",
			sourceID, len(embeddings), len(chunks))
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = domain.VectorRecord{
			ID:        ch.RecordID(),
			Embedding: embeddings[i],
			Metadata: map[string]any{
				domain.MetaSourceID:    sourceID,
				domain.MetaTitle:       meta.Title,
				domain.MetaSourceURL:   meta.URL,
				domain.MetaCategory:    meta.Category,
				domain.MetaPublishedAt: meta.PublishedAt,
				domain.MetaChunkIndex:  ch.Index,
				domain.MetaTotalChunks: len(chunks),
				domain.MetaChunkText:   ch.Text,
			},
		}
	}

	if err := s.index.DeleteSource(ctx, sourceID); err != nil {
		s.setStatus(ctx, sourceID, domain.SourceStatusFailed, 0)
		return nil, fmt.Errorf("clearing previous records for %s: %w", sourceID, err)
	}
	if err := s.index.Upsert(ctx, records); err != nil {
		s.setStatus(ctx, sourceID, domain.SourceStatusFailed, 0)
		return nil, fmt.Errorf("upserting records for %s: %w", sourceID, err)
	}

	s.setStatus(ctx, sourceID, domain.SourceStatusIngested, len(records))

	return &domain.IngestReport{SourceID: sourceID, ChunkCount: len(records)}, nil
}

func (s *IngestService) track(ctx context.Context, sourceID string, meta domain.SourceMeta, status string, chunks int) {
	if s.catalog == nil {
		return
	}
	now := s.now()
	rec := &domain.SourceRecord{
		ID:         sourceID,
		Title:      meta.Title,
		URL:        meta.URL,
		Category:   meta.Category,
		Status:     status,
		ChunkCount: chunks,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.catalog.UpsertSource(ctx, rec); err != nil {
		logger.Warn("catalog upsert for %s failed: %v", sourceID, err)
	}
}

func (s *IngestService) setStatus(ctx context.Context, sourceID, status string, chunks int) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.SetStatus(ctx, sourceID, status, chunks); err != nil {
		logger.Warn("catalog status update for %s failed: %v", sourceID, err)
	}
}
