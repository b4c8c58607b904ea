// Package memory provides an in-memory vector index. It is the
// zero-dependency default for local use and for tests; durability and
// scale come from the pgvector adapter.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force cosine similarity index guarded by a RWMutex.
// Records are keyed by id; upserting an existing id replaces it.
type Index struct {
	dimensions int

	mu      sync.RWMutex
	records map[string]domain.VectorRecord
}

// NewIndex creates an empty index. dimensions fixes the accepted
// vector size; zero disables the check until the first upsert.
func NewIndex(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		records:    make(map[string]domain.VectorRecord),
	}
}

// Upsert inserts or replaces records.
func (idx *Index) Upsert(_ context.Context, records []domain.VectorRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("record without id: %w", domain.ErrInvalidInput)
		}
		if idx.dimensions == 0 {
			idx.dimensions = len(rec.Embedding)
		}
		if len(rec.Embedding) != idx.dimensions {
			return fmt.Errorf("record %s has %d dims, index expects %d: %w",
				rec.ID, len(rec.Embedding), idx.dimensions, domain.ErrDimensionMismatch)
		}
		idx.records[rec.ID] = rec
	}
	return nil
}

// Query returns the topK most similar records, best first. Matches are
// scored by cosine similarity clamped to [0,1]; filter keys must all
// match (each against its allowed value set).
func (idx *Index) Query(_ context.Context, vector []float32, topK int, filter domain.Filter) (domain.RetrievalResult, error) {
	if topK <= 0 {
		return domain.RetrievalResult{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.dimensions != 0 && len(vector) != idx.dimensions {
		return domain.RetrievalResult{}, fmt.Errorf("query vector has %d dims, index expects %d: %w",
			len(vector), idx.dimensions, domain.ErrDimensionMismatch)
	}

	matches := make([]domain.Match, 0, len(idx.records))
	for _, rec := range idx.records {
		if !filter.Matches(rec.Metadata) {
			continue
		}
		matches = append(matches, domain.Match{
			VectorID: rec.ID,
			Score:    cosine(vector, rec.Embedding),
			Metadata: rec.Metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return domain.RetrievalResult{Matches: matches}, nil
}

// DeleteSource removes every record whose source_id metadata matches.
func (idx *Index) DeleteSource(_ context.Context, sourceID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for id, rec := range idx.records {
		if v, ok := rec.Metadata[domain.MetaSourceID].(string); ok && v == sourceID {
			delete(idx.records, id)
		}
	}
	return nil
}

// Stats reports the record count.
func (idx *Index) Stats(_ context.Context) (domain.IndexStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return domain.IndexStats{TotalVectorCount: len(idx.records)}, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// cosine returns the cosine similarity of a and b clamped to [0,1].
// Dissimilar (negative) directions score 0, so the result composes
// with a plain >= threshold.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
