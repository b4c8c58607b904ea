// Package mock provides a deterministic fake embedding service. It is
// selected only when the configuration names it explicitly; nothing in
// the wiring falls back to it when a real provider misbehaves.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/meridian-labs/briefing/internal/core/ports/driven"
	"github.com/meridian-labs/briefing/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions matches text-embedding-3-small so the mock can
// stand in front of an index created for the real provider.
const DefaultDimensions = 1536

// EmbeddingService produces pseudo-random unit vectors seeded by the
// input text. The same text always embeds to the same vector, so
// retrieval tests are repeatable, but the vectors carry no semantics.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a mock embedding service. A non-positive
// dimensions falls back to DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	logger.Warn("using mock embeddings (%d dims): retrieval quality will be meaningless", dimensions)
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the deterministic vector for text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return s.vectorFor(text), nil
}

// EmbedBatch embeds each text independently.
func (s *EmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = s.vectorFor(text)
	}
	return out, nil
}

func (s *EmbeddingService) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, s.dimensions)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName identifies the mock.
func (s *EmbeddingService) ModelName() string {
	return "mock"
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
