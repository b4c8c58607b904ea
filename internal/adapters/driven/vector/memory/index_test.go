package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

func record(id, sourceID string, vec []float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:        id,
		Embedding: vec,
		Metadata: map[string]any{
			domain.MetaSourceID: sourceID,
			domain.MetaTitle:    "Title " + id,
		},
	}
}

func TestQuery_RanksBySimilarity(t *testing.T) {
	idx := NewIndex(2)
	require.NoError(t, idx.Upsert(context.Background(), []domain.VectorRecord{
		record("exact", "a", []float32{1, 0}),
		record("close", "a", []float32{0.9, 0.1}),
		record("orthogonal", "a", []float32{0, 1}),
	}))

	res, err := idx.Query(context.Background(), []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, res.Matches, 3)
	assert.Equal(t, "exact", res.Matches[0].VectorID)
	assert.Equal(t, "close", res.Matches[1].VectorID)
	assert.Equal(t, "orthogonal", res.Matches[2].VectorID)
	assert.InDelta(t, 1.0, res.Matches[0].Score, 1e-6)
	assert.InDelta(t, 0.0, res.Matches[2].Score, 1e-6)
}

func TestQuery_TopKBound(t *testing.T) {
	idx := NewIndex(2)
	var records []domain.VectorRecord
	for i := 0; i < 10; i++ {
		records = append(records, record(fmt.Sprintf("r%d", i), "a", []float32{1, float32(i)}))
	}
	require.NoError(t, idx.Upsert(context.Background(), records))

	res, err := idx.Query(context.Background(), []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
}

func TestQuery_Filter(t *testing.T) {
	idx := NewIndex(2)
	require.NoError(t, idx.Upsert(context.Background(), []domain.VectorRecord{
		record("a1", "alpha", []float32{1, 0}),
		record("b1", "beta", []float32{1, 0}),
	}))

	filter := domain.Filter{domain.MetaSourceID: {"beta"}}
	res, err := idx.Query(context.Background(), []float32{1, 0}, 10, filter)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "b1", res.Matches[0].VectorID)
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx := NewIndex(0)
	res, err := idx.Query(context.Background(), []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}

func TestUpsert_ReplacesByID(t *testing.T) {
	idx := NewIndex(2)
	require.NoError(t, idx.Upsert(context.Background(), []domain.VectorRecord{
		record("same", "a", []float32{1, 0}),
	}))
	require.NoError(t, idx.Upsert(context.Background(), []domain.VectorRecord{
		record("same", "a", []float32{0, 1}),
	}))

	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalVectorCount)

	res, err := idx.Query(context.Background(), []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.InDelta(t, 1.0, res.Matches[0].Score, 1e-6)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	idx := NewIndex(2)
	err := idx.Upsert(context.Background(), []domain.VectorRecord{
		record("bad", "a", []float32{1, 2, 3}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestQuery_DimensionMismatch(t *testing.T) {
	idx := NewIndex(2)
	require.NoError(t, idx.Upsert(context.Background(), []domain.VectorRecord{
		record("r", "a", []float32{1, 0}),
	}))

	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestDeleteSource(t *testing.T) {
	idx := NewIndex(2)
	require.NoError(t, idx.Upsert(context.Background(), []domain.VectorRecord{
		record("a1", "alpha", []float32{1, 0}),
		record("a2", "alpha", []float32{0, 1}),
		record("b1", "beta", []float32{1, 1}),
	}))

	require.NoError(t, idx.DeleteSource(context.Background(), "alpha"))

	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalVectorCount)
}
