package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcorpus/ragengine/internal/core"
)

func TestSearchRanksByCosine(t *testing.T) {
	idx := New(2, nil)
	idx.Load([]core.Vector{
		{ChunkID: "c1", Embedding: []float64{1, 0}},
		{ChunkID: "c2", Embedding: []float64{0, 1}},
		{ChunkID: "c3", Embedding: []float64{0.9, 0.1}},
	})
	results := idx.Search([]float64{1, 0}, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "c2", results[2].Chunk.ID)
}

func TestDimensionMismatchSkipped(t *testing.T) {
	idx := New(2, nil)
	idx.Load([]core.Vector{
		{ChunkID: "ok", Embedding: []float64{1, 0}},
		{ChunkID: "bad", Embedding: []float64{1, 0, 0}},
	})
	assert.Equal(t, 1, idx.Len())
	results := idx.Search([]float64{1, 0}, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Chunk.ID)
}

func TestEmptyIndex(t *testing.T) {
	idx := New(3, nil)
	assert.Empty(t, idx.Search([]float64{1, 2, 3}, 5))
}

func TestTopKTruncation(t *testing.T) {
	idx := New(1, nil)
	idx.Load([]core.Vector{
		{ChunkID: "a", Embedding: []float64{1}},
		{ChunkID: "b", Embedding: []float64{1}},
		{ChunkID: "c", Embedding: []float64{1}},
	})
	assert.Len(t, idx.Search([]float64{1}, 2), 2)
}
