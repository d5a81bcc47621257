package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/corelog"
	"github.com/localcorpus/ragengine/internal/lexical"
	"github.com/localcorpus/ragengine/internal/store"
	"github.com/localcorpus/ragengine/internal/strategy"
)

// stubEmbedder assigns a fixed 2-D vector per chunk id / query text,
// standing in for the external embedder contract (spec §6) in tests.
type stubEmbedder struct {
	vectors map[string][]float64
}

func (e *stubEmbedder) ID() string        { return "stub" }
func (e *stubEmbedder) Dimension() int    { return 2 }
func (e *stubEmbedder) Normalized() bool  { return false }

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 0}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var _ strategy.Embedder = (*stubEmbedder)(nil)

func corpusChunks() []core.Chunk {
	return []core.Chunk{
		{ID: "d1-chunk-0", DocID: "d1", Text: "The quick brown fox jumps over the lazy dog"},
		{ID: "d2-chunk-0", DocID: "d2", Text: "Machine learning algorithms process data efficiently"},
		{ID: "d3-chunk-0", DocID: "d3", Text: "Lazy dogs sleep all day"},
	}
}

func TestLexicalRetrieverExactMatch(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	chunks := corpusChunks()[:2]
	r := NewLexicalRetriever(st, corelog.Nop())
	out, meta, err := r.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "d1-chunk-0", out[0].Chunk.ID)
	assert.Greater(t, out[0].Score, 0.0)
	assert.Equal(t, "lexical", meta["mode"])
}

func TestLexicalRetrieverReusesFreshSnapshot(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	chunks := corpusChunks()[:2]
	idx := lexical.Build(chunks)
	require.NoError(t, st.PutLexicalSnapshot(idx.ToSnapshot()))

	r := NewLexicalRetriever(st, corelog.Nop())
	out, _, err := r.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "d1-chunk-0", out[0].Chunk.ID)
}

func TestLexicalRetrieverRebuildsOnStaleSnapshot(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	stale := lexical.Build([]core.Chunk{{ID: "old-chunk", Text: "irrelevant content here"}})
	require.NoError(t, st.PutLexicalSnapshot(stale.ToSnapshot()))

	chunks := corpusChunks()[:2]
	r := NewLexicalRetriever(st, corelog.Nop())
	out, _, err := r.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "d1-chunk-0", out[0].Chunk.ID)

	snap, err := st.GetLexicalSnapshot()
	require.NoError(t, err)
	assert.Len(t, snap.ChunkOrder, 2)
}

func TestSemanticRetrieverRanksByCosine(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	chunks := []core.Chunk{
		{ID: "c1", DocID: "d1", Text: "about cats"},
		{ID: "c2", DocID: "d1", Text: "about dogs"},
	}
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "c1", Embedding: []float64{1, 0}}))
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "c2", Embedding: []float64{0, 1}}))

	embedder := &stubEmbedder{vectors: map[string][]float64{"cats please": {1, 0}}}
	r := NewSemanticRetriever(embedder, st, corelog.Nop())
	out, meta, err := r.Retrieve(context.Background(), "cats please", chunks, strategy.RetrieveConfig{TopK: 5})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].Chunk.ID)
	assert.Equal(t, "semantic", meta["mode"])
}

func TestHybridBoundaryMatchesPureLexicalAndSemantic(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	chunks := corpusChunks()
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "d1-chunk-0", Embedding: []float64{0, 1}}))
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "d2-chunk-0", Embedding: []float64{1, 0}}))
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "d3-chunk-0", Embedding: []float64{1, 0}}))

	embedder := &stubEmbedder{vectors: map[string][]float64{"lazy dog": {0, 1}}}
	lexR := NewLexicalRetriever(st, corelog.Nop())
	semR := NewSemanticRetriever(embedder, st, corelog.Nop())
	hybridR := NewHybridRetriever(lexR, semR, corelog.Nop())

	lexOut, _, err := lexR.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 3})
	require.NoError(t, err)
	require.NotEmpty(t, lexOut)
	hybridZero, _, err := hybridR.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 3, Alpha: 0})
	require.NoError(t, err)
	require.NotEmpty(t, hybridZero)
	assert.Equal(t, lexOut[0].Chunk.ID, hybridZero[0].Chunk.ID, "alpha=0 top result must match pure lexical order")

	semOut, _, err := semR.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 3})
	require.NoError(t, err)
	require.NotEmpty(t, semOut)
	hybridOne, _, err := hybridR.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 3, Alpha: 1})
	require.NoError(t, err)
	require.NotEmpty(t, hybridOne)
	assert.Equal(t, semOut[0].Chunk.ID, hybridOne[0].Chunk.ID, "alpha=1 top result must match pure semantic order")
}

func TestHybridExcludesD2(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	chunks := corpusChunks()
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "d1-chunk-0", Embedding: []float64{0, 1}}))
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "d2-chunk-0", Embedding: []float64{1, 0}}))
	require.NoError(t, st.PutVector(core.Vector{ChunkID: "d3-chunk-0", Embedding: []float64{0, 0.9}}))

	embedder := &stubEmbedder{vectors: map[string][]float64{"lazy dog": {0, 1}}}
	lexR := NewLexicalRetriever(st, corelog.Nop())
	semR := NewSemanticRetriever(embedder, st, corelog.Nop())
	hybridR := NewHybridRetriever(lexR, semR, corelog.Nop())

	out, _, err := hybridR.Retrieve(context.Background(), "lazy dog", chunks, strategy.RetrieveConfig{TopK: 3, Alpha: 0.5})
	require.NoError(t, err)
	scores := make(map[string]float64, len(out))
	for _, sc := range out {
		scores[sc.Chunk.ID] = sc.Score
	}
	// D2 is either absent from the fused ranking or present with a
	// non-positive score, per spec's S2 scenario contract.
	d2Score, d2Present := scores["d2-chunk-0"]
	assert.True(t, !d2Present || d2Score <= 0)
	assert.Greater(t, scores["d1-chunk-0"], d2Score)
	assert.Greater(t, scores["d3-chunk-0"], d2Score)
}
