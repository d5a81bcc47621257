package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcorpus/ragengine/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDocRoundtrip(t *testing.T) {
	s := newTestStore(t)
	d := core.Doc{ID: "d1", Name: "a.txt", Kind: core.DocKindTXT, UploadedAt: time.Now()}
	require.NoError(t, s.PutDoc(d))
	got, err := s.GetDoc("d1")
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)

	docs, err := s.ListDocs()
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDeleteDocCascades(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutDoc(core.Doc{ID: "d1", Name: "a.txt"}))
	require.NoError(t, s.PutChunk(core.Chunk{ID: "d1-chunk-0", DocID: "d1", Text: "hello"}))
	require.NoError(t, s.PutVector(core.Vector{ChunkID: "d1-chunk-0", Embedding: []float64{1, 2}}))
	require.NoError(t, s.PutBlob("d1", []byte("raw")))

	require.NoError(t, s.DeleteDoc("d1"))

	_, err := s.GetDoc("d1")
	assert.ErrorIs(t, err, ErrNotFound)
	chunks, err := s.ListChunksByDoc("d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	_, err = s.GetVector("d1-chunk-0")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetBlob("d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChunksByDocIsolated(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutChunk(core.Chunk{ID: "d1-chunk-0", DocID: "d1", Text: "a"}))
	require.NoError(t, s.PutChunk(core.Chunk{ID: "d2-chunk-0", DocID: "d2", Text: "b"}))

	all, err := s.ListAllChunks()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	d1chunks, err := s.ListChunksByDoc("d1")
	require.NoError(t, err)
	require.Len(t, d1chunks, 1)
	assert.Equal(t, "d1-chunk-0", d1chunks[0].ID)
}

func TestLexicalSnapshotRoundtrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetLexicalSnapshot()
	assert.ErrorIs(t, err, ErrNotFound)

	snap := LexicalSnapshot{
		DF:           map[string]int{"fox": 1},
		TF:           map[string]TermFreq{"c1": {Counts: map[string]int{"fox": 1}}},
		ChunkOrder:   []string{"c1"},
		AvgDocLength: 3.0,
	}
	require.NoError(t, s.PutLexicalSnapshot(snap))
	got, err := s.GetLexicalSnapshot()
	require.NoError(t, err)
	assert.Equal(t, snap.AvgDocLength, got.AvgDocLength)
	assert.Equal(t, snap.ChunkOrder, got.ChunkOrder)
}

func TestMetaRoundtrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMeta("sample-seeded")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.SetMeta("sample-seeded", "true"))
	v, err := s.GetMeta("sample-seeded")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestResetClearsEverything(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutDoc(core.Doc{ID: "d1"}))
	require.NoError(t, s.PutChunk(core.Chunk{ID: "d1-chunk-0", DocID: "d1"}))
	require.NoError(t, s.SetMeta("sample-seeded", "true"))
	require.NoError(t, s.Reset())

	docs, err := s.ListDocs()
	require.NoError(t, err)
	assert.Empty(t, docs)
	_, err = s.GetMeta("sample-seeded")
	assert.ErrorIs(t, err, ErrNotFound)
}
