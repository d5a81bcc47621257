// Package vectorindex implements the brute-force cosine-similarity search
// over store-persisted vectors (C5), adapted from the teacher's
// vectorstore/memory/memory.go in-memory Storage — it keeps that file's
// dot-product-plus-argsort shape but drops the "vectors assumed
// L2-normalized" shortcut in favor of the full dot(a,b)/(|a|*|b|) formula
// spec §4.4 requires when the configured embedder does not guarantee
// normalization, and adds dimension-mismatch skip-with-warning instead of
// the teacher's hard length-mismatch error on upsert.
package vectorindex

import (
	"math"
	"sort"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/corelog"
)

// Entry is one persisted vector paired with its owning chunk id.
type Entry struct {
	ChunkID   string
	Embedding []float64
}

// Index is an in-memory brute-force cosine similarity searcher. Build is
// idempotent and restartable by construction: callers decide which chunks
// still need embedding (via store.HasVector) before calling Load.
type Index struct {
	dimension int
	entries   []Entry
	log       corelog.Logger
}

// New constructs an empty index for the given embedder dimension.
func New(dimension int, log corelog.Logger) *Index {
	if log == nil {
		log = corelog.Nop()
	}
	return &Index{dimension: dimension, log: log}
}

// Load populates the index from persisted vectors, skipping (and logging
// a warning for) any whose dimension does not match the configured
// embedder dimension, per spec §4.4's failure contract.
func (idx *Index) Load(vectors []core.Vector) {
	idx.entries = idx.entries[:0]
	for _, v := range vectors {
		if len(v.Embedding) != idx.dimension {
			idx.log.Warn("vectorindex: dimension mismatch, skipping chunk",
				"chunkId", v.ChunkID, "got", len(v.Embedding), "want", idx.dimension)
			continue
		}
		idx.entries = append(idx.entries, Entry{ChunkID: v.ChunkID, Embedding: v.Embedding})
	}
}

// Dimension returns the configured embedder dimension.
func (idx *Index) Dimension() int { return idx.dimension }

// Len returns the number of loaded, dimension-valid vectors.
func (idx *Index) Len() int { return len(idx.entries) }

// Search ranks every loaded vector by cosine similarity to query and
// returns the top K scored chunk ids (hydration into full core.Chunk is
// the caller's responsibility, matching the lexical index's contract).
func (idx *Index) Search(query []float64, topK int) []core.ScoredChunk {
	if len(idx.entries) == 0 {
		return nil
	}
	type scored struct {
		chunkID string
		score   float64
	}
	results := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		results = append(results, scored{chunkID: e.ChunkID, score: cosine(query, e.Embedding)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	out := make([]core.ScoredChunk, len(results))
	for i, r := range results {
		out[i] = core.ScoredChunk{Chunk: core.Chunk{ID: r.chunkID}, Score: r.score}
	}
	return out
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
