// Package fusion implements per-ranker min-max normalization and the
// convex-combination hybrid score from spec §4.5. The teacher had no
// equivalent stage — its "hybrid" mode (rag.RetrieveHybrid in
// james-see-dream-ai/internal/rag/retriever.go) ran semantic search then
// filtered by keyword containment rather than fusing two independently
// normalized rankings. This package also borrows the general shape of a
// dedicated fusion engine from other_examples/Aman-CERP-amanmcp__engine.go
// (a fusion type holding per-ranker results), reimplemented around the
// spec's convex combination rather than that file's reciprocal-rank
// fusion.
package fusion

import (
	"sort"

	"github.com/localcorpus/ragengine/internal/core"
)

// Normalize performs min-max scaling of scores to [0,1] over the *full*
// result set. If every score is equal, every chunk maps to 1.0 (the
// normalization fixed point, spec §8).
func Normalize(results []core.ScoredChunk) map[string]float64 {
	out := make(map[string]float64, len(results))
	if len(results) == 0 {
		return out
	}
	min, max := results[0].Score, results[0].Score
	for _, r := range results {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}
	for _, r := range results {
		if max == min {
			out[r.Chunk.ID] = 1.0
			continue
		}
		out[r.Chunk.ID] = (r.Score - min) / (max - min)
	}
	return out
}

// Fused is one chunk's fusion-stage bookkeeping, kept internal to this
// package except for the final ranked slice fusion.Combine returns.
type Fused struct {
	ChunkID        string
	Final          float64
	LexicalNorm    float64
	SemanticNorm   float64
}

// Combine convex-combines normalized semantic and lexical scores with
// weight alpha (the "semantic weight"). Chunks present in only one
// ranker's result set contribute 0 for the missing side. Ties break by
// lexical-normalized score, then by chunk id (spec §4.5).
func Combine(semantic, lexical []core.ScoredChunk, alpha float64, chunkByID map[string]core.Chunk) []core.ScoredChunk {
	semNorm := Normalize(semantic)
	lexNorm := Normalize(lexical)

	ids := make(map[string]struct{}, len(semNorm)+len(lexNorm))
	for id := range semNorm {
		ids[id] = struct{}{}
	}
	for id := range lexNorm {
		ids[id] = struct{}{}
	}

	fused := make([]Fused, 0, len(ids))
	for id := range ids {
		s := semNorm[id]
		l := lexNorm[id]
		fused = append(fused, Fused{
			ChunkID:      id,
			Final:        alpha*s + (1-alpha)*l,
			LexicalNorm:  l,
			SemanticNorm: s,
		})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Final != fused[j].Final {
			return fused[i].Final > fused[j].Final
		}
		if fused[i].LexicalNorm != fused[j].LexicalNorm {
			return fused[i].LexicalNorm > fused[j].LexicalNorm
		}
		return fused[i].ChunkID < fused[j].ChunkID
	})

	out := make([]core.ScoredChunk, 0, len(fused))
	for _, f := range fused {
		chunk := chunkByID[f.ChunkID]
		out = append(out, core.ScoredChunk{Chunk: chunk, Score: f.Final})
	}
	return out
}
