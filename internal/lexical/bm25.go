// Package lexical implements the BM25 ranking function from spec §4.3,
// replacing the teacher's fallback lexicalSearch (an Ochiai-coefficient
// token-overlap heuristic in service/rag_service.go, only ever invoked
// when the TF-IDF query vector was all-zero) with the exact, spec-mandated
// scoring formula, tokenized identically to internal/tokenizer.
package lexical

import (
	"math"
	"sort"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/store"
	"github.com/localcorpus/ragengine/internal/tokenizer"
)

const (
	k1 = 1.5
	b  = 0.75
)

// Index is an in-memory BM25 index built from a store.LexicalSnapshot.
type Index struct {
	df           map[string]int
	tf           map[string]map[string]int
	chunkOrder   []string
	chunkIndex   map[string]int // chunk id -> position in chunkOrder, for tie-break
	avgDocLength float64
	n            int
}

// Build constructs a fresh BM25 index over chunks. N = len(chunks);
// L_c (chunk length) is defined as Σ tf_c(t) over post-stopword tokens,
// the tf-sum definition spec §9's Open Question resolves on, not raw
// pre-stopword token count.
func Build(chunks []core.Chunk) *Index {
	idx := &Index{
		df:         make(map[string]int),
		tf:         make(map[string]map[string]int),
		chunkIndex: make(map[string]int, len(chunks)),
		n:          len(chunks),
	}
	var totalLength int
	for _, c := range chunks {
		tokens := tokenizer.Tokenize(c.Text)
		counts := make(map[string]int, len(tokens))
		for _, t := range tokens {
			counts[t]++
		}
		idx.tf[c.ID] = counts
		for t := range counts {
			idx.df[t]++
		}
		length := 0
		for _, cnt := range counts {
			length += cnt
		}
		totalLength += length
		idx.chunkIndex[c.ID] = len(idx.chunkOrder)
		idx.chunkOrder = append(idx.chunkOrder, c.ID)
	}
	if idx.n > 0 {
		idx.avgDocLength = float64(totalLength) / float64(idx.n)
	}
	return idx
}

// ToSnapshot flattens the index into its store-persistable form.
func (idx *Index) ToSnapshot() store.LexicalSnapshot {
	snap := store.LexicalSnapshot{
		DF:           make(map[string]int, len(idx.df)),
		TF:           make(map[string]store.TermFreq, len(idx.tf)),
		ChunkOrder:   append([]string(nil), idx.chunkOrder...),
		AvgDocLength: idx.avgDocLength,
	}
	for k, v := range idx.df {
		snap.DF[k] = v
	}
	for chunkID, counts := range idx.tf {
		c := make(map[string]int, len(counts))
		for k, v := range counts {
			c[k] = v
		}
		snap.TF[chunkID] = store.TermFreq{Counts: c}
	}
	return snap
}

// FromSnapshot rehydrates an Index from its persisted flattened form.
func FromSnapshot(snap store.LexicalSnapshot) *Index {
	idx := &Index{
		df:           make(map[string]int, len(snap.DF)),
		tf:           make(map[string]map[string]int, len(snap.TF)),
		chunkOrder:   append([]string(nil), snap.ChunkOrder...),
		chunkIndex:   make(map[string]int, len(snap.ChunkOrder)),
		avgDocLength: snap.AvgDocLength,
		n:            len(snap.ChunkOrder),
	}
	for k, v := range snap.DF {
		idx.df[k] = v
	}
	for chunkID, tf := range snap.TF {
		idx.tf[chunkID] = tf.Counts
	}
	for i, id := range idx.chunkOrder {
		idx.chunkIndex[id] = i
	}
	return idx
}

// N is the number of chunks the index was built over.
func (idx *Index) N() int { return idx.n }

// DF returns df(t) for a term, 0 if unseen.
func (idx *Index) DF(term string) int { return idx.df[term] }

// AvgDocLength returns the corpus average chunk length in tf-summed tokens.
func (idx *Index) AvgDocLength() float64 { return idx.avgDocLength }

func (idx *Index) idf(term string) float64 {
	dfT := float64(idx.df[term])
	n := float64(idx.n)
	return math.Log((n-dfT+0.5)/(dfT+0.5) + 1)
}

func (idx *Index) chunkLength(chunkID string) float64 {
	total := 0
	for _, c := range idx.tf[chunkID] {
		total += c
	}
	return float64(total)
}

// scoreChunk computes BM25 score(q, c) for one already-tokenized query.
func (idx *Index) scoreChunk(queryTokens []string, chunkID string) float64 {
	if idx.avgDocLength == 0 {
		return 0
	}
	tf := idx.tf[chunkID]
	lc := idx.chunkLength(chunkID)
	var score float64
	for _, t := range queryTokens {
		dfT := idx.df[t]
		if dfT == 0 {
			continue
		}
		tfT := float64(tf[t])
		if tfT == 0 {
			continue
		}
		idfT := idx.idf(t)
		denom := tfT + k1*(1-b+b*lc/idx.avgDocLength)
		score += idfT * tfT * (k1 + 1) / denom
	}
	return score
}

// Search scores every indexed chunk against query, drops zero scores,
// sorts descending with ties broken by the chunks' order in the index,
// and returns the top K.
func (idx *Index) Search(query string, topK int) []core.ScoredChunk {
	queryTokens := tokenizer.Tokenize(query)
	if len(queryTokens) == 0 || idx.n == 0 {
		return nil
	}
	type scored struct {
		chunkID string
		score   float64
	}
	results := make([]scored, 0, len(idx.chunkOrder))
	for _, id := range idx.chunkOrder {
		s := idx.scoreChunk(queryTokens, id)
		if s > 0 {
			results = append(results, scored{chunkID: id, score: s})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return idx.chunkIndex[results[i].chunkID] < idx.chunkIndex[results[j].chunkID]
	})
	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	out := make([]core.ScoredChunk, len(results))
	for i, r := range results {
		out[i] = core.ScoredChunk{Chunk: core.Chunk{ID: r.chunkID}, Score: r.score}
	}
	return out
}
