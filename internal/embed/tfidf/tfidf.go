// Package tfidf adapts the teacher's embedding/tfidf.go vectorizer to the
// strategy.Embedder/Fittable contracts: a smoothed-IDF, L2-normalized
// bag-of-words embedder whose vocabulary (and therefore dimension) is
// rebuilt from the full chunk corpus on every ingest, mirroring C4's
// whole-corpus BM25 rebuild discipline rather than growing incrementally.
package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/localcorpus/ragengine/internal/strategy"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {}, "then": {},
	"else": {}, "for": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "by": {},
	"with": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "it": {}, "this": {}, "that": {}, "these": {}, "those": {}, "from": {},
}

// Embedder is a TF-IDF vectorizer: Fit builds the vocabulary and IDF table
// from a corpus; Embed/EmbedBatch score arbitrary text against it.
type Embedder struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	dimension  int
	ready      bool
}

// New constructs an unfit TF-IDF embedder.
func New() *Embedder {
	return &Embedder{vocabulary: make(map[string]int)}
}

func (e *Embedder) ID() string       { return "tfidf" }
func (e *Embedder) Normalized() bool { return true }

// Dimension returns the current vocabulary size, 0 before the first Fit.
func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

// Fit rebuilds the vocabulary and smoothed IDF table from texts,
// replacing whatever was fit before. Per spec §6 ("swapping an embedder
// MUST invalidate all stored vectors"), a dimension change after Fit
// requires the caller to re-embed and re-persist every vector — Fit
// itself only updates this embedder's internal state.
func (e *Embedder) Fit(_ context.Context, texts []string) error {
	if len(texts) == 0 {
		return errors.New("tfidf: empty corpus for fit")
	}
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("tfidf: no tokens found in corpus")
	}

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	e.mu.Lock()
	e.vocabulary = vocabulary
	e.idf = idf
	e.dimension = len(terms)
	e.ready = true
	e.mu.Unlock()
	return nil
}

// Embed computes the L2-normalized TF-IDF vector for text against the
// currently fit vocabulary.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ready {
		return nil, errors.New("tfidf: embedder not fit")
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize(text) {
		idx, ok := e.vocabulary[tok]
		if !ok {
			continue
		}
		tf[idx]++
		total++
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * e.idf[idx]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds every text independently against the current vocabulary.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
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

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, isStop := stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

var (
	_ strategy.Embedder = (*Embedder)(nil)
	_ strategy.Fittable = (*Embedder)(nil)
)
