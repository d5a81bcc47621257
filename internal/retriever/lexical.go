// Package retriever implements the three strategy.Retriever variants spec
// §4.6/§9 name — lexical, semantic, hybrid — each resolved by id through
// the capability registry described in internal/registry. The teacher had
// no retriever abstraction of its own: service.RAGServiceImpl.Query called
// a fixed semantic-then-keyword-filter path (service/rag_service.go); this
// package generalizes that into three independently selectable strategies
// wired against internal/lexical, internal/vectorindex, and internal/fusion.
package retriever

import (
	"context"
	"fmt"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/corelog"
	"github.com/localcorpus/ragengine/internal/lexical"
	"github.com/localcorpus/ragengine/internal/rerr"
	"github.com/localcorpus/ragengine/internal/store"
	"github.com/localcorpus/ragengine/internal/strategy"
)

func chunkByID(chunks []core.Chunk) map[string]core.Chunk {
	m := make(map[string]core.Chunk, len(chunks))
	for _, c := range chunks {
		m[c.ID] = c
	}
	return m
}

func chunkIDSet(chunks []core.Chunk) map[string]struct{} {
	m := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		m[c.ID] = struct{}{}
	}
	return m
}

// snapshotMatches reports whether a persisted lexical snapshot's chunk set
// is exactly the caller-supplied chunk set, the condition under which the
// snapshot is Fresh rather than Stale (spec §5).
func snapshotMatches(snap store.LexicalSnapshot, chunks []core.Chunk) bool {
	if len(snap.ChunkOrder) != len(chunks) {
		return false
	}
	want := chunkIDSet(chunks)
	for _, id := range snap.ChunkOrder {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}

// LexicalRetriever resolves the BM25 ranker, reusing a Fresh persisted
// snapshot when the supplied chunk set matches it and otherwise rebuilding
// (and re-persisting) from scratch — the lazy-rebuild-on-Absent/Stale rule
// from spec §5.
type LexicalRetriever struct {
	store *store.Store
	log   corelog.Logger
}

// NewLexicalRetriever constructs the lexical retriever strategy.
func NewLexicalRetriever(st *store.Store, log corelog.Logger) *LexicalRetriever {
	if log == nil {
		log = corelog.Nop()
	}
	return &LexicalRetriever{store: st, log: log}
}

func (r *LexicalRetriever) ID() string   { return "lexical" }
func (r *LexicalRetriever) Name() string { return "Lexical (BM25)" }

func (r *LexicalRetriever) RequiresEmbeddings() bool { return false }

func (r *LexicalRetriever) ConfigSchema() strategy.ConfigSchema {
	return strategy.ConfigSchema{"topK": "int"}
}

func (r *LexicalRetriever) resolveIndex(chunks []core.Chunk) (*lexical.Index, error) {
	snap, err := r.store.GetLexicalSnapshot()
	if err == nil && snapshotMatches(snap, chunks) {
		return lexical.FromSnapshot(snap), nil
	}
	idx := lexical.Build(chunks)
	if putErr := r.store.PutLexicalSnapshot(idx.ToSnapshot()); putErr != nil {
		r.log.Warn("lexical retriever: failed to persist rebuilt snapshot", "err", putErr)
	}
	return idx, nil
}

// Retrieve runs BM25 search over the chunk set, self-healing the persisted
// snapshot when it is Absent or Stale before scoring.
func (r *LexicalRetriever) Retrieve(_ context.Context, query string, chunks []core.Chunk, cfg strategy.RetrieveConfig) ([]core.ScoredChunk, strategy.RetrieveMetadata, error) {
	idx, err := r.resolveIndex(chunks)
	if err != nil {
		return nil, nil, rerr.Wrap(rerr.KindConsistency, fmt.Errorf("lexical retriever: resolve index: %w", err))
	}
	raw := idx.Search(query, cfg.TopK)
	byID := chunkByID(chunks)
	out := make([]core.ScoredChunk, 0, len(raw))
	for _, r := range raw {
		out = append(out, core.ScoredChunk{Chunk: byID[r.Chunk.ID], Score: r.Score})
	}
	meta := strategy.RetrieveMetadata{"mode": "lexical", "indexSize": idx.N()}
	return out, meta, nil
}
