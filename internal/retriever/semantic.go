package retriever

import (
	"context"
	"fmt"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/corelog"
	"github.com/localcorpus/ragengine/internal/rerr"
	"github.com/localcorpus/ragengine/internal/store"
	"github.com/localcorpus/ragengine/internal/strategy"
	"github.com/localcorpus/ragengine/internal/vectorindex"
)

// SemanticRetriever embeds the query with the configured strategy.Embedder
// and ranks the persisted vector set by cosine similarity (C5). It is
// stateless across calls by design: the vector set is small enough for a
// local corpus that a fresh load per query is cheaper than tracking
// invalidation, matching the teacher's vectorstore/memory approach of
// rebuilding its internal slice from whatever is upserted.
type SemanticRetriever struct {
	embedder strategy.Embedder
	store    *store.Store
	log      corelog.Logger
}

// NewSemanticRetriever constructs the dense vector retriever strategy.
func NewSemanticRetriever(embedder strategy.Embedder, st *store.Store, log corelog.Logger) *SemanticRetriever {
	if log == nil {
		log = corelog.Nop()
	}
	return &SemanticRetriever{embedder: embedder, store: st, log: log}
}

func (r *SemanticRetriever) ID() string   { return "semantic" }
func (r *SemanticRetriever) Name() string { return "Semantic (vector)" }

func (r *SemanticRetriever) RequiresEmbeddings() bool { return true }

func (r *SemanticRetriever) ConfigSchema() strategy.ConfigSchema {
	return strategy.ConfigSchema{"topK": "int"}
}

// Retrieve embeds query, loads every persisted vector, and ranks by cosine
// similarity. Chunks are hydrated from the supplied chunk slice, not the
// store, keeping this stage consistent with the chunk set the caller
// captured at query start (spec §5's "borrows immutably from the store"
// rule for query-time reads).
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, chunks []core.Chunk, cfg strategy.RetrieveConfig) ([]core.ScoredChunk, strategy.RetrieveMetadata, error) {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, nil, rerr.Wrap(rerr.KindTransient, fmt.Errorf("semantic retriever: embed query: %w", err))
	}
	vectors, err := r.store.ListAllVectors()
	if err != nil {
		return nil, nil, rerr.Wrap(rerr.KindTransient, fmt.Errorf("semantic retriever: load vectors: %w", err))
	}
	idx := vectorindex.New(r.embedder.Dimension(), r.log)
	idx.Load(vectors)
	raw := idx.Search(queryVec, cfg.TopK)
	byID := chunkByID(chunks)
	out := make([]core.ScoredChunk, 0, len(raw))
	for _, sc := range raw {
		chunk, ok := byID[sc.Chunk.ID]
		if !ok {
			// A vector referencing a chunk outside the caller's chunk set:
			// the chunk was deleted after the vector was written. Skip it
			// rather than surfacing a half-populated Chunk.
			continue
		}
		out = append(out, core.ScoredChunk{Chunk: chunk, Score: sc.Score})
	}
	meta := strategy.RetrieveMetadata{"mode": "semantic", "indexSize": idx.Len(), "embedder": r.embedder.ID()}
	return out, meta, nil
}
