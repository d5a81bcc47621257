package retriever

import (
	"context"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/corelog"
	"github.com/localcorpus/ragengine/internal/fusion"
	"github.com/localcorpus/ragengine/internal/strategy"
)

// HybridRetriever fans a query out to the lexical and semantic retrievers,
// then fuses their rankings with internal/fusion's convex combination
// (C6). The teacher's closest analogue, rag.RetrieveHybrid in
// james-see-dream-ai/internal/rag/retriever.go, ran semantic search and
// then discarded results failing a keyword-containment check; this
// reimplements "hybrid" as the spec's independent-rankers-then-fuse rule.
type HybridRetriever struct {
	lexical  *LexicalRetriever
	semantic *SemanticRetriever
}

// NewHybridRetriever constructs the fused retriever strategy.
func NewHybridRetriever(lex *LexicalRetriever, sem *SemanticRetriever, log corelog.Logger) *HybridRetriever {
	return &HybridRetriever{lexical: lex, semantic: sem}
}

func (r *HybridRetriever) ID() string   { return "hybrid" }
func (r *HybridRetriever) Name() string { return "Hybrid (lexical + semantic)" }

func (r *HybridRetriever) RequiresEmbeddings() bool { return true }

func (r *HybridRetriever) ConfigSchema() strategy.ConfigSchema {
	return strategy.ConfigSchema{"topK": "int", "alpha": "float64"}
}

// Retrieve runs both rankers over their full, untruncated result sets,
// min-max normalizes each over that full set (spec §4.5 MUST: normalization
// over the full per-ranker set, not just the top-K, to avoid unstable
// fusion at the boundary), convex-combines with cfg.Alpha exactly as given
// (0 is pure lexical; no default is applied here), and truncates to
// cfg.TopK only after fusion.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, chunks []core.Chunk, cfg strategy.RetrieveConfig) ([]core.ScoredChunk, strategy.RetrieveMetadata, error) {
	poolCfg := strategy.RetrieveConfig{TopK: 0, Alpha: cfg.Alpha}

	lexResults, _, err := r.lexical.Retrieve(ctx, query, chunks, poolCfg)
	if err != nil {
		return nil, nil, err
	}
	semResults, _, err := r.semantic.Retrieve(ctx, query, chunks, poolCfg)
	if err != nil {
		return nil, nil, err
	}

	// cfg.Alpha is taken as-is: the orchestrator resolves QueryRequest's
	// AlphaSet against defaultAlpha before building RetrieveConfig, so an
	// incoming 0 here is the pure-lexical boundary (spec §8 S2), not "unset".
	byID := chunkByID(chunks)
	fused := fusion.Combine(semResults, lexResults, cfg.Alpha, byID)
	if cfg.TopK > 0 && cfg.TopK < len(fused) {
		fused = fused[:cfg.TopK]
	}
	meta := strategy.RetrieveMetadata{
		"mode":         "hybrid",
		"alpha":        cfg.Alpha,
		"lexicalSize":  len(lexResults),
		"semanticSize": len(semResults),
	}
	return fused, meta, nil
}
