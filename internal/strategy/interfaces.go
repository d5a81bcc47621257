// Package strategy declares the small fixed set of capability interfaces —
// Chunker, Embedder, Retriever, Generator, PostProcessor — that the
// pluggable pipeline composes, generalizing the teacher's single
// domain.Chunker/Embedder/VectorStore/Summarizer set (internal/domain in
// kxddry-rag-text-search) to the five named registries spec §4.6/§9 call
// for. Each capability is realized as a tagged variant (an id-returning
// implementation of the interface) held in a Registry.
package strategy

import (
	"context"

	"github.com/localcorpus/ragengine/internal/core"
)

// ConfigSchema is a free-form description of a strategy's configuration
// shape, exposed for introspection; callers are not required to validate
// against it beyond what the strategy itself enforces.
type ConfigSchema map[string]any

// Chunker splits a document's pages into chunks.
type Chunker interface {
	ID() string
	Chunk(pages []core.Page) []core.Chunk
}

// Embedder converts free text into a numeric vector representation and
// advertises its output dimension and normalization contract.
type Embedder interface {
	ID() string
	Dimension() int
	Normalized() bool
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Fittable is an optional capability some embedders implement: a
// corpus-wide fit pass the orchestrator runs before EmbedBatch at ingest
// time. Vocabulary-based embedders (e.g. tfidf) need this; fixed-model
// embedders (e.g. an Ollama-backed one) do not and simply don't implement
// it — callers discover it with a type assertion.
type Fittable interface {
	Fit(ctx context.Context, texts []string) error
}

// Retriever produces ranked (chunk, score) pairs for a query. It declares
// no index-build or readiness method; an implementation prepares whatever
// it needs inside Retrieve (e.g. the lexical retriever rebuilds its
// snapshot lazily from the store).
type Retriever interface {
	ID() string
	Name() string
	RequiresEmbeddings() bool
	ConfigSchema() ConfigSchema
	Retrieve(ctx context.Context, query string, chunks []core.Chunk, cfg RetrieveConfig) ([]core.ScoredChunk, RetrieveMetadata, error)
}

// RetrieveConfig carries the merged per-call retrieval configuration.
type RetrieveConfig struct {
	TopK  int
	Alpha float64
}

// RetrieveMetadata is diagnostic information a retriever may attach to
// its result for the event log.
type RetrieveMetadata map[string]any

// Generator produces a generated answer from the top chunks and question.
type Generator interface {
	ID() string
	Generate(ctx context.Context, question string, chunks []core.Chunk) (answer string, metadata map[string]any, err error)
}

// PostProcessor best-effort rewrites a generated answer. A failing
// PostProcessor must never be fatal to the query (spec §7).
type PostProcessor interface {
	ID() string
	Process(ctx context.Context, answer, question string, chunks []core.Chunk) (string, error)
}
