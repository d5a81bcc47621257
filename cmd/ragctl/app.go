package main

import (
	"github.com/localcorpus/ragengine/internal/chunker"
	"github.com/localcorpus/ragengine/internal/compose"
	"github.com/localcorpus/ragengine/internal/config"
	"github.com/localcorpus/ragengine/internal/corelog"
	"github.com/localcorpus/ragengine/internal/embed/ollama"
	"github.com/localcorpus/ragengine/internal/embed/tfidf"
	"github.com/localcorpus/ragengine/internal/extract"
	"github.com/localcorpus/ragengine/internal/generate"
	"github.com/localcorpus/ragengine/internal/pipeline"
	"github.com/localcorpus/ragengine/internal/registry"
	"github.com/localcorpus/ragengine/internal/rerr"
	"github.com/localcorpus/ragengine/internal/retriever"
	"github.com/localcorpus/ragengine/internal/store"
	"github.com/localcorpus/ragengine/internal/strategy"
)

// exitCodeFor maps a failed ingest/query call to one of spec §6's exit
// codes. rerr.KindProgrammer means the failure is a wiring/config problem
// (an unknown strategy id, a violated invariant) rather than a bad
// ingest/query at the data layer, so it takes the config exit code instead
// of the caller's default operation-failure code.
func exitCodeFor(err error, operationFailureCode int) int {
	if rerr.KindOf(err) == rerr.KindProgrammer {
		return exitConfigError
	}
	return operationFailureCode
}

// buildEngine opens the object store at dbPath, loads the persisted
// RAGConfig (or defaults), registers every strategy family, and returns a
// ready pipeline.Engine. The caller owns closing the returned store.
func buildEngine(dbPath string) (*pipeline.Engine, *store.Store, error) {
	log := corelog.New(corelog.DefaultConfig())

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(st)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	chunkers := registry.New[strategy.Chunker]()
	chunkers.Register(chunker.New(chunker.Config{
		ChunkSize:      cfg.Chunker.ChunkSize,
		OverlapPercent: cfg.Chunker.OverlapPercent,
	}))

	embedders := registry.New[strategy.Embedder]()
	tfidfEmbedder := tfidf.New()
	embedders.Register(tfidfEmbedder)
	// ollama.Embedder.ID() is "ollama:<model>", so selecting it from
	// config requires Embedder.Strategy to name the full id, e.g.
	// "ollama:nomic-embed-text" — distinct models register as distinct ids.
	ollamaEmbedder := ollama.New(ollama.Config{})
	embedders.Register(ollamaEmbedder)

	selectedEmbedder, ok := embedders.Get(cfg.Embedder.Strategy)
	if !ok {
		selectedEmbedder = tfidfEmbedder
	}

	lex := retriever.NewLexicalRetriever(st, log)
	sem := retriever.NewSemanticRetriever(selectedEmbedder, st, log)
	hyb := retriever.NewHybridRetriever(lex, sem, log)
	retrievers := registry.New[strategy.Retriever]()
	retrievers.Register(lex)
	retrievers.Register(sem)
	retrievers.Register(hyb)

	genClient := generate.NewClient(generate.Config{})
	generators := registry.New[strategy.Generator]()
	generators.Register(compose.New(cfg.Generation.MaxTokens))
	generators.Register(generate.NewGenerator(genClient))

	postProcessors := registry.New[strategy.PostProcessor]()
	postProcessors.Register(generate.NewPolish(genClient))

	regs := pipeline.Registries{
		Chunkers:       chunkers,
		Embedders:      embedders,
		Retrievers:     retrievers,
		Generators:     generators,
		PostProcessors: postProcessors,
	}

	eng, err := pipeline.New(st, extract.New(log), regs, cfg, log)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return eng, st, nil
}
