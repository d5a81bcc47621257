// Package pipeline implements the orchestrator (C8): the single engine
// value that owns the live RAGConfig, the five capability registries, the
// object store, and the latency/event-log observables, and sequences
// Ingest and Query exactly per spec §4.7. It generalizes the teacher's
// service/rag_service.go RAGService (one concrete Qdrant+OpenAI+frequency
// pipeline) into a registry-driven orchestrator that resolves every stage
// by configured strategy id instead of hard-wiring one implementation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localcorpus/ragengine/internal/config"
	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/corelog"
	"github.com/localcorpus/ragengine/internal/eventlog"
	"github.com/localcorpus/ragengine/internal/extract"
	"github.com/localcorpus/ragengine/internal/latency"
	"github.com/localcorpus/ragengine/internal/lexical"
	"github.com/localcorpus/ragengine/internal/registry"
	"github.com/localcorpus/ragengine/internal/rerr"
	"github.com/localcorpus/ragengine/internal/sample"
	"github.com/localcorpus/ragengine/internal/store"
	"github.com/localcorpus/ragengine/internal/strategy"
	"github.com/localcorpus/ragengine/internal/summarize"
)

const chatGenerationChunkCount = 5
const defaultAlpha = 0.5

// Registries bundles the five capability registries an Engine resolves
// strategies from, one per spec §4.6 variant family.
type Registries struct {
	Chunkers       *registry.Registry[strategy.Chunker]
	Embedders      *registry.Registry[strategy.Embedder]
	Retrievers     *registry.Registry[strategy.Retriever]
	Generators     *registry.Registry[strategy.Generator]
	PostProcessors *registry.Registry[strategy.PostProcessor]
}

// Engine is the orchestrator: a single value parameter owned by the
// caller (spec §9), wrapping the object store and every pluggable
// strategy family behind Ingest/Query/Reset.
type Engine struct {
	store      *store.Store
	extractor  extract.Extractor
	registries Registries
	cfg        config.RAGConfig
	log        corelog.Logger
	events     *eventlog.Log
	latency    *latency.Tracker
	summarizer *summarize.Summarizer
	nextQuery  int
}

// New constructs an Engine. cfg is validated against regs immediately;
// an invalid selection is a Programmer-kind error per spec §7.
func New(st *store.Store, ext extract.Extractor, regs Registries, cfg config.RAGConfig, log corelog.Logger) (*Engine, error) {
	if log == nil {
		log = corelog.Nop()
	}
	e := &Engine{
		store:      st,
		extractor:  ext,
		registries: regs,
		cfg:        cfg,
		log:        log,
		events:     eventlog.New(),
		latency:    latency.New(latency.DefaultCapacity),
		summarizer: summarize.New(),
	}
	if err := e.validateConfig(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Events exposes the engine's event log for subscription.
func (e *Engine) Events() *eventlog.Log { return e.events }

// Latency exposes the engine's latency tracker.
func (e *Engine) Latency() *latency.Tracker { return e.latency }

// Config returns the engine's current RAGConfig.
func (e *Engine) Config() config.RAGConfig { return e.cfg }

// SetConfig validates and replaces the live config.
func (e *Engine) SetConfig(cfg config.RAGConfig) error {
	if err := e.validateConfig(cfg); err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

// validateConfig checks every referenced strategy id resolves in its
// registry, per spec §4.7's "validateConfig checks every referenced id is
// present in its registry."
func (e *Engine) validateConfig(cfg config.RAGConfig) error {
	if cfg.Embedder.Strategy != "" && !e.registries.Embedders.Has(cfg.Embedder.Strategy) {
		return rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("unknown embedder strategy %q", cfg.Embedder.Strategy))
	}
	if !e.registries.Retrievers.Has(cfg.Retrieval.Mode) {
		return rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("unknown retrieval mode %q", cfg.Retrieval.Mode))
	}
	if cfg.Generation.Generator != "" && !e.registries.Generators.Has(cfg.Generation.Generator) {
		return rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("unknown generator %q", cfg.Generation.Generator))
	}
	if cfg.Generation.Polish && cfg.Generation.PostProcessor != "" && !e.registries.PostProcessors.Has(cfg.Generation.PostProcessor) {
		return rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("unknown post-processor %q", cfg.Generation.PostProcessor))
	}
	return nil
}

// Ingest runs the full ingestion pipeline for one file, per spec §4.7
// steps 1-7. onProgress is called with a value in [0,1] as ingestion
// advances; a nil onProgress is a no-op. A failure at any persisted-write
// step leaves prior writes in place (spec §5 cancellation semantics) and
// returns a classified error.
func (e *Engine) Ingest(ctx context.Context, name string, kind core.DocKind, blob []byte, onProgress func(float64)) (core.Doc, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	pages := e.extractor.Extract(name, kind, blob)
	if len(pages) == 0 {
		return core.Doc{}, rerr.Wrap(rerr.KindInput, fmt.Errorf("no extractable content in %q", name))
	}

	doc := core.Doc{
		ID:         docID(name),
		Name:       name,
		Kind:       kind,
		ByteSize:   len(blob),
		UploadedAt: eventTimestamp(),
	}
	for i := range pages {
		pages[i].DocID = doc.ID
	}

	if err := e.store.PutDoc(doc); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}
	onProgress(0.1)

	if kind == core.DocKindPDF {
		if err := e.store.PutBlob(doc.ID, blob); err != nil {
			return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
		}
	}
	onProgress(0.2)

	chunker, ok := e.registries.Chunkers.Get("sliding-window")
	if !ok {
		return core.Doc{}, rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("no chunker registered"))
	}
	chunks := chunker.Chunk(pages)
	if err := e.store.PutChunks(chunks); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}
	doc.Status.Parsed = true
	if err := e.store.PutDoc(doc); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}
	onProgress(0.4)

	embedder, ok := e.registries.Embedders.Get(e.cfg.Embedder.Strategy)
	if !ok {
		return core.Doc{}, rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("unknown embedder strategy %q", e.cfg.Embedder.Strategy))
	}
	allChunks, err := e.store.ListAllChunks()
	if err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}
	if fittable, ok := embedder.(strategy.Fittable); ok {
		texts := make([]string, len(allChunks))
		for i, c := range allChunks {
			texts[i] = c.Text
		}
		if err := fittable.Fit(ctx, texts); err != nil {
			return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
		}
		// Fit replaced the vocabulary, so every persisted vector (not only
		// this doc's) is recomputed against it.
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
		}
		for i, c := range allChunks {
			if err := e.store.PutVector(core.Vector{ChunkID: c.ID, Embedding: vectors[i]}); err != nil {
				return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
			}
		}
	} else if err := e.embedNewChunks(ctx, embedder, chunks); err != nil {
		return core.Doc{}, err
	}
	doc.Status.IndexedVector = true
	if err := e.store.PutDoc(doc); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}
	onProgress(0.7)

	if err := e.rebuildLexicalSnapshot(); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}
	if err := e.markAllDocsIndexedLexical(); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}

	// Supplemented feature (not in spec.md): a one-line extractive summary
	// stored alongside the doc, computed after indexing so a slow summarizer
	// never delays IndexedVector/IndexedLexical becoming true. Re-fetch
	// first since markAllDocsIndexedLexical already persisted this doc's
	// terminal status under the hood.
	finalDoc, err := e.store.GetDoc(doc.ID)
	if err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}
	var fullText strings.Builder
	for _, p := range pages {
		fullText.WriteString(p.Text)
		fullText.WriteString(" ")
	}
	finalDoc.Summary = e.summarizer.Summarize(fullText.String(), summarize.DefaultMaxSentences)
	if err := e.store.PutDoc(finalDoc); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}

	// A successful ingest from any source — sample loader or real upload —
	// suppresses future reseeding (internal/sample's resolved Open Question).
	if err := e.store.SetMeta(sample.SeededFlagKey, sample.SeededFlagValue); err != nil {
		return core.Doc{}, rerr.Wrap(rerr.KindTransient, err)
	}

	onProgress(1.0)
	return finalDoc, nil
}

// embedNewChunks embeds and persists a vector for each chunk in chunks
// that does not already have one. Re-running over chunk ids that were
// already embedded by a prior, interrupted ingest (spec §4.4) is a no-op
// for those ids: HasVector is checked per chunk before it is added to the
// embed batch, so a retry never recomputes or overwrites an existing
// vector.
func (e *Engine) embedNewChunks(ctx context.Context, embedder strategy.Embedder, chunks []core.Chunk) error {
	pending := make([]core.Chunk, 0, len(chunks))
	for _, c := range chunks {
		has, err := e.store.HasVector(c.ID)
		if err != nil {
			return rerr.Wrap(rerr.KindTransient, err)
		}
		if !has {
			pending = append(pending, c)
		}
	}
	texts := make([]string, len(pending))
	for i, c := range pending {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return rerr.Wrap(rerr.KindTransient, err)
	}
	for i, c := range pending {
		if err := e.store.PutVector(core.Vector{ChunkID: c.ID, Embedding: vectors[i]}); err != nil {
			return rerr.Wrap(rerr.KindTransient, err)
		}
	}
	return nil
}

// rebuildLexicalSnapshot performs the global rebuild spec §4.7 step 6
// mandates: the snapshot is always exactly the full persisted corpus, not
// an incremental per-doc append.
func (e *Engine) rebuildLexicalSnapshot() error {
	allChunks, err := e.store.ListAllChunks()
	if err != nil {
		return err
	}
	idx := lexical.Build(allChunks)
	return e.store.PutLexicalSnapshot(idx.ToSnapshot())
}

func (e *Engine) markAllDocsIndexedLexical() error {
	docs, err := e.store.ListDocs()
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.Status.IndexedLexical {
			continue
		}
		d.Status.IndexedLexical = true
		if err := e.store.PutDoc(d); err != nil {
			return err
		}
	}
	return nil
}

// Query runs one retrieval (and optionally generation/polish) round trip
// per spec §4.7's Query stages, in strict sequential order.
func (e *Engine) Query(ctx context.Context, req core.QueryRequest) (core.QueryResult, error) {
	start := eventTimestamp()
	queryID := e.newQueryID()
	e.events.Append(eventlog.TypeQueryStart, map[string]any{"queryId": queryID, "text": req.Text}, 0)

	mode := req.Mode
	if mode == "" {
		mode = core.RetrievalMode(e.cfg.Retrieval.Mode)
	}
	retriever, ok := e.registries.Retrievers.Get(string(mode))
	if !ok {
		err := rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("unknown retrieval mode %q", mode))
		e.events.Append(eventlog.TypeError, map[string]any{"queryId": queryID, "error": err.Error()}, 0)
		return core.QueryResult{}, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.cfg.Retrieval.TopK
	}
	alpha := e.cfg.Retrieval.Alpha
	if alpha == 0 {
		alpha = defaultAlpha
	}
	if req.AlphaSet {
		alpha = req.Alpha
	}
	retrieveCfg := strategy.RetrieveConfig{TopK: topK, Alpha: alpha}

	allChunks, err := e.store.ListAllChunks()
	if err != nil {
		err = rerr.Wrap(rerr.KindTransient, err)
		e.events.Append(eventlog.TypeError, map[string]any{"queryId": queryID, "error": err.Error()}, 0)
		return core.QueryResult{}, err
	}

	retrievalStart := eventTimestamp()
	e.events.Append(eventlog.TypeRetrievalStart, map[string]any{"queryId": queryID, "mode": mode}, 0)
	scored, retrieveMeta, err := retriever.Retrieve(ctx, req.Text, allChunks, retrieveCfg)
	retrievalDuration := eventTimestamp().Sub(retrievalStart)
	if err != nil {
		err = rerr.Wrap(rerr.KindTransient, err)
		e.events.Append(eventlog.TypeError, map[string]any{"queryId": queryID, "error": err.Error()}, 0)
		return core.QueryResult{}, err
	}
	e.events.Append(eventlog.TypeRetrievalComplete, map[string]any{"queryId": queryID, "meta": retrieveMeta}, retrievalDuration)

	docsByID, err := e.docIndex()
	if err != nil {
		err = rerr.Wrap(rerr.KindTransient, err)
		e.events.Append(eventlog.TypeError, map[string]any{"queryId": queryID, "error": err.Error()}, 0)
		return core.QueryResult{}, err
	}

	chunks := make([]core.Chunk, len(scored))
	scores := make([]float64, len(scored))
	citations := make([]core.Citation, len(scored))
	for i, sc := range scored {
		chunks[i] = sc.Chunk
		scores[i] = sc.Score
		d := docsByID[sc.Chunk.DocID]
		citations[i] = core.Citation{
			ChunkID: sc.Chunk.ID,
			DocID:   sc.Chunk.DocID,
			DocName: d.Name,
			Page:    sc.Chunk.PageNumber,
			Text:    sc.Chunk.Text,
			Score:   sc.Score,
		}
	}
	e.events.Append(eventlog.TypeContextBuilt, map[string]any{"queryId": queryID, "citations": len(citations)}, 0)

	result := core.QueryResult{Chunks: chunks, Citations: citations, Scores: scores}

	chatMode := req.ChatMode
	if chatMode == "" {
		chatMode = core.ChatModeSearch
	}

	var generationDuration, polishDuration time.Duration
	if chatMode == core.ChatModeChat && len(citations) > 0 {
		genID := e.cfg.Generation.Generator
		if genID == "" {
			genID = "simple-extractive"
		}
		generator, ok := e.registries.Generators.Get(genID)
		if !ok {
			err := rerr.Wrap(rerr.KindProgrammer, fmt.Errorf("unknown generator %q", genID))
			e.events.Append(eventlog.TypeError, map[string]any{"queryId": queryID, "error": err.Error()}, 0)
			return core.QueryResult{}, err
		}
		topChunks := chunks
		if len(topChunks) > chatGenerationChunkCount {
			topChunks = topChunks[:chatGenerationChunkCount]
		}

		genStart := eventTimestamp()
		e.events.Append(eventlog.TypeGenerationStart, map[string]any{"queryId": queryID}, 0)
		answer, _, genErr := generator.Generate(ctx, req.Text, topChunks)
		generationDuration = eventTimestamp().Sub(genStart)
		if genErr != nil {
			// spec §7: generation failure in chat mode must still return the
			// retrieval result, generatedAnswer omitted, with an error logged.
			e.events.Append(eventlog.TypeError, map[string]any{"queryId": queryID, "stage": "generation", "error": genErr.Error()}, 0)
		} else {
			e.events.Append(eventlog.TypeGenerationComplete, map[string]any{"queryId": queryID}, generationDuration)
			result.GeneratedAnswer = answer
			result.HasAnswer = true

			polish := req.Polish
			if !req.PolishSet {
				polish = e.cfg.Generation.Polish
			}
			if polish && e.cfg.Generation.PostProcessor != "" {
				if pp, ok := e.registries.PostProcessors.Get(e.cfg.Generation.PostProcessor); ok {
					polishStart := eventTimestamp()
					e.events.Append(eventlog.TypePolishStart, map[string]any{"queryId": queryID}, 0)
					polished, ppErr := pp.Process(ctx, result.GeneratedAnswer, req.Text, topChunks)
					polishDuration = eventTimestamp().Sub(polishStart)
					if ppErr != nil {
						// spec §7: a post-processor failure must fall back to the
						// pre-post-processing answer, never fatal to the query.
						e.events.Append(eventlog.TypeError, map[string]any{"queryId": queryID, "stage": "polish", "error": ppErr.Error()}, 0)
					} else {
						result.GeneratedAnswer = polished
					}
					e.events.Append(eventlog.TypePolishComplete, map[string]any{"queryId": queryID}, polishDuration)
				}
			}
		}
	}

	total := eventTimestamp().Sub(start)
	result.Latency = core.Latency{
		Retrieval:  retrievalDuration,
		Generation: generationDuration,
		Polish:     polishDuration,
		Total:      total,
	}
	e.latency.Record(total)
	e.events.Append(eventlog.TypeQueryComplete, map[string]any{"queryId": queryID}, total)
	return result, nil
}

// Reset clears all persisted state, used by the CLI's reset subcommand.
func (e *Engine) Reset() error {
	return e.store.Reset()
}

func (e *Engine) docIndex() (map[string]core.Doc, error) {
	docs, err := e.store.ListDocs()
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.Doc, len(docs))
	for _, d := range docs {
		out[d.ID] = d
	}
	return out, nil
}

func (e *Engine) newQueryID() string {
	e.nextQuery++
	return fmt.Sprintf("q-%d", e.nextQuery)
}

// docID derives a document id unique per ingest call. A fresh id on every
// call is intentional: spec §5 says a re-ingest after cancellation
// "produces a new doc id", so two ingests of the same name must never
// collide.
func docID(name string) string {
	return fmt.Sprintf("doc-%s-%s", name, uuid.NewString())
}

// eventTimestamp is the engine's single clock source (spec §5: "event log
// entries carry monotonic timestamps from a single clock source").
var eventTimestamp = time.Now
