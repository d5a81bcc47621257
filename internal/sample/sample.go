// Package sample implements the lazy first-run corpus seeding loader
// (C13): a contract-only collaborator that, on an empty store, ingests a
// small built-in corpus so a fresh install has something to query
// immediately. Trigger condition per the resolved Open Question: seed iff
// the store is empty AND the "sample-seeded" metadata flag is unset; a
// successful Ingest from any source sets that flag so re-seeding never
// clobbers a user's empty-but-visited corpus.
package sample

import (
	"context"
	"errors"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/store"
)

// SeededFlagKey is the store metadata key marking that at least one
// successful ingest (sample-seeded or user-supplied) has ever completed.
// pipeline.Engine.Ingest sets SeededFlagValue against this key as its own
// postcondition, so any real ingest — not just this package's — suppresses
// future reseeding.
const SeededFlagKey = "sample-seeded"
const SeededFlagValue = "true"

// Document is one built-in sample document.
type Document struct {
	Name string
	Kind core.DocKind
	Text string
}

// Corpus is the small built-in seed corpus used on first run.
var Corpus = []Document{
	{
		Name: "quick-fox.txt",
		Kind: core.DocKindTXT,
		Text: "The quick brown fox jumps over the lazy dog. Foxes are small, omnivorous mammals found across the northern hemisphere. Dogs have lived alongside humans for thousands of years as loyal companions.",
	},
	{
		Name: "machine-learning.txt",
		Kind: core.DocKindTXT,
		Text: "Machine learning is a field of artificial intelligence that builds models from data rather than explicit rules. Supervised learning trains a model on labeled examples, while unsupervised learning finds structure in unlabeled data. Retrieval-augmented generation combines a search step over a document corpus with a language model's generation step.",
	},
}

// Ingester is the narrow slice of pipeline.Engine that SeedIfEmpty needs,
// kept as an interface so sample stays decoupled from the orchestrator.
type Ingester interface {
	Ingest(ctx context.Context, name string, kind core.DocKind, blob []byte, onProgress func(float64)) (core.Doc, error)
}

// SeedIfEmpty ingests Corpus into eng iff st has zero documents and the
// "sample-seeded" flag has never been set. Each eng.Ingest call sets the
// flag itself as its own postcondition, so the explicit SetMeta below only
// matters if Corpus were ever empty.
func SeedIfEmpty(ctx context.Context, st *store.Store, eng Ingester) error {
	count, err := st.CountDocs()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	flag, err := st.GetMeta(SeededFlagKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if flag == SeededFlagValue {
		return nil
	}

	for _, doc := range Corpus {
		if _, err := eng.Ingest(ctx, doc.Name, doc.Kind, []byte(doc.Text), nil); err != nil {
			return err
		}
	}
	return st.SetMeta(SeededFlagKey, SeededFlagValue)
}
