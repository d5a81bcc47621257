package sample

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/store"
)

type fakeIngester struct {
	calls []string
}

func (f *fakeIngester) Ingest(_ context.Context, name string, _ core.DocKind, _ []byte, _ func(float64)) (core.Doc, error) {
	f.calls = append(f.calls, name)
	return core.Doc{ID: "doc-" + name, Name: name}, nil
}

func TestSeedIfEmptySeedsOnEmptyStore(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	ing := &fakeIngester{}
	require.NoError(t, SeedIfEmpty(context.Background(), st, ing))
	assert.Len(t, ing.calls, len(Corpus))

	flag, err := st.GetMeta("sample-seeded")
	require.NoError(t, err)
	assert.Equal(t, "true", flag)
}

func TestSeedIfEmptySkipsWhenDocsExist(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.PutDoc(core.Doc{ID: "existing"}))

	ing := &fakeIngester{}
	require.NoError(t, SeedIfEmpty(context.Background(), st, ing))
	assert.Empty(t, ing.calls)
}

func TestSeedIfEmptySkipsWhenAlreadySeeded(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.SetMeta("sample-seeded", "true"))

	ing := &fakeIngester{}
	require.NoError(t, SeedIfEmpty(context.Background(), st, ing))
	assert.Empty(t, ing.calls)
}
