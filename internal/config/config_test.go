package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcorpus/ragengine/internal/store"
)

func TestPresets(t *testing.T) {
	fast := Apply(PresetFast)
	assert.Equal(t, 500, fast.Chunker.ChunkSize)
	assert.Equal(t, 10, fast.Chunker.OverlapPercent)
	assert.Equal(t, "lexical", fast.Retrieval.Mode)
	assert.Equal(t, 5, fast.Retrieval.TopK)
	assert.False(t, fast.Generation.Polish)

	balanced := Apply(PresetBalanced)
	assert.Equal(t, 400, balanced.Chunker.ChunkSize)
	assert.Equal(t, "hybrid", balanced.Retrieval.Mode)
	assert.Equal(t, 0.5, balanced.Retrieval.Alpha)
	assert.Equal(t, 10, balanced.Retrieval.TopK)
	assert.True(t, balanced.Generation.Polish)

	accurate := Apply(PresetAccurate)
	assert.Equal(t, 300, accurate.Chunker.ChunkSize)
	assert.Equal(t, 0.7, accurate.Retrieval.Alpha)
	assert.Equal(t, 15, accurate.Retrieval.TopK)
}

func TestDefaultIsBalanced(t *testing.T) {
	assert.Equal(t, Apply(PresetBalanced), Default())
}

func TestExportImportRoundtrip(t *testing.T) {
	cfg := Apply(PresetAccurate)
	data, err := Export(cfg)
	require.NoError(t, err)
	restored, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, restored)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	cfg := Apply(PresetFast)
	require.NoError(t, Save(st, cfg))
	loaded, err := Load(st)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFallsBackToDefaultWhenAbsent(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	loaded, err := Load(st)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestLoadDiscardsMismatchedSchemaVersion(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	stale := "schema_version: 999\nchunker:\n  chunk_size: 111\n  overlap_percent: 1\n"
	require.NoError(t, st.SetMeta(metaConfigKey, stale))

	loaded, err := Load(st)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestFileDiscoveryPathsIncludesCwdAndHome(t *testing.T) {
	paths := FileDiscoveryPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, "config.yaml", paths[0])
	if home, err := os.UserHomeDir(); err == nil {
		require.Len(t, paths, 2)
		assert.Equal(t, filepath.Join(home, ".config", "ragengine", "config.yaml"), paths[1])
	}
}

func TestSaveToFileCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	cfg := Apply(PresetFast)
	require.NoError(t, SaveToFile(path, cfg))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
