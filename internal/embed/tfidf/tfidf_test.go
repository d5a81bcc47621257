package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRequiresNonEmptyCorpus(t *testing.T) {
	e := New()
	err := e.Fit(context.Background(), nil)
	assert.Error(t, err)
}

func TestEmbedBeforeFitErrors(t *testing.T) {
	e := New()
	_, err := e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestFitBuildsVocabularyAndDimension(t *testing.T) {
	e := New()
	corpus := []string{
		"the quick brown fox jumps over the lazy dog",
		"machine learning models learn from data",
	}
	require.NoError(t, e.Fit(context.Background(), corpus))
	assert.Greater(t, e.Dimension(), 0)
}

func TestEmbedIsL2Normalized(t *testing.T) {
	e := New()
	corpus := []string{
		"the quick brown fox jumps over the lazy dog",
		"machine learning models learn from data",
		"dogs and foxes are both animals",
	}
	require.NoError(t, e.Fit(context.Background(), corpus))

	vec, err := e.Embed(context.Background(), "quick fox")
	require.NoError(t, err)

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEmbedUnknownTermsYieldZeroVector(t *testing.T) {
	e := New()
	require.NoError(t, e.Fit(context.Background(), []string{"alpha beta gamma"}))

	vec, err := e.Embed(context.Background(), "zzz yyy xxx")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Equal(t, 0.0, v)
	}
}

func TestEmbedBatchMatchesIndividualEmbed(t *testing.T) {
	e := New()
	corpus := []string{"alpha beta", "gamma delta", "alpha gamma"}
	require.NoError(t, e.Fit(context.Background(), corpus))

	texts := []string{"alpha beta", "gamma delta"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	for i, text := range texts {
		single, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestRareTermsScoreHigherThanCommonTerms(t *testing.T) {
	e := New()
	corpus := []string{
		"common word appears everywhere",
		"common word appears again here",
		"common word appears once more",
		"unique rare term appears only here",
	}
	require.NoError(t, e.Fit(context.Background(), corpus))

	vec, err := e.Embed(context.Background(), "common unique")
	require.NoError(t, err)

	commonIdx, ok := e.vocabulary["common"]
	require.True(t, ok)
	rareIdx, ok := e.vocabulary["unique"]
	require.True(t, ok)

	assert.Greater(t, vec[rareIdx], vec[commonIdx])
}

func TestRefitReplacesVocabulary(t *testing.T) {
	e := New()
	require.NoError(t, e.Fit(context.Background(), []string{"alpha beta gamma"}))
	firstDim := e.Dimension()

	require.NoError(t, e.Fit(context.Background(), []string{"completely different words here now"}))
	_, hadOldTerm := e.vocabulary["alpha"]
	assert.False(t, hadOldTerm)
	assert.NotEqual(t, firstDim, e.Dimension())
}
