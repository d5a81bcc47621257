package summarize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeNoSentencePunctuationReturnsTrimmedText(t *testing.T) {
	s := New()
	out := s.Summarize("  just some words with no punctuation  ", 3)
	assert.Equal(t, "just some words with no punctuation", out)
}

func TestSummarizeKeepsRequestedSentenceCount(t *testing.T) {
	s := New()
	text := "Cats are popular pets. Dogs are loyal companions. Birds can fly. Fish live in water."
	out := s.Summarize(text, 2)
	count := strings.Count(out, ".")
	assert.Equal(t, 2, count)
}

func TestSummarizeDefaultsWhenMaxSentencesNonPositive(t *testing.T) {
	s := New()
	text := "One. Two. Three. Four. Five."
	out := s.Summarize(text, 0)
	assert.Equal(t, DefaultMaxSentences, strings.Count(out, "."))
}

func TestSummarizePreservesOriginalSentenceOrder(t *testing.T) {
	s := New()
	text := "Alpha beta gamma delta epsilon. Zeta eta theta iota kappa. Lambda mu nu xi omicron."
	out := s.Summarize(text, 2)
	firstIdx := strings.Index(out, "Alpha")
	secondIdx := strings.Index(out, "Zeta")
	thirdIdx := strings.Index(out, "Lambda")
	picked := 0
	for _, idx := range []int{firstIdx, secondIdx, thirdIdx} {
		if idx >= 0 {
			picked++
		}
	}
	assert.Equal(t, 2, picked)
	if firstIdx >= 0 && secondIdx >= 0 {
		assert.Less(t, firstIdx, secondIdx)
	}
}

func TestSummarizeFewerSentencesThanRequested(t *testing.T) {
	s := New()
	out := s.Summarize("Only one sentence here.", 5)
	assert.Equal(t, "Only one sentence here.", out)
}
