// Package summarize produces the ingest-time Doc.Summary field: a short
// extractive summary of a document's full text, generated at ingestion
// and stored alongside the Doc record. This is a supplemented feature
// carried over from the teacher's internal/summarizer/frequency.go
// FrequencySummarizer, which has no analogue in the distilled spec but
// which the original system always ran at ingest time.
package summarize

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

var stopwords = buildStopwords([]string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in",
	"on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being",
	"it", "this", "that", "these", "those", "from", "up", "down", "over", "under",
	"again", "further", "than", "so", "such", "into", "about", "between", "through",
	"during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
	"very", "can", "will", "just", "don", "should", "now",
})

func buildStopwords(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// DefaultMaxSentences is the sentence budget used when callers pass <= 0.
const DefaultMaxSentences = 3

// Summarizer ranks sentences by normalized token frequency and keeps the
// top maxSentences, in their original order.
type Summarizer struct{}

// New constructs a Summarizer.
func New() *Summarizer {
	return &Summarizer{}
}

// Summarize returns a short summary of text made of its highest-scoring
// sentences, preserving their original order. Text with no sentence
// punctuation is returned trimmed as-is.
func (s *Summarizer) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := make(map[string]float64)
	for _, sent := range sentences {
		for _, tok := range tokenize(sent) {
			if _, isStop := stopwords[tok]; isStop {
				continue
			}
			freq[tok]++
		}
	}
	maxFreq := 0.0
	for _, v := range freq {
		if v > maxFreq {
			maxFreq = v
		}
	}
	if maxFreq > 0 {
		for k, v := range freq {
			freq[k] = v / maxFreq
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := tokenize(sent)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		ranked[i] = scored{i, score}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if maxSentences > len(ranked) {
		maxSentences = len(ranked)
	}
	selected := make([]int, maxSentences)
	for i := 0; i < maxSentences; i++ {
		selected[i] = ranked[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
