// Package compose implements the extractive answer composer (C9): the
// default "simple-extractive" generation strategy used when no external
// rewriter is configured. The teacher had no answer-composition stage at
// all — service.RAGServiceImpl.Query returned raw SearchResults — so this
// package is new, but its sentence-splitting idiom is grounded on
// summarizer/frequency.go's regexp-based `[^.!?]+[.!?]` sentence split,
// simplified here to spec §4.8's fixed take-first-N rule rather than
// frequency ranking.
package compose

import (
	"context"
	"regexp"
	"strings"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/strategy"
)

const (
	maxChunksConsidered   = 3
	maxSentencesPerChunk  = 2
	minSentenceTrimmedLen = 20
	defaultMaxTokens      = 256
)

var sentenceSplitter = regexp.MustCompile(`[.!?]+`)

// Composer is the default, dependency-free generator: it extracts and
// concatenates sentences already present in the retrieved chunks rather
// than synthesizing new text, satisfying spec §4.8's "MUST NOT invent
// tokens not present in its inputs" rule by construction.
type Composer struct {
	maxTokens int
}

// New constructs a Composer. maxTokens bounds the answer to approximately
// maxTokens*4 characters; a non-positive value falls back to 256.
func New(maxTokens int) *Composer {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Composer{maxTokens: maxTokens}
}

func (c *Composer) ID() string { return "simple-extractive" }

// Generate takes the first 3 chunks, keeps up to 2 trimmed-length->20
// sentences from each (split on [.!?]+), joins them with ". ", trims to
// approximately maxTokens*4 characters, and appends a terminal "." if
// missing. The question is advisory only, per spec §4.8 — it is accepted
// to satisfy strategy.Generator's signature but never inspected.
func (c *Composer) Generate(_ context.Context, _ string, chunks []core.Chunk) (string, map[string]any, error) {
	meta := func(chunksUsed, contextLength int) map[string]any {
		return map[string]any{
			"modelId":       "simple-extractive",
			"chunksUsed":    chunksUsed,
			"contextLength": contextLength,
		}
	}
	if len(chunks) == 0 {
		return "", meta(0, 0), nil
	}

	n := len(chunks)
	if n > maxChunksConsidered {
		n = maxChunksConsidered
	}
	used := chunks[:n]

	var sentences []string
	contextLength := 0
	for _, ch := range used {
		contextLength += len(ch.Text)
		kept := 0
		for _, raw := range sentenceSplitter.Split(ch.Text, -1) {
			sent := strings.TrimSpace(raw)
			if len(sent) <= minSentenceTrimmedLen {
				continue
			}
			sentences = append(sentences, sent)
			kept++
			if kept == maxSentencesPerChunk {
				break
			}
		}
	}

	answer := strings.Join(sentences, ". ")
	if maxChars := c.maxTokens * 4; len(answer) > maxChars {
		answer = answer[:maxChars]
	}
	answer = strings.TrimSpace(answer)
	if answer != "" && !strings.HasSuffix(answer, ".") && !strings.HasSuffix(answer, "!") && !strings.HasSuffix(answer, "?") {
		answer += "."
	}
	return answer, meta(n, contextLength), nil
}

var _ strategy.Generator = (*Composer)(nil)
