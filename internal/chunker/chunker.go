// Package chunker implements the page-based, boundary-aware sliding-window
// chunker from spec §4.2. It keeps the teacher's strategy shape (a small
// struct constructed with size parameters, a Chunk method) from
// chunker/sentence_chunker.go but replaces sentence-counting with the
// char-window-plus-boundary-search rule the spec requires, since the
// teacher's variant does not preserve stable byte offsets.
package chunker

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/localcorpus/ragengine/internal/core"
)

// boundarySearchWindow is how far back from the raw window end the chunker
// looks for a sentence/paragraph/whitespace boundary.
const boundarySearchWindow = 100

// Config bounds chunk size and overlap per spec §4.2.
type Config struct {
	ChunkSize      int // chars, in [100, 1000]
	OverlapPercent int // in [0, 30]
}

// Chunker slides a boundary-adjusted window over each page independently.
type Chunker struct {
	cfg Config
}

// New constructs a Chunker, clamping cfg into the spec's valid ranges.
func New(cfg Config) *Chunker {
	if cfg.ChunkSize < 100 {
		cfg.ChunkSize = 100
	}
	if cfg.ChunkSize > 1000 {
		cfg.ChunkSize = 1000
	}
	if cfg.OverlapPercent < 0 {
		cfg.OverlapPercent = 0
	}
	if cfg.OverlapPercent > 30 {
		cfg.OverlapPercent = 30
	}
	return &Chunker{cfg: cfg}
}

// ID satisfies strategy.Chunker. A single sliding-window strategy is
// registered under this id; Config varies its behavior, not its identity.
func (c *Chunker) ID() string { return "sliding-window" }

// Chunk turns an ordered sequence of pages into chunks with a single
// ordinal counter shared across every page of one ingest.
func (c *Chunker) Chunk(pages []core.Page) []core.Chunk {
	var out []core.Chunk
	ordinal := 0
	overlapSize := c.cfg.ChunkSize * c.cfg.OverlapPercent / 100
	step := c.cfg.ChunkSize - overlapSize
	if step <= 0 {
		step = c.cfg.ChunkSize
	}
	for _, page := range pages {
		text := page.Text
		n := len(text)
		if n == 0 {
			continue
		}
		pos := 0
		for pos < n {
			windowEnd := pos + c.cfg.ChunkSize
			if windowEnd > n {
				windowEnd = n
			}
			cut := boundaryCut(text, pos, windowEnd)
			chunkText := strings.TrimSpace(text[pos:cut])
			if chunkText != "" {
				out = append(out, core.Chunk{
					ID:          docChunkID(page.DocID, ordinal),
					DocID:       page.DocID,
					PageNumber:  page.PageNumber,
					Text:        chunkText,
					StartOffset: pos,
					EndOffset:   cut,
					TokenCount:  estimateTokens(chunkText),
				})
				ordinal++
			}
			next := cut - overlapSize
			if next <= pos {
				next = cut
			}
			pos = next
			if cut >= n {
				break
			}
		}
	}
	return out
}

// boundaryCut computes the adjusted end of the window [pos, windowEnd)
// by searching only the last boundarySearchWindow characters of the
// window, in priority order: sentence end, paragraph break, whitespace,
// else the raw window end.
func boundaryCut(text string, pos, windowEnd int) int {
	searchStart := windowEnd - boundarySearchWindow
	if searchStart < pos {
		searchStart = pos
	}
	window := text[searchStart:windowEnd]

	if idx := lastSentenceEnd(window); idx >= 0 {
		return searchStart + idx
	}
	if idx := strings.LastIndex(window, "\n\n"); idx >= 0 {
		return searchStart + idx + len("\n\n")
	}
	if idx := lastWhitespace(window); idx >= 0 {
		return searchStart + idx + 1
	}
	return windowEnd
}

// lastSentenceEnd finds the last occurrence of [.!?] followed by
// whitespace (or end of string) within window, returning the offset
// immediately after the punctuation.
func lastSentenceEnd(window string) int {
	best := -1
	runes := []rune(window)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				best = i + 1
			}
		}
	}
	if best < 0 {
		return -1
	}
	return runeOffsetToByteOffset(window, best)
}

func lastWhitespace(window string) int {
	best := -1
	for i, r := range window {
		if unicode.IsSpace(r) {
			best = i
		}
	}
	return best
}

func runeOffsetToByteOffset(s string, runeOffset int) int {
	count := 0
	for i := range s {
		if count == runeOffset {
			return i
		}
		count++
	}
	return len(s)
}

func estimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

func docChunkID(docID string, ordinal int) string {
	return docID + "-chunk-" + strconv.Itoa(ordinal)
}
