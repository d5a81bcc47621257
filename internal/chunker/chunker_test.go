package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcorpus/ragengine/internal/core"
)

func TestChunkOffsetsCoverWholeText(t *testing.T) {
	text := strings.Repeat("a", 1000)
	c := New(Config{ChunkSize: 100, OverlapPercent: 10})
	chunks := c.Chunk([]core.Page{{DocID: "d1", PageNumber: 1, Text: text}})
	require.GreaterOrEqual(t, len(chunks), 11)
	for i := 0; i+1 < len(chunks); i++ {
		assert.Equal(t, chunks[i].EndOffset-10, chunks[i+1].StartOffset)
	}
	covered := make([]bool, 1000)
	for _, ch := range chunks {
		for i := ch.StartOffset; i < ch.EndOffset; i++ {
			covered[i] = true
		}
	}
	for i, c := range covered {
		assert.Truef(t, c, "offset %d not covered", i)
	}
}

func TestChunkSentenceBoundary(t *testing.T) {
	text := "First sentence. Second sentence. Third sentence."
	c := New(Config{ChunkSize: 20, OverlapPercent: 10})
	chunks := c.Chunk([]core.Page{{DocID: "d1", PageNumber: 1, Text: text}})
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		if ch.EndOffset >= len(text) {
			continue
		}
		last := text[ch.EndOffset-1]
		assert.Truef(t, last == '.' || last == ' ', "chunk %q ends mid-word at %q", ch.Text, string(last))
	}
}

func TestChunkInvariants(t *testing.T) {
	text := strings.Repeat("word ", 50) + "."
	c := New(Config{ChunkSize: 100, OverlapPercent: 20})
	chunks := c.Chunk([]core.Page{{DocID: "doc", PageNumber: 2, Text: text}})
	for _, ch := range chunks {
		assert.GreaterOrEqual(t, ch.StartOffset, 0)
		assert.Less(t, ch.StartOffset, ch.EndOffset)
		assert.LessOrEqual(t, ch.EndOffset, len(text))
		assert.NotEmpty(t, ch.Text)
		assert.Equal(t, 2, ch.PageNumber)
	}
}

func TestChunkStableIDs(t *testing.T) {
	text := strings.Repeat("x", 300)
	c := New(Config{ChunkSize: 100, OverlapPercent: 0})
	chunks := c.Chunk([]core.Page{{DocID: "doc1", PageNumber: 1, Text: text}})
	for i, ch := range chunks {
		assert.Equal(t, "doc1-chunk-"+itoaHelper(i), ch.ID)
	}
}

func TestChunkEmptyPagesProduceNoChunks(t *testing.T) {
	c := New(Config{ChunkSize: 100, OverlapPercent: 10})
	chunks := c.Chunk([]core.Page{{DocID: "d", PageNumber: 1, Text: ""}})
	assert.Empty(t, chunks)
	chunks = c.Chunk(nil)
	assert.Empty(t, chunks)
}

func TestChunkExactSizeNoPunctuation(t *testing.T) {
	text := strings.Repeat("x", 100)
	c := New(Config{ChunkSize: 100, OverlapPercent: 0})
	chunks := c.Chunk([]core.Page{{DocID: "d", PageNumber: 1, Text: text}})
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 100, chunks[0].EndOffset)
}

func itoaHelper(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
