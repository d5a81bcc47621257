// Package core defines the shared data types that flow between every
// pipeline stage: documents, pages, chunks, citations, and query
// request/result shapes. Nothing in this package touches storage, network,
// or any external strategy implementation.
package core

import "time"

// DocKind enumerates the supported ingest document kinds.
type DocKind string

const (
	DocKindPDF DocKind = "pdf"
	DocKindTXT DocKind = "txt"
	DocKindMD  DocKind = "md"
)

// DocStatus tracks the monotonic ingestion progress of a Doc.
type DocStatus struct {
	Parsed         bool   `json:"parsed"`
	IndexedVector  bool   `json:"indexedVector"`
	IndexedLexical bool   `json:"indexedLexical"`
	Error          string `json:"error,omitempty"`
}

// Doc is a persisted document record.
type Doc struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      DocKind   `json:"kind"`
	ByteSize  int       `json:"byteSize"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status    DocStatus `json:"status"`
	Summary   string    `json:"summary,omitempty"`
}

// Page is the transient value object produced by the external page
// extractor. It is never persisted once chunking has consumed it.
type Page struct {
	DocID      string
	PageNumber int
	Text       string
	Metadata   map[string]string
}

// Chunk is an addressable, offset-stable substring of a page.
type Chunk struct {
	ID          string `json:"id"`
	DocID       string `json:"docId"`
	PageNumber  int    `json:"pageNumber"`
	Text        string `json:"text"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	TokenCount  int    `json:"tokenCount"`
}

// Vector is a fixed-dimension dense embedding keyed by chunk id.
type Vector struct {
	ChunkID   string    `json:"chunkId"`
	Embedding []float64 `json:"embedding"`
}

// Citation is a derived, computed-on-read value never stored as an edge.
type Citation struct {
	ChunkID string  `json:"chunkId"`
	DocID   string  `json:"docId"`
	DocName string  `json:"docName"`
	Page    int     `json:"pageNumber"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// RetrievalMode selects which retriever the orchestrator resolves for a
// query. "lexical" is the single canonical name for the BM25 retriever;
// "bm25" is intentionally not a recognized synonym (see Open Questions).
type RetrievalMode string

const (
	ModeLexical  RetrievalMode = "lexical"
	ModeSemantic RetrievalMode = "semantic"
	ModeHybrid   RetrievalMode = "hybrid"
)

// ChatMode selects whether a query returns bare retrieval or also invokes
// the generation strategy.
type ChatMode string

const (
	ChatModeSearch ChatMode = "search"
	ChatModeChat   ChatMode = "chat"
)

// QueryRequest is the uniform query contract accepted by the orchestrator.
type QueryRequest struct {
	Text      string
	Mode      RetrievalMode
	TopK      int
	Alpha     float64
	AlphaSet  bool
	ChatMode  ChatMode
	Polish    bool
	PolishSet bool
}

// Latency captures the per-stage duration breakdown of one query.
type Latency struct {
	Retrieval  time.Duration `json:"retrieval"`
	Generation time.Duration `json:"generation,omitempty"`
	Polish     time.Duration `json:"polish,omitempty"`
	Total      time.Duration `json:"total"`
}

// QueryResult is the uniform result shape returned by the orchestrator.
type QueryResult struct {
	Chunks          []Chunk
	Citations       []Citation
	Scores          []float64
	Latency         Latency
	GeneratedAnswer string
	HasAnswer       bool
}

// ScoredChunk pairs a chunk with a ranker-assigned score, the unit of
// exchange between retrievers, the normalizer, and fusion.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
