// Package extract implements the external page extractor contract (spec
// §6): txt/md as a single page, pdf as one page per source page via
// gen2brain/go-fitz. Grounded on james-see-dream-ai's
// internal/documents/parser.go PDFParser (open a fitz.Document, iterate
// NumPage(), call Text(i) per page), adapted from that file's
// join-into-one-string behavior into the per-page core.Page sequence
// spec §6 requires, and from path-based fitz.New to byte-slice-based
// fitz.NewFromMemory since ingest here only ever has an in-memory blob,
// never a filesystem path.
package extract

import (
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/corelog"
)

// Extractor is the external page extractor contract: pages are emitted in
// document order, pageNumber starts at 1 and is strictly increasing, and
// an unsupported or corrupt input yields an empty sequence rather than an
// error (spec §6).
type Extractor interface {
	Extract(docID string, kind core.DocKind, blob []byte) []core.Page
}

// Dispatcher routes to the txt/md or pdf extractor by doc kind.
type Dispatcher struct {
	log corelog.Logger
}

// New constructs a Dispatcher.
func New(log corelog.Logger) *Dispatcher {
	if log == nil {
		log = corelog.Nop()
	}
	return &Dispatcher{log: log}
}

// Extract dispatches by kind. Unsupported kinds yield an empty sequence.
func (d *Dispatcher) Extract(docID string, kind core.DocKind, blob []byte) []core.Page {
	switch kind {
	case core.DocKindTXT, core.DocKindMD:
		return extractPlainText(docID, blob)
	case core.DocKindPDF:
		return d.extractPDF(docID, blob)
	default:
		d.log.Warn("extract: unsupported document kind", "docId", docID, "kind", kind)
		return nil
	}
}

// extractPlainText returns the whole UTF-8 text as a single page, per
// spec §6's txt/md contract. An empty blob yields an empty sequence, not a
// single empty-text page.
func extractPlainText(docID string, blob []byte) []core.Page {
	text := string(blob)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []core.Page{{DocID: docID, PageNumber: 1, Text: text}}
}

// extractPDF opens blob as an in-memory PDF and emits one page per source
// page with best-effort text concatenation. A corrupt or unsupported PDF
// logs a warning and yields an empty sequence rather than an error, per
// the extractor contract.
func (d *Dispatcher) extractPDF(docID string, blob []byte) []core.Page {
	doc, err := fitz.NewFromMemory(blob)
	if err != nil {
		d.log.Warn("extract: failed to open pdf", "docId", docID, "err", err)
		return nil
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]core.Page, 0, n)
	for i := 0; i < n; i++ {
		text, err := doc.Text(i)
		if err != nil {
			d.log.Warn("extract: failed to read pdf page text", "docId", docID, "page", i+1, "err", err)
			continue
		}
		pages = append(pages, core.Page{DocID: docID, PageNumber: i + 1, Text: text})
	}
	return pages
}

var _ Extractor = (*Dispatcher)(nil)
