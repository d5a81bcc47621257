// Package store implements the local key/value object database (C3):
// persisted collections for docs, chunks (with a secondary index on
// docId), vectors, blobs, the lexical index snapshot, free-form metadata,
// and notes. It is backed by BadgerDB, adapted from the embedded-KV Store
// wrapper in calque-ai-go-calque's examples/memory/badger/badger.go (Get/
// Set/Delete/List over a *badger.DB), generalized from a flat string->bytes
// store into the seven typed collections spec §6 names.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/localcorpus/ragengine/internal/core"
)

// SchemaVersion is the current persisted schema version. A mismatch on
// open drops the vectors collection and the lexical snapshot and keeps the
// docs and chunks collections (see ensureSchemaVersion). The stored config
// carries its own schema version, checked by internal/config.
const SchemaVersion = 1

const (
	prefixDoc         = "docs/"
	prefixChunk       = "chunks/"
	prefixChunkByDoc  = "chunks_by_doc/"
	prefixVector      = "vectors/"
	prefixBlob        = "file_blobs/"
	prefixNote        = "notes/"
	prefixMeta        = "metadata/"
	keyLexicalIndex   = "lexical_index"
	metaSchemaVersion = "schema_version"
)

// ErrNotFound is returned by Get-style lookups that find nothing.
var ErrNotFound = errors.New("store: not found")

// Store is the BadgerDB-backed object database. All mutating methods
// serialize through Badger's own transaction locking; the lexical
// snapshot is additionally guarded by snapMu so readers never observe a
// torn write (spec §5: "write-once per rebuild").
type Store struct {
	db     *badger.DB
	snapMu sync.RWMutex
}

// Open opens (creating if absent) a BadgerDB store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.ensureSchemaVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an ephemeral, non-persisted store for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open in-memory: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchemaVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchemaVersion() error {
	raw, err := s.getRaw(prefixMeta + metaSchemaVersion)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err == nil {
		var v int
		if jerr := json.Unmarshal(raw, &v); jerr == nil && v == SchemaVersion {
			return nil
		}
		// Breaking schema change: reset dependent collections (vectors,
		// lexical snapshot) but keep docs/chunks, per spec §6.
		if err := s.dropPrefix(prefixVector); err != nil {
			return err
		}
		if err := s.deleteRaw(keyLexicalIndex); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return s.setMetaInt(metaSchemaVersion, SchemaVersion)
}

// --- low level helpers ---

func (s *Store) putRaw(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *Store) getRaw(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) deleteRaw(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
}

func (s *Store) dropPrefix(prefix string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var keys [][]byte
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, append([]byte(nil), it.Item().Key()...))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) setMetaInt(key string, v int) error {
	b, _ := json.Marshal(v)
	return s.putRaw(prefixMeta+key, b)
}

func putJSON(s *Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", key, err)
	}
	return s.putRaw(key, b)
}

func getJSON[T any](s *Store, key string) (T, error) {
	var out T
	raw, err := s.getRaw(key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("store: unmarshal %s: %w", key, err)
	}
	return out, nil
}

// --- docs ---

func docKey(id string) string { return prefixDoc + id }

// PutDoc upserts a Doc record.
func (s *Store) PutDoc(d core.Doc) error { return putJSON(s, docKey(d.ID), d) }

// GetDoc fetches a Doc by id.
func (s *Store) GetDoc(id string) (core.Doc, error) { return getJSON[core.Doc](s, docKey(id)) }

// ListDocs returns every persisted doc.
func (s *Store) ListDocs() ([]core.Doc, error) {
	var out []core.Doc
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefixDoc)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var d core.Doc
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}

// CountDocs returns the number of persisted docs, used by the sample
// loader's trigger condition.
func (s *Store) CountDocs() (int, error) {
	docs, err := s.ListDocs()
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// DeleteDoc removes a doc and cascades to all of its chunks, vectors, and
// blob, per spec §3's destruction contract.
func (s *Store) DeleteDoc(id string) error {
	chunks, err := s.ListChunksByDoc(id)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if err := s.deleteRaw(prefixVector + c.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.deleteRaw(prefixChunk + c.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.deleteRaw(prefixChunkByDoc + id + "/" + c.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if err := s.deleteRaw(prefixBlob + id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.deleteRaw(docKey(id)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// --- chunks ---

func chunkKey(id string) string { return prefixChunk + id }

// PutChunk upserts a chunk and its docId secondary index entry.
func (s *Store) PutChunk(c core.Chunk) error {
	if err := putJSON(s, chunkKey(c.ID), c); err != nil {
		return err
	}
	return s.putRaw(prefixChunkByDoc+c.DocID+"/"+c.ID, []byte(c.ID))
}

// PutChunks upserts many chunks in one pass.
func (s *Store) PutChunks(chunks []core.Chunk) error {
	for _, c := range chunks {
		if err := s.PutChunk(c); err != nil {
			return err
		}
	}
	return nil
}

// GetChunk fetches a chunk by id.
func (s *Store) GetChunk(id string) (core.Chunk, error) {
	return getJSON[core.Chunk](s, chunkKey(id))
}

// ListAllChunks returns every persisted chunk across every doc, the input
// to a lexical/vector index rebuild.
func (s *Store) ListAllChunks() ([]core.Chunk, error) {
	var out []core.Chunk
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefixChunk)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			key := string(it.Item().Key())
			if strings.HasPrefix(key, prefixChunkByDoc) {
				continue
			}
			var c core.Chunk
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

// ListChunksByDoc returns the chunks belonging to one doc via the
// secondary index.
func (s *Store) ListChunksByDoc(docID string) ([]core.Chunk, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefixChunkByDoc + docID + "/")
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]core.Chunk, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetChunk(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// --- vectors ---

func vectorKey(chunkID string) string { return prefixVector + chunkID }

// PutVector upserts the embedding for a chunk.
func (s *Store) PutVector(v core.Vector) error { return putJSON(s, vectorKey(v.ChunkID), v) }

// GetVector fetches a vector by chunk id.
func (s *Store) GetVector(chunkID string) (core.Vector, error) {
	return getJSON[core.Vector](s, vectorKey(chunkID))
}

// HasVector reports whether a vector is persisted for chunkID, used to
// make vector-index builds restartable and idempotent (spec §4.4).
func (s *Store) HasVector(chunkID string) (bool, error) {
	_, err := s.getRaw(vectorKey(chunkID))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListAllVectors returns every persisted vector.
func (s *Store) ListAllVectors() ([]core.Vector, error) {
	var out []core.Vector
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefixVector)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var v core.Vector
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// --- blobs ---

// PutBlob persists raw bytes for a doc kind requiring preview.
func (s *Store) PutBlob(docID string, data []byte) error {
	return s.putRaw(prefixBlob+docID, data)
}

// GetBlob fetches the raw bytes for docID.
func (s *Store) GetBlob(docID string) ([]byte, error) {
	return s.getRaw(prefixBlob + docID)
}

// --- lexical snapshot (singleton) ---

// LexicalSnapshot is the flattened, store-serializable form of the BM25
// statistics (spec §3, §9: "flatten to pairs on write").
type LexicalSnapshot struct {
	DF           map[string]int    `json:"df"`
	TF           map[string]TermFreq `json:"tf"`
	ChunkOrder   []string          `json:"chunkOrder"`
	AvgDocLength float64           `json:"avgDocLength"`
}

// TermFreq is one chunk's term-frequency map, flattened for JSON storage.
type TermFreq struct {
	Counts map[string]int `json:"counts"`
}

// PutLexicalSnapshot writes the snapshot atomically under the snapshot
// lock so concurrent readers never see a torn write.
func (s *Store) PutLexicalSnapshot(snap LexicalSnapshot) error {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	return putJSON(s, keyLexicalIndex, snap)
}

// GetLexicalSnapshot reads the current snapshot, or ErrNotFound if Absent.
func (s *Store) GetLexicalSnapshot() (LexicalSnapshot, error) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return getJSON[LexicalSnapshot](s, keyLexicalIndex)
}

// --- metadata ---

// SetMeta stores a free-form metadata value under key.
func (s *Store) SetMeta(key string, value string) error {
	return s.putRaw(prefixMeta+key, []byte(value))
}

// GetMeta fetches a metadata value, or ("", ErrNotFound).
func (s *Store) GetMeta(key string) (string, error) {
	raw, err := s.getRaw(prefixMeta + key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// --- notes ---

// Note is a user-owned record carrying citations, a non-central sink for
// retrieval output per spec §3.
type Note struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Citations []core.Citation `json:"citations"`
}

func noteKey(id string) string { return prefixNote + id }

// PutNote upserts a note.
func (s *Store) PutNote(n Note) error { return putJSON(s, noteKey(n.ID), n) }

// GetNote fetches a note by id.
func (s *Store) GetNote(id string) (Note, error) { return getJSON[Note](s, noteKey(id)) }

// Reset drops the docs, chunks, vectors, blobs and notes collections, the
// lexical snapshot and the "sample-seeded" flag (used by the CLI's `reset`
// subcommand). The rest of the metadata collection, including the schema
// version and the saved config, is kept.
func (s *Store) Reset() error {
	for _, p := range []string{prefixDoc, prefixChunk, prefixChunkByDoc, prefixVector, prefixBlob, prefixNote} {
		if err := s.dropPrefix(p); err != nil {
			return err
		}
	}
	if err := s.deleteRaw(keyLexicalIndex); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.deleteRaw(prefixMeta + "sample-seeded"); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
