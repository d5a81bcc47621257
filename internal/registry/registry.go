// Package registry implements a process-wide, idempotent-by-id store of
// named strategies, generalizing the teacher's switch-on-cfg.Type wiring in
// cmd/rag/main.go (one switch per capability: embedder, chunker, vector
// store, summarizer) into a single reusable generic type. One Registry[T]
// instance exists per capability (chunking, embedding, retrieval,
// generation, post-processing), constructed during engine setup per
// spec §9 ("a single engine value parameter owned by the caller").
package registry

import "fmt"

// Identified is satisfied by any strategy that names itself.
type Identified interface {
	ID() string
}

// Registry holds named strategies of one capability kind. Registration is
// idempotent under the strategy id: registering the same id twice replaces
// the prior entry rather than erroring, matching spec §4.6 ("idempotent
// under the strategy id").
type Registry[T Identified] struct {
	entries map[string]T
	order   []string
}

// New constructs an empty registry for one capability.
func New[T Identified]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Register adds or replaces a strategy by its own ID().
func (r *Registry[T]) Register(strat T) {
	id := strat.ID()
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = strat
}

// Get resolves a strategy by id. The Programmer error kind (spec §7) is
// the caller's responsibility to raise when ok is false.
func (r *Registry[T]) Get(id string) (T, bool) {
	v, ok := r.entries[id]
	return v, ok
}

// MustGet resolves a strategy by id, panicking with a diagnostic on an
// unknown id — a Programmer-kind error per spec §7, intentionally not
// swallowed.
func (r *Registry[T]) MustGet(id string) T {
	v, ok := r.entries[id]
	if !ok {
		panic(fmt.Sprintf("registry: unknown strategy id %q", id))
	}
	return v
}

// Has reports whether id is registered.
func (r *Registry[T]) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// IDs returns every registered id in registration order.
func (r *Registry[T]) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
