// Package rerr classifies pipeline errors into the five kinds from spec §7
// so the CLI can map them to the mandated exit codes without every caller
// re-deriving the taxonomy. The teacher had no error taxonomy of its own
// (plain fmt.Errorf wrapping throughout service/rag_service.go); this is a
// thin addition on top of that same wrapping style, not a replacement for
// it — Kind wraps an existing error rather than inventing a new one.
package rerr

import (
	"errors"
	"fmt"
)

// Kind is one of the five error categories from spec §7.
type Kind int

const (
	// KindInput: unsupported file kind, empty content, malformed config.
	KindInput Kind = iota
	// KindTransient: embedder/model load failure, store write failure.
	KindTransient
	// KindConsistency: vector-dimension mismatch, snapshot/chunk drift.
	KindConsistency
	// KindProgrammer: unknown strategy id, violated invariant.
	KindProgrammer
	// KindCancel: user-initiated cancellation, not an error at the log level.
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTransient:
		return "transient"
	case KindConsistency:
		return "consistency"
	case KindProgrammer:
		return "programmer"
	case KindCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with kind. A nil err yields a nil *Error typed as error.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindProgrammer for
// untagged errors — an unclassified error reaching the CLI boundary is
// itself a diagnostic, not something to silently downgrade. errors.As
// walks err's Unwrap chain, so a *Error wrapped by further fmt.Errorf
// calls upstream of the CLI boundary is still found.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindProgrammer
}
