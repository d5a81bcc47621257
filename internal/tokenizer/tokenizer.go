// Package tokenizer implements the single tokenization rule shared by the
// lexical index and the query path, adapted from the stopword-filtering
// style of the teacher's embedding/tfidf.go but specialized to spec's
// ASCII-alphanumeric splitting rule so index-time and query-time
// tokenization can never diverge.
package tokenizer

import "strings"

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "will": {}, "with": {},
}

// IsStopword reports whether tok is in the fixed stop-word set.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// Tokenize lowercases text, replaces any rune outside [A-Za-z0-9] with a
// single space, splits on whitespace, drops empty tokens, and drops
// stop-words. Pure function: identical behavior at index and query time.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	fields := strings.Fields(b.String())
	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		if tok == "" || IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
