package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	got := Tokenize("The Quick-Brown Fox, jumps!")
	assert.Equal(t, []string{"quick", "brown", "fox", "jumps"}, got)
}

func TestTokenizeDropsStopwords(t *testing.T) {
	got := Tokenize("it was the cat that sat")
	assert.Equal(t, []string{"cat", "sat"}, got)
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   "))
	assert.Empty(t, Tokenize("the a an"))
}

func TestTokenizeIdempotentAfterJoin(t *testing.T) {
	x := "Hello, World! This is a TEST-of_tokenization 123."
	a := Tokenize(x)
	b := Tokenize(strings.Join(a, " "))
	assert.Equal(t, a, b)
}

func TestTokenizeNonASCIILettersTreatedAsSeparators(t *testing.T) {
	got := Tokenize("café naïve")
	assert.Equal(t, []string{"caf", "na", "ve"}, got)
}
