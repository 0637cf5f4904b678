package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_DefersTrailingPartial(t *testing.T) {
	var tok Tokenizer

	assert.Equal(t, []string{"hello"}, tok.Append("hello wor"))
	assert.Equal(t, "wor", tok.Pending())
	assert.Equal(t, []string{"world"}, tok.Append("ld and"))
	assert.Equal(t, []string{"and"}, tok.Final())
	assert.Nil(t, tok.Final())
}

func TestTokenizer_NoWhitespaceYieldsNothing(t *testing.T) {
	var tok Tokenizer

	assert.Empty(t, tok.Append("super"))
	assert.Empty(t, tok.Append("cali"))
	assert.Equal(t, "supercali", tok.Pending())
	assert.Equal(t, []string{"supercali"}, tok.Final())
}

func TestTokenizer_WhitespaceRunsCollapse(t *testing.T) {
	var tok Tokenizer

	assert.Empty(t, tok.Append("   "))
	assert.Empty(t, tok.Append("\n\t "))
	assert.Equal(t, []string{"a", "b"}, tok.Append("a \n\n b\t"))
	assert.Nil(t, tok.Final())
}

func TestTokenizer_UnicodeSpaces(t *testing.T) {
	var tok Tokenizer

	// U+00A0 NO-BREAK SPACE and U+3000 IDEOGRAPHIC SPACE are whitespace.
	assert.Equal(t, []string{"a", "b"}, tok.Append("a\u00a0b\u3000c"))
	assert.Equal(t, []string{"c"}, tok.Final())
}

func TestTokenizer_EmptyAppend(t *testing.T) {
	var tok Tokenizer
	assert.Nil(t, tok.Append(""))
	assert.Nil(t, tok.Final())
}
