package render

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits decoded text into whitespace-delimited tokens. Text
// after the last whitespace of a chunk may be the start of a longer token,
// so it is held until more text or the end of the stream arrives.
type Tokenizer struct {
	pending string
}

// Append adds decoded text and returns the tokens it completes, in order.
// Whitespace runs produce no tokens of their own.
func (t *Tokenizer) Append(text string) []string {
	if text == "" {
		return nil
	}
	buf := t.pending + text

	last := strings.LastIndexFunc(buf, unicode.IsSpace)
	if last < 0 {
		t.pending = buf
		return nil
	}
	_, size := utf8.DecodeRuneInString(buf[last:])
	t.pending = buf[last+size:]
	return strings.Fields(buf[:last])
}

// Final flushes the held-back token, if any.
func (t *Tokenizer) Final() []string {
	if t.pending == "" {
		return nil
	}
	tok := t.pending
	t.pending = ""
	return []string{tok}
}

// Pending returns the partial token held back so far.
func (t *Tokenizer) Pending() string {
	return t.pending
}
