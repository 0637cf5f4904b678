package render

import (
	"errors"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/rawbil/chatme/internal/chat"
)

// Decoder turns a chunked byte stream into UTF-8 text. An incomplete
// multi-byte sequence at the end of a chunk is held back and completed by
// the next chunk; the carry is never reset mid-stream.
type Decoder struct {
	t       transform.Transformer
	carry   []byte
	offset  int64
	flushed bool
}

// NewDecoder returns a decoder for one stream.
func NewDecoder() *Decoder {
	return &Decoder{t: encoding.UTF8Validator}
}

// Decode returns the text completed by chunk. Malformed input yields a
// *chat.DecodeError carrying the stream offset of the bad byte.
func (d *Decoder) Decode(chunk []byte) (string, error) {
	return d.transform(chunk, false)
}

// Flush ends the stream. Bytes still held back at this point can never
// form a character and are reported as a decode error.
func (d *Decoder) Flush() (string, error) {
	if d.flushed {
		return "", nil
	}
	d.flushed = true
	return d.transform(nil, true)
}

// Pending reports how many bytes are held back waiting for continuation.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) transform(chunk []byte, atEOF bool) (string, error) {
	src := chunk
	if len(d.carry) > 0 {
		src = make([]byte, 0, len(d.carry)+len(chunk))
		src = append(src, d.carry...)
		src = append(src, chunk...)
	}
	if len(src) == 0 {
		return "", nil
	}

	// UTF8Validator copies valid input through unchanged, so len(src) is enough room.
	dst := make([]byte, len(src))
	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		at := d.offset + int64(nSrc)
		d.offset += int64(nSrc)
		d.carry = nil
		return string(dst[:nDst]), &chat.DecodeError{Offset: at, Err: err}
	}

	d.offset += int64(nSrc)
	d.carry = append(d.carry[:0:0], src[nSrc:]...)
	return string(dst[:nDst]), nil
}
