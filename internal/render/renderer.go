// Package render reveals a streamed chat reply token by token.
//
// A Renderer pulls raw chunks from a byte source, decodes them as UTF-8,
// splits the text on whitespace and publishes the accumulated text after
// each token, pausing a fixed delay before every token. Network chunks can
// be any size; the reader always sees the reply grow one token at a time.
package render

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rawbil/chatme/internal/chat"
)

const (
	// DefaultRevealDelay is the pause before each token is shown.
	DefaultRevealDelay = 30 * time.Millisecond
	defaultBufferSize  = 4096
)

// Update is one snapshot of a rendering stream.
type Update struct {
	// Text is the accumulated reply revealed so far. It only ever grows.
	Text string
	// Done is true on the final update of a successful stream.
	Done bool
	// Err is non-nil on the final update of a failed stream.
	Err error
}

// Renderer turns byte sources into timed text updates. A Renderer holds
// no per-stream state and may serve many streams.
type Renderer struct {
	delay   time.Duration
	bufSize int
	logger  *zap.Logger
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithDelay sets the reveal delay. Zero reveals tokens as fast as they decode.
func WithDelay(d time.Duration) Option {
	return func(r *Renderer) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithBufferSize sets the size of each read from the byte source.
func WithBufferSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.bufSize = n
		}
	}
}

// WithLogger sets the logger used for stream diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		delay:   DefaultRevealDelay,
		bufSize: defaultBufferSize,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Delay returns the configured reveal delay.
func (r *Renderer) Delay() time.Duration {
	return r.delay
}

// Stream starts consuming src and returns the channel of updates. The last
// update has Done or Err set, then the channel is closed. If ctx is
// canceled the channel closes without a final update.
//
// src is closed exactly once before the channel closes, on every path.
// Cancellation also closes src at once, which unblocks a pending read.
func (r *Renderer) Stream(ctx context.Context, src io.ReadCloser) <-chan Update {
	ch := make(chan Update)
	go r.run(ctx, src, ch)
	return ch
}

func (r *Renderer) run(ctx context.Context, src io.ReadCloser, ch chan<- Update) {
	defer close(ch)

	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := src.Close(); err != nil {
				r.logger.Debug("closing byte source", zap.Error(err))
			}
		})
	}
	defer release()
	stop := context.AfterFunc(ctx, release)
	defer stop()

	var (
		dec  = NewDecoder()
		tok  Tokenizer
		text strings.Builder
		buf  = make([]byte, r.bufSize)
	)

	emit := func(u Update) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case ch <- u:
			return true
		case <-ctx.Done():
			return false
		}
	}
	reveal := func(tokens []string) bool {
		for _, t := range tokens {
			if t == "" {
				continue
			}
			if !r.wait(ctx) {
				return false
			}
			text.WriteString(t)
			text.WriteByte(' ')
			if !emit(Update{Text: text.String()}) {
				return false
			}
		}
		return true
	}
	fail := func(err error) {
		r.logger.Debug("stream failed", zap.Error(err), zap.Int("revealed_bytes", text.Len()))
		emit(Update{Text: text.String(), Err: err})
	}

	for {
		n, err := src.Read(buf)
		if n > 0 {
			decoded, decErr := dec.Decode(buf[:n])
			if decErr != nil {
				fail(decErr)
				return
			}
			if !reveal(tok.Append(decoded)) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fail(&chat.StreamFault{Err: err})
			return
		}
	}

	tail, err := dec.Flush()
	if err != nil {
		fail(err)
		return
	}
	if !reveal(tok.Append(tail)) || !reveal(tok.Final()) {
		return
	}
	emit(Update{Text: text.String(), Done: true})
}

// wait sleeps for the reveal delay, returning false if ctx ends first.
func (r *Renderer) wait(ctx context.Context) bool {
	if r.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Handlers receive the outcome of Render. Nil handlers are skipped.
type Handlers struct {
	// OnUpdate is called with the accumulated text after each token.
	OnUpdate func(text string)
	// OnComplete is called once when the stream ends normally.
	OnComplete func()
	// OnError is called at most once, never after OnComplete.
	OnError func(err error)
}

// Render consumes src like Stream but reports through callbacks on the
// calling goroutine. It returns once src has been released: nil on
// success, the stream error, or ctx.Err() after cancellation. No handler
// runs once ctx is canceled.
func (r *Renderer) Render(ctx context.Context, src io.ReadCloser, h Handlers) error {
	ch := r.Stream(ctx, src)
	// Draining guarantees the producer has exited and released src.
	defer func() {
		for range ch {
		}
	}()

	for u := range ch {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case u.Err != nil:
			if h.OnError != nil {
				h.OnError(u.Err)
			}
			return u.Err
		case u.Done:
			if h.OnComplete != nil {
				h.OnComplete()
			}
			return nil
		default:
			if h.OnUpdate != nil {
				h.OnUpdate(u.Text)
			}
		}
	}
	return ctx.Err()
}
