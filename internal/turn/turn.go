package turn

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rawbil/chatme/internal/chat"
	"github.com/rawbil/chatme/internal/render"
)

// Observer receives every state a turn publishes, in order, on the turn's
// goroutine. An Observer must not call Cancel on the turn it observes.
type Observer func(id string, s State)

// Turn is one message and the lifecycle of its reply.
type Turn struct {
	ID      string
	Request chat.Request

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	observer Observer
	logger   *zap.Logger

	// notifyMu is held while an observer runs; Cancel takes it so no
	// notification can start once Cancel returns.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    State
}

func newTurn(ctx context.Context, id string, req chat.Request, observer Observer, logger *zap.Logger) *Turn {
	ctx, cancel := context.WithCancel(ctx)
	return &Turn{
		ID:       id,
		Request:  req,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		observer: observer,
		logger:   logger.With(zap.String("turn", id)),
	}
}

// State returns the current state.
func (t *Turn) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed once the turn has stopped and its byte source is released.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn stops or ctx ends, and returns the last state.
func (t *Turn) Wait(ctx context.Context) (State, error) {
	select {
	case <-t.done:
		return t.State(), nil
	case <-ctx.Done():
		return t.State(), ctx.Err()
	}
}

// Cancel stops the turn. After Cancel returns the observer is not called
// again for this turn. It does not wait for the turn's goroutine; use Done.
func (t *Turn) Cancel() {
	t.cancel()
	t.notifyMu.Lock()
	t.notifyMu.Unlock()
}

// publish moves the turn to s and notifies the observer. It returns false
// if the turn was canceled or the transition was rejected.
func (t *Turn) publish(s State) bool {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	if t.ctx.Err() != nil {
		return false
	}

	t.mu.Lock()
	next, err := t.state.advance(s)
	if err == nil {
		t.state = next
	}
	t.mu.Unlock()
	if err != nil {
		t.logger.Warn("rejected state transition", zap.Stringer("phase", s.Phase), zap.Error(err))
		return false
	}

	t.logger.Debug("turn state", zap.Stringer("phase", next.Phase), zap.Int("text_bytes", len(next.Text)))
	if t.observer != nil {
		t.observer(t.ID, next)
	}
	return true
}

// settle records cancellation as the final state without notifying anyone.
func (t *Turn) settle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Phase.Terminal() {
		return
	}
	if next, err := t.state.advance(State{Phase: Failed, Err: t.ctx.Err()}); err == nil {
		t.state = next
	}
}

func (t *Turn) run(d Dispatcher, r *render.Renderer) {
	defer close(t.done)
	defer t.cancel()
	defer func() {
		if t.ctx.Err() != nil {
			t.settle()
		}
	}()

	if !t.publish(State{Phase: Sending}) {
		return
	}

	src, err := d.Dispatch(t.ctx, t.Request)
	if err != nil {
		t.logger.Debug("dispatch failed", zap.String("kind", chat.Kind(err)), zap.Error(err))
		t.publish(State{Phase: Failed, Err: err})
		return
	}

	if src.Kind == chat.Buffered {
		t.publish(State{Phase: Done, Text: src.Text})
		return
	}

	// The renderer owns the body from here and closes it on every path.
	updates := r.Stream(t.ctx, src.Body)
	t.publish(State{Phase: Streaming})
	for u := range updates {
		switch {
		case u.Err != nil:
			t.publish(State{Phase: Failed, Text: u.Text, Err: u.Err})
		case u.Done:
			t.publish(State{Phase: Done, Text: u.Text})
		default:
			t.publish(State{Phase: Streaming, Text: u.Text})
		}
	}
}
