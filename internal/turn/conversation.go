package turn

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rawbil/chatme/internal/chat"
	"github.com/rawbil/chatme/internal/render"
)

// ErrEmptyMessage is returned by Submit for a blank message. Nothing is
// dispatched and no state changes.
var ErrEmptyMessage = chat.ErrEmptyMessage

// Dispatcher sends a request and returns its reply source.
type Dispatcher interface {
	Dispatch(ctx context.Context, req chat.Request) (*chat.Source, error)
}

// Conversation runs turns one at a time for a session. Submitting while a
// turn is still running cancels that turn and waits for it to stop before
// the new one starts, so at most one renderer ever publishes.
type Conversation struct {
	dispatcher Dispatcher
	renderer   *render.Renderer
	sessionID  string
	observer   Observer
	logger     *zap.Logger

	mu     chan struct{} // one-slot semaphore guarding active
	active *Turn
}

// Option customizes a Conversation.
type Option func(*Conversation)

// WithObserver sets the observer notified of every turn's states.
func WithObserver(o Observer) Option {
	return func(c *Conversation) { c.observer = o }
}

// WithLogger sets the logger for turn lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Conversation) { c.logger = l }
}

// NewConversation creates a conversation for sessionID.
func NewConversation(d Dispatcher, r *render.Renderer, sessionID string, opts ...Option) *Conversation {
	c := &Conversation{
		dispatcher: d,
		renderer:   r,
		sessionID:  sessionID,
		logger:     zap.NewNop(),
		mu:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID returns the session id sent with every message.
func (c *Conversation) SessionID() string {
	return c.sessionID
}

// Submit starts a turn for message. A blank message returns
// ErrEmptyMessage. If ctx ends while waiting for a previous turn to stop,
// Submit returns ctx.Err() and starts nothing.
func (c *Conversation) Submit(ctx context.Context, message string) (*Turn, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	select {
	case c.mu <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.mu }()

	if prev := c.active; prev != nil {
		select {
		case <-prev.Done():
		default:
			c.logger.Debug("canceling in-flight turn", zap.String("turn", prev.ID))
			prev.Cancel()
			select {
			case <-prev.Done():
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	t := newTurn(ctx, uuid.NewString(), chat.Request{Message: message, SessionID: c.sessionID}, c.observer, c.logger)
	c.active = t
	c.logger.Debug("turn started", zap.String("turn", t.ID))
	go t.run(c.dispatcher, c.renderer)
	return t, nil
}

// Active returns the most recently started turn, which may have finished.
func (c *Conversation) Active() *Turn {
	c.mu <- struct{}{}
	defer func() { <-c.mu }()
	return c.active
}

// Cancel stops the running turn, if any, and waits for it to release its
// resources.
func (c *Conversation) Cancel() {
	t := c.Active()
	if t == nil {
		return
	}
	t.Cancel()
	<-t.Done()
}
