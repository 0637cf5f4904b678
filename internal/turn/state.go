// Package turn runs conversation turns: one user message, its dispatch,
// and the reveal of its reply, with an explicit per-turn state machine.
package turn

import (
	"errors"
	"fmt"
	"strings"
)

// Phase is the lifecycle position of a turn.
type Phase int

const (
	Idle      Phase = iota // Nothing sent yet.
	Sending                // Request in flight, no reply bytes yet.
	Streaming              // Reply partially revealed.
	Done                   // Reply complete.
	Failed                 // Turn ended with an error; Text keeps what was revealed.
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == Done || p == Failed
}

// State is the response state of one turn. Text is the partial reply while
// Streaming, the final reply when Done, and whatever had been revealed when
// Failed. Err is set only when Failed.
type State struct {
	Phase Phase
	Text  string
	Err   error
}

var (
	// ErrFinished is returned for any transition out of Done or Failed.
	ErrFinished = errors.New("turn already finished")
	// ErrNotAppend is returned when new text would rewrite revealed text.
	ErrNotAppend = errors.New("streamed text must only grow")
)

// advance validates the transition s → to and returns the resulting state.
func (s State) advance(to State) (State, error) {
	if s.Phase.Terminal() {
		return s, ErrFinished
	}

	switch to.Phase {
	case Sending:
		if s.Phase != Idle {
			return s, invalid(s.Phase, to.Phase)
		}
		to.Text, to.Err = "", nil
	case Streaming, Done:
		if s.Phase == Idle {
			return s, invalid(s.Phase, to.Phase)
		}
		if s.Phase == Streaming && !strings.HasPrefix(to.Text, s.Text) {
			return s, ErrNotAppend
		}
		to.Err = nil
	case Failed:
		if to.Err == nil {
			return s, fmt.Errorf("failed state needs an error")
		}
		if to.Text == "" {
			to.Text = s.Text
		}
	default:
		return s, invalid(s.Phase, to.Phase)
	}
	return to, nil
}

func invalid(from, to Phase) error {
	return fmt.Errorf("invalid transition %s → %s", from, to)
}
