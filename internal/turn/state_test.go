package turn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_HappyPath(t *testing.T) {
	s := State{}
	var err error

	s, err = s.advance(State{Phase: Sending})
	require.NoError(t, err)
	s, err = s.advance(State{Phase: Streaming})
	require.NoError(t, err)
	s, err = s.advance(State{Phase: Streaming, Text: "a "})
	require.NoError(t, err)
	s, err = s.advance(State{Phase: Streaming, Text: "a b "})
	require.NoError(t, err)
	s, err = s.advance(State{Phase: Done, Text: "a b "})
	require.NoError(t, err)

	assert.Equal(t, State{Phase: Done, Text: "a b "}, s)
}

func TestAdvance_TextMustOnlyGrow(t *testing.T) {
	s := State{Phase: Streaming, Text: "hello "}

	_, err := s.advance(State{Phase: Streaming, Text: "help "})
	assert.ErrorIs(t, err, ErrNotAppend)

	_, err = s.advance(State{Phase: Done, Text: "hel"})
	assert.ErrorIs(t, err, ErrNotAppend)
}

func TestAdvance_TerminalStatesAreFinal(t *testing.T) {
	for _, s := range []State{
		{Phase: Done, Text: "x "},
		{Phase: Failed, Err: errors.New("boom")},
	} {
		_, err := s.advance(State{Phase: Streaming, Text: "x y "})
		assert.ErrorIs(t, err, ErrFinished, s.Phase.String())
		_, err = s.advance(State{Phase: Failed, Err: errors.New("again")})
		assert.ErrorIs(t, err, ErrFinished, s.Phase.String())
	}
}

func TestAdvance_FailedKeepsRevealedText(t *testing.T) {
	s := State{Phase: Streaming, Text: "partial "}
	boom := errors.New("boom")

	next, err := s.advance(State{Phase: Failed, Err: boom})
	require.NoError(t, err)
	assert.Equal(t, "partial ", next.Text)
	assert.Same(t, boom, next.Err)

	_, err = s.advance(State{Phase: Failed})
	assert.Error(t, err, "failed without an error is rejected")
}

func TestAdvance_InvalidTransitions(t *testing.T) {
	_, err := State{}.advance(State{Phase: Streaming})
	assert.Error(t, err)
	_, err = State{}.advance(State{Phase: Done})
	assert.Error(t, err)
	_, err = State{Phase: Sending}.advance(State{Phase: Sending})
	assert.Error(t, err)
	_, err = State{Phase: Sending}.advance(State{Phase: Idle})
	assert.Error(t, err)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "streaming", Streaming.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
	assert.True(t, Done.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, Streaming.Terminal())
}
