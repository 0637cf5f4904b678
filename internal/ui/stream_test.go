package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/rawbil/chatme/internal/chat"
	"github.com/rawbil/chatme/internal/turn"
)

func init() {
	color.NoColor = true
}

func feed(p *Printer, id string, states ...turn.State) {
	for _, s := range states {
		p.Observe(id, s)
	}
}

func TestPrinter_WritesOnlyDeltas(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "  ", nil)

	feed(p, "t1",
		turn.State{Phase: turn.Sending},
		turn.State{Phase: turn.Streaming},
		turn.State{Phase: turn.Streaming, Text: "hello "},
		turn.State{Phase: turn.Streaming, Text: "hello world "},
		turn.State{Phase: turn.Done, Text: "hello world "},
	)

	if got, want := buf.String(), "  hello world \n\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if p.Text() != "hello world" {
		t.Errorf("expected trimmed text 'hello world', got %q", p.Text())
	}
}

func TestPrinter_EmptyPrefix(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "", nil)

	feed(p, "t1",
		turn.State{Phase: turn.Sending},
		turn.State{Phase: turn.Done, Text: "test"},
	)

	if strings.HasPrefix(buf.String(), " ") {
		t.Error("empty prefix should not add leading space")
	}
	if !strings.HasPrefix(buf.String(), "test") {
		t.Errorf("expected buffered reply printed whole, got %q", buf.String())
	}
}

func TestPrinter_PreservesExistingNewline(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "", nil)

	feed(p, "t1", turn.State{Phase: turn.Sending}, turn.State{Phase: turn.Done, Text: "ends with newline\n"})

	if strings.HasSuffix(buf.String(), "\n\n\n") {
		t.Errorf("should not triple-newline, got %q", buf.String())
	}
}

func TestPrinter_FailureAfterPartialText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "", nil)

	feed(p, "t1",
		turn.State{Phase: turn.Sending},
		turn.State{Phase: turn.Streaming, Text: "partial "},
		turn.State{Phase: turn.Failed, Text: "partial ", Err: &chat.StreamFault{Err: errors.New("stream broke")}},
	)

	out := buf.String()
	if !strings.Contains(out, "partial") {
		t.Errorf("partial text should stay visible, got %q", out)
	}
	if !strings.Contains(out, "(incomplete)") {
		t.Errorf("partial text must be marked incomplete, got %q", out)
	}
	if !strings.Contains(out, "Error (stream)") || !strings.Contains(out, "stream broke") {
		t.Errorf("expected error kind and message, got %q", out)
	}
}

func TestPrinter_FailureWithoutText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "  ", nil)

	feed(p, "t1",
		turn.State{Phase: turn.Sending},
		turn.State{Phase: turn.Failed, Err: &chat.TransportError{StatusCode: 500}},
	)

	out := buf.String()
	if strings.Contains(out, "(incomplete)") {
		t.Errorf("nothing was revealed, got %q", out)
	}
	if !strings.Contains(out, "status 500") {
		t.Errorf("expected status in output, got %q", out)
	}
}

func TestPrinter_NewTurnInterruptsOpenTurn(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "", nil)

	feed(p, "t1", turn.State{Phase: turn.Sending}, turn.State{Phase: turn.Streaming, Text: "first "})
	feed(p, "t2", turn.State{Phase: turn.Sending}, turn.State{Phase: turn.Done, Text: "second"})

	out := buf.String()
	if !strings.Contains(out, "first \n  (interrupted)") {
		t.Errorf("expected first reply marked interrupted, got %q", out)
	}
	if !strings.HasSuffix(out, "second\n\n") {
		t.Errorf("expected second reply printed, got %q", out)
	}
	if p.Text() != "second" {
		t.Errorf("Text should track the latest turn, got %q", p.Text())
	}
}

func TestPrinter_InterruptIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "", nil)

	p.Interrupt() // nothing open
	feed(p, "t1", turn.State{Phase: turn.Sending}, turn.State{Phase: turn.Done, Text: "ok"})
	p.Interrupt() // already finished

	if strings.Contains(buf.String(), "(interrupted)") {
		t.Errorf("finished turn must not be marked interrupted, got %q", buf.String())
	}
}
