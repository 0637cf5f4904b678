// stream.go prints a turn's state snapshots to the terminal.
// Streamed text only grows, so each snapshot is written as the suffix the
// previous one did not have.

package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/rawbil/chatme/internal/chat"
	"github.com/rawbil/chatme/internal/turn"
)

// Printer renders turn states to out. Use Observe as a turn.Observer.
type Printer struct {
	out     io.Writer
	prefix  string
	spinner *Spinner

	mu      sync.Mutex
	turnID  string
	printed string
	started bool
	open    bool // a turn is printing and has not reached a terminal state
}

// NewPrinter creates a Printer. prefix is written before the first token
// of each reply (e.g. "  chatme → "). spinner may be nil.
func NewPrinter(out io.Writer, prefix string, spinner *Spinner) *Printer {
	return &Printer{out: out, prefix: prefix, spinner: spinner}
}

// Observe prints the part of s not yet shown for turn id.
func (p *Printer) Observe(id string, s turn.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id != p.turnID {
		p.interruptLocked()
		p.turnID, p.printed, p.started, p.open = id, "", false, true
	}

	switch s.Phase {
	case turn.Sending:
		if p.spinner != nil {
			p.spinner.Start()
		}
	case turn.Streaming:
		p.writeLocked(s.Text)
	case turn.Done:
		p.writeLocked(s.Text)
		p.endLocked()
	case turn.Failed:
		p.stopSpinner()
		if p.printed != "" {
			dim := color.New(color.FgHiBlack)
			fmt.Fprintln(p.out)
			dim.Fprintln(p.out, "  (incomplete)")
		}
		red := color.New(color.FgRed)
		red.Fprintf(p.out, "  Error (%s): %v\n\n", chat.Kind(s.Err), s.Err)
		p.open = false
	}
}

// Interrupt marks the current reply as cut short, if one is still printing.
// Canceled turns publish nothing further, so the caller says when it happened.
func (p *Printer) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interruptLocked()
}

// Text returns the reply text printed for the current turn.
func (p *Printer) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.TrimSpace(p.printed)
}

func (p *Printer) interruptLocked() {
	if !p.open {
		return
	}
	p.stopSpinner()
	if p.started {
		fmt.Fprintln(p.out)
	}
	dim := color.New(color.FgHiBlack)
	dim.Fprint(p.out, "  (interrupted)\n\n")
	p.open = false
}

func (p *Printer) writeLocked(text string) {
	delta := text
	if strings.HasPrefix(text, p.printed) {
		delta = text[len(p.printed):]
	}
	if delta == "" {
		return
	}
	p.stopSpinner()
	if !p.started {
		cyan := color.New(color.FgCyan, color.Bold)
		cyan.Fprint(p.out, p.prefix)
		p.started = true
	}
	fmt.Fprint(p.out, delta)
	p.printed = text
}

func (p *Printer) endLocked() {
	p.stopSpinner()
	// Ensure we end with a newline.
	if p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintln(p.out)
	p.open = false
}

func (p *Printer) stopSpinner() {
	if p.spinner != nil {
		p.spinner.Stop()
	}
}
