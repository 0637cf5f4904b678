package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start a conversational session. Every message is sent with the
same session id, so the server can keep context between messages.

Typing a new message while a reply is still streaming cancels that reply
and sends the new one. Type 'exit' or 'quit' to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cyan := color.New(color.FgCyan, color.Bold)
		dim := color.New(color.FgHiBlack)
		green := color.New(color.FgGreen)

		s, err := newSession(cmd, os.Stderr, "  chatme → ")
		if err != nil {
			return err
		}
		defer s.close()

		fmt.Fprintln(os.Stderr)
		cyan.Fprintln(os.Stderr, "  chatme")
		dim.Fprintf(os.Stderr, "  Connected to %s (session %s)\n", s.cfg.Endpoint, shortID(s.conv.SessionID()))
		dim.Fprintf(os.Stderr, "  Type 'exit' to quit.\n\n")

		lines := scanLines()
		ctx := cmd.Context()

		var (
			pending string
			queued  bool
		)
		for {
			var input string
			if queued {
				input, queued = pending, false
			} else {
				green.Fprint(os.Stderr, "  you → ")
				select {
				case <-ctx.Done():
					dim.Fprintf(os.Stderr, "\n  Later! 👋\n\n")
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					input = line
				}
			}

			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" || input == "bye" {
				dim.Fprintf(os.Stderr, "\n  Later! 👋\n\n")
				return nil
			}

			t, err := s.conv.Submit(ctx, input)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(os.Stderr, "  Error: %v\n\n", err)
				continue
			}

			// Wait for the reply, or for the user to type over it.
			select {
			case <-t.Done():
			case line, ok := <-lines:
				if !ok {
					// Input closed mid-reply; let the reply finish.
					<-t.Done()
					return nil
				}
				pending, queued = line, true
			case <-ctx.Done():
				s.conv.Cancel()
				s.printer.Interrupt()
				dim.Fprintf(os.Stderr, "  Later! 👋\n\n")
				return nil
			}
		}
	},
}

// scanLines reads stdin on its own goroutine so the session can keep
// listening for input while a reply streams.
func scanLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
