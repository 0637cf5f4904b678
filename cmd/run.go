package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rawbil/chatme/internal/turn"
)

// run sends one message and prints the reply.
func run(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")

	// Piped input becomes the message, or context for it when args are given.
	if stdinData := readInput(); stdinData != "" {
		if message == "" {
			message = stdinData
		} else {
			message = fmt.Sprintf("%s\n\n%s", message, stdinData)
		}
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("please provide a message\n\nUsage: chatme <your message>\nExample: chatme what is a goroutine")
	}

	s, err := newSession(cmd, cmd.OutOrStdout(), "  ")
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	t, err := s.conv.Submit(ctx, message)
	if err != nil {
		return err
	}

	final, err := t.Wait(ctx)
	if err != nil {
		s.conv.Cancel()
		s.printer.Interrupt()
		return ErrReported
	}
	if final.Phase == turn.Failed {
		return ErrReported
	}
	return nil
}

// readInput is swapped out in tests.
var readInput = readStdin

func readStdin() string {
	info, err := os.Stdin.Stat()
	if err != nil {
		return ""
	}
	// Check if data is being piped in (not a terminal).
	if (info.Mode() & os.ModeCharDevice) != 0 {
		return ""
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
