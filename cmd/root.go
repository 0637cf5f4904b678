package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ErrReported is returned when the failure was already shown to the user.
var ErrReported = errors.New("failure already reported")

var (
	endpointFlag string
	sessionFlag  string
	delayFlag    string
	bufferedFlag bool
	verbose      bool
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:   "chatme [message]",
	Short: "Chat with a remote assistant from your terminal",
	Long: `chatme posts your message to a chat endpoint and types the reply
out token by token as it streams in.

Examples:
  chatme what is a goroutine
  chatme --buffered "summarize this" < notes.txt
  chatme chat

The endpoint defaults to http://127.0.0.1:8000 (POST /chat).`,
	Args:                       cobra.ArbitraryArgs,
	RunE:                       run,
	SilenceUsage:               true,
	SilenceErrors:              true,
	TraverseChildren:           true,
	SuggestionsMinimumDistance: 1,
	PersistentPreRunE:          applyGlobalFlags,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&endpointFlag, "endpoint", "", "Chat endpoint base URL (overrides config)")
	pf.StringVar(&sessionFlag, "session", "", "Session id sent with each message (overrides config)")
	pf.StringVar(&delayFlag, "delay", "", "Reveal delay per token, e.g. 30ms or 0 (overrides config)")
	pf.BoolVar(&bufferedFlag, "buffered", false, "Expect a single JSON reply instead of a stream")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log request and stream diagnostics to stderr")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
}

func applyGlobalFlags(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}
	return nil
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the entry point called from main. Interrupts cancel the
// command's context, which cancels any running turn.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
