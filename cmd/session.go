package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rawbil/chatme/internal/chat"
	"github.com/rawbil/chatme/internal/config"
	"github.com/rawbil/chatme/internal/logging"
	"github.com/rawbil/chatme/internal/render"
	"github.com/rawbil/chatme/internal/turn"
	"github.com/rawbil/chatme/internal/ui"
)

// session bundles everything one command invocation needs to run turns.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	printer *ui.Printer
	conv    *turn.Conversation
}

// loadConfig reads the config and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpointFlag
	}
	if flags.Changed("session") {
		cfg.SessionID = sessionFlag
	}
	if flags.Changed("delay") {
		d, err := time.ParseDuration(delayFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --delay %q: %w", delayFlag, err)
		}
		cfg.RevealDelay = config.Duration(d)
	}
	if flags.Changed("buffered") && bufferedFlag {
		cfg.Mode = config.ModeBuffered
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func newSession(cmd *cobra.Command, out io.Writer, prefix string) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	sessionID, err := config.EnsureSession(cfg)
	if err != nil {
		// Not being able to persist the id only costs continuity across runs.
		sessionID = uuid.NewString()
		logger.Warn("could not persist session id", zap.Error(err))
	}

	dispatcher := chat.NewDispatcher(cfg, chat.WithLogger(logger))
	renderer := render.New(
		render.WithDelay(cfg.RevealDelay.Std()),
		render.WithLogger(logger),
	)
	printer := ui.NewPrinter(out, prefix, ui.NewSpinner(os.Stderr, "Thinking..."))
	conv := turn.NewConversation(dispatcher, renderer, sessionID,
		turn.WithObserver(printer.Observe),
		turn.WithLogger(logger),
	)

	logger.Debug("session ready",
		zap.String("endpoint", dispatcher.URL()),
		zap.String("session", sessionID),
		zap.String("mode", cfg.Mode),
		zap.Duration("reveal_delay", renderer.Delay()))

	return &session{cfg: cfg, logger: logger, printer: printer, conv: conv}, nil
}

func (s *session) close() {
	s.conv.Cancel()
	_ = s.logger.Sync()
}
