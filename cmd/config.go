package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rawbil/chatme/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chatme configuration",
}

var setEndpointCmd = &cobra.Command{
	Use:   "set-endpoint <url>",
	Short: "Set the chat endpoint base URL (default: http://127.0.0.1:8000)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetEndpoint(args[0]); err != nil {
			return fmt.Errorf("failed to save endpoint: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Endpoint set to %s.\n", args[0])
		return nil
	},
}

var setDelayCmd = &cobra.Command{
	Use:   "set-delay <duration>",
	Short: "Set the per-token reveal delay, e.g. 30ms (0 disables pacing)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}
		if err := config.SetRevealDelay(d); err != nil {
			return fmt.Errorf("failed to save reveal delay: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reveal delay set to %s.\n", d)
		return nil
	},
}

var setModeCmd = &cobra.Command{
	Use:       "set-mode <stream|buffered>",
	Short:     "Choose between streamed and buffered replies",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.ModeStream, config.ModeBuffered},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetMode(args[0]); err != nil {
			return fmt.Errorf("failed to save mode: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Mode set to %s.\n", args[0])
		return nil
	},
}

var setSessionCmd = &cobra.Command{
	Use:   "set-session [id]",
	Short: "Set the session id, or start a fresh one when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := uuid.NewString()
		if len(args) == 1 {
			id = args[0]
		}
		if err := config.SetSessionID(id); err != nil {
			return fmt.Errorf("failed to save session id: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session set to %s.\n", id)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		session := cfg.SessionID
		if session == "" {
			session = "(created on first message)"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Endpoint:     %s\n", cfg.Endpoint)
		fmt.Fprintf(out, "Session:      %s\n", session)
		fmt.Fprintf(out, "Mode:         %s\n", cfg.Mode)
		fmt.Fprintf(out, "Reveal delay: %s\n", cfg.RevealDelay.Std())
		fmt.Fprintf(out, "Timeout:      %s\n", cfg.Timeout.Std())
		fmt.Fprintf(out, "Config Dir:   %s\n", config.Dir())
		return nil
	},
}

func init() {
	configCmd.AddCommand(setEndpointCmd)
	configCmd.AddCommand(setDelayCmd)
	configCmd.AddCommand(setModeCmd)
	configCmd.AddCommand(setSessionCmd)
	configCmd.AddCommand(showCmd)
}
