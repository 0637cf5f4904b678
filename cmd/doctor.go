package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rawbil/chatme/internal/config"
	"github.com/rawbil/chatme/internal/ui"
)

const probeTimeout = 3 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and endpoint health",
	Long: `Run a health check on your chatme setup.
Verifies the configuration, the config directory, and that the chat
endpoint is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)
		cyan := color.New(color.FgCyan, color.Bold)

		cyan.Fprintf(os.Stderr, "\n  🩺 chatme doctor\n\n")

		pass, fail, warn := 0, 0, 0

		check := func(name string, fn func() (string, error)) {
			detail, err := fn()
			if err != nil {
				if strings.HasPrefix(err.Error(), "warn:") {
					yellow.Fprintf(os.Stderr, "  ⚠ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", strings.TrimPrefix(err.Error(), "warn:"))
					warn++
				} else {
					red.Fprintf(os.Stderr, "  ✗ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", err.Error())
					fail++
				}
			} else {
				green.Fprintf(os.Stderr, "  ✓ %s", name)
				if detail != "" {
					dim.Fprintf(os.Stderr, " — %s", detail)
				}
				fmt.Fprintln(os.Stderr)
				pass++
			}
		}

		// 1. Configuration
		cfg, cfgErr := loadConfig(cmd)
		check("Configuration valid", func() (string, error) {
			if cfgErr != nil {
				return "", cfgErr
			}
			return fmt.Sprintf("%s mode, %s reveal delay", cfg.Mode, cfg.RevealDelay.Std()), nil
		})

		// 2. Config directory
		check("Config directory", func() (string, error) {
			dir := config.Dir()
			info, err := os.Stat(dir)
			if err != nil {
				return "", fmt.Errorf("warn:%s not found — will be created on first use", dir)
			}
			if !info.IsDir() {
				return "", fmt.Errorf("%s exists but is not a directory", dir)
			}
			return dir, nil
		})

		// 3. Endpoint reachable
		if cfg != nil {
			sp := ui.NewSpinner(os.Stderr, "Contacting "+cfg.Endpoint+"...")
			sp.Start()
			detail, err := probe(cmd.Context(), cfg.Endpoint)
			sp.Stop()
			check("Chat endpoint reachable", func() (string, error) { return detail, err })
		}

		// 4. Session
		if cfg != nil {
			check("Session id", func() (string, error) {
				if cfg.SessionID == "" {
					return "", fmt.Errorf("warn:none yet — one is created on the first message")
				}
				return cfg.SessionID, nil
			})
		}

		// 5. OS and arch
		check("System info", func() (string, error) {
			return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH), nil
		})

		// Summary
		fmt.Fprintln(os.Stderr)
		total := pass + fail + warn
		if fail == 0 && warn == 0 {
			green.Fprintf(os.Stderr, "  All %d checks passed. You're good to go.\n\n", total)
		} else if fail == 0 {
			yellow.Fprintf(os.Stderr, "  %d passed, %d warnings. Everything works, but some things could be better.\n\n", pass, warn)
		} else {
			red.Fprintf(os.Stderr, "  %d passed, %d failed, %d warnings. Fix the failures above.\n\n", pass, fail, warn)
		}

		return nil
	},
}

// probe checks that the server behind endpoint answers at its root.
func probe(ctx context.Context, endpoint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/", nil)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not connect to %s — is the chat server running?", endpoint)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", endpoint, resp.StatusCode), nil
}
