package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/bridge"
	"github.com/nanobot-dev/nanobridge/internal/config"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/output"
	"github.com/nanobot-dev/nanobridge/internal/tmux"
)

func newExtractCmd() *cobra.Command {
	var (
		session string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the last response block from a transcript",
		Long: `Run the response extractor over a transcript and print the block it
finds. Reads the live session's scrollback by default, or stdin when
piped. Useful for tuning a session profile's glyphs.`,
		Example: `  nanobridge extract
  tmux capture-pane -p -t claude | nanobridge extract
  nanobridge extract --session codex
  nanobridge extract --all`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg := config.Load()
			if session == "" {
				session = cfg.SessionName()
			}

			lines, fromStdin, err := transcriptLines(session, cfg, all)
			if err != nil {
				return err
			}

			profile := cfg.Profile(session)
			extractor := bridge.NewExtractor(bridge.NewDetector(profile.PromptGlyph), profile.ResponseMarker)

			block := extractor.LastResponse(lines)

			if out.JSON {
				return out.PrintJSON(map[string]interface{}{
					"session": session,
					"stdin":   fromStdin,
					"lines":   block,
				})
			}

			if len(block) == 0 {
				out.Muted("No completed response found.")
				return nil
			}

			for _, line := range block {
				out.Print("%s\n", line)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Target tmux session (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "Scan the session's entire scrollback, not just the capture window")

	return cmd
}

// transcriptLines reads the transcript from stdin when piped, otherwise
// from the live session's scrollback. With all set the whole history is
// captured instead of the configured window; stdin is always taken whole.
func transcriptLines(session string, cfg *config.Config, all bool) ([]string, bool, error) {
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		var lines []string

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if scanErr := scanner.Err(); scanErr != nil {
			return nil, true, fmt.Errorf("read stdin: %w", scanErr)
		}

		return lines, true, nil
	}

	tm := tmux.New()
	if all {
		raw, err := tm.CapturePaneAll(session)
		if err != nil {
			return nil, false, clierrors.SessionNotFound(session)
		}
		return strings.Split(raw, "\n"), false, nil
	}

	lines, err := tm.CapturePaneLines(session, cfg.CaptureLines())
	if err != nil {
		return nil, false, clierrors.SessionNotFound(session)
	}

	return lines, false, nil
}
