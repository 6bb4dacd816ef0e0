package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/bridge"
	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/tmux"
	"github.com/nanobot-dev/nanobridge/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		session  string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of the agent session",
		Long: `Show a live view of the agent session: its readiness state and
the tail of its scrollback, refreshed on an interval.

Press q to quit.`,
		Example: `  nanobridge watch
  nanobridge watch --session codex --interval 500ms`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if session == "" {
				session = cfg.SessionName()
			}
			if interval <= 0 {
				interval = watch.DefaultRefresh
			}

			profile := cfg.Profile(session)
			detector := bridge.NewDetector(profile.PromptGlyph)
			tm := tmux.New()

			sample := func() watch.Snapshot {
				lines, err := tm.CapturePaneLines(session, cfg.CaptureLines())
				if err != nil {
					return watch.Snapshot{State: bridge.StateAbsent, Err: err}
				}
				return watch.Snapshot{State: detector.Classify(lines), Lines: lines}
			}

			model := watch.NewModel(session, sample, interval)

			program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("watch ui: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Target tmux session (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval")

	return cmd
}
