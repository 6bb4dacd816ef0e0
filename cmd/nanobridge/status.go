package main

import (
	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/bridge"
	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/output"
)

// SessionState represents a session classification for JSON output.
type SessionState struct {
	Session string `json:"session"`
	Status  string `json:"status"`
}

func newStatusCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the agent session is running, busy, or stopped",
		Long: `Classify the agent session from a single scrollback snapshot
without sending any keystrokes.

  running  session exists and shows an idle prompt
  busy     session exists but is mid-work
  stopped  session does not exist`,
		Example: `  nanobridge status
  nanobridge status --session codex --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg := config.Load()
			driver, name := newDriver(cfg, session)

			status := driver.Status(name)

			if out.JSON {
				return out.PrintJSON(SessionState{Session: name, Status: string(status)})
			}

			switch status {
			case bridge.StatusRunning:
				out.Success("%s is running (idle prompt visible)", name)
			case bridge.StatusBusy:
				out.Warning("%s is busy", name)
			default:
				out.Failure("%s is stopped", name)
				out.Info("Start it with 'tmux new-session -d -s %s' and launch the agent inside", name)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Target tmux session (default from config)")

	return cmd
}
