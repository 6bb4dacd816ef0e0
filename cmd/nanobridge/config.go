package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/config"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/output"
	"github.com/nanobot-dev/nanobridge/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and modify nanobridge configuration settings.`,
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long:  `Display all configuration settings and their current values. Shows available settings with defaults when none are set.`,
		Example: `  nanobridge config list
  nanobridge config list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()
			settings := cfg.All()

			if out.JSON {
				return out.PrintJSON(settings)
			}

			if len(settings) == 0 {
				out.Muted("No configuration set.")
				out.Println()
				out.Println("Available settings:")

				historyDir := "<user state dir>/nanobridge/history"
				if resolved, err := paths.HistoryDir(); err == nil {
					historyDir = resolved
				}

				out.Print("  session.name            Target tmux session (default: %s)\n", config.DefaultSessionName)
				out.Print("  session.prompt_glyph    Idle-prompt character (default: %s)\n", config.DefaultPromptGlyph)
				out.Print("  session.response_marker Response marker glyph (default: %s)\n", config.DefaultResponseMarker)
				out.Print("  session.send_delay      Paste-to-Enter pause (default: 300ms)\n")
				out.Print("  poll.interval           Stability poll interval (default: 2s)\n")
				out.Print("  poll.debounce           Consecutive-ready samples (default: 2)\n")
				out.Print("  ask.timeout             Per-ask deadline (default: 60s)\n")
				out.Print("  ask.capture_lines       Transcript lines captured (default: 200)\n")
				out.Print("  api.addr                Bridge listen address (default: %s)\n", config.DefaultAPIAddr)
				out.Print("  peer.url                Monitoring peer URL (default: %s)\n", config.DefaultPeerURL)
				out.Print("  digest.repos_dir        Directory scanned for git activity (default: ~/repos)\n")
				out.Print("  history.dir             Conversation log directory (default: %s)\n", historyDir)
				out.Print("  history.retention       Default prune window (default: 720h)\n")
				out.Print("  skills.dir              Skill definitions directory (default: ~/.nanobridge/skills)\n")

				return nil
			}

			keys := make([]string, 0, len(settings))
			for key := range settings {
				keys = append(keys, key)
			}

			sort.Strings(keys)

			for _, key := range keys {
				value := settings[key]
				out.Print("%s = %v\n", key, value)
			}

			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Retrieve and display the current value of a single configuration key.`,
		Example: `  nanobridge config get session.name`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key := args[0]
			cfg := config.Load()
			value := cfg.Get(key)

			if value == nil {
				out.Muted("%s is not set", key)
				return nil
			}

			out.Print("%s = %v\n", key, value)

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a configuration value",
		Long:    `Set a configuration key to the given value. The value is persisted to the config file.`,
		Example: `  nanobridge config set session.name codex`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key, value := args[0], args[1]
			cfg := config.Load()

			if err := cfg.Set(key, value); err != nil {
				return clierrors.ConfigFailed("set config", err)
			}

			out.Success("Set %s = %s", key, value)

			return nil
		},
	}
}
