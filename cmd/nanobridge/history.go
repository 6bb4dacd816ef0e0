package main

import (
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/convlog"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/output"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded conversations",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryViewCmd())
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded conversation sessions",
		Long:  `List every session with recorded exchanges, newest first.`,
		Example: `  nanobridge history list
  nanobridge history list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			dir := config.Load().HistoryDir()
			sessions, err := convlog.ListSessions(dir)
			if err != nil {
				return clierrors.HistoryFailed("list", err)
			}
			if out.JSON {
				return out.PrintJSON(sessions)
			}
			if len(sessions) == 0 {
				out.Muted("No recorded conversations found.")
				return nil
			}
			for _, s := range sessions {
				closed := "open"
				if s.ClosedAt != nil {
					closed = s.ClosedAt.Format(time.RFC3339)
				}
				out.Print("%s  started=%s  closed=%s\n", s.Session, s.StartedAt.Format(time.RFC3339), closed)
			}
			return nil
		},
	}
}

func newHistoryViewCmd() *cobra.Command {
	var (
		search string
		tail   int
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "view <session>",
		Short: "View recorded exchanges for a session",
		Long:  `Print the prompts and responses recorded for a session, oldest first.`,
		Example: `  nanobridge history view claude
  nanobridge history view claude --tail 5 --search error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := args[0]
			out := output.FromContext(cmd.Context())
			dir := config.Load().HistoryDir()

			var (
				exchanges []convlog.Exchange
				err       error
			)

			if tail > 0 {
				exchanges, err = convlog.Tail(dir, session, tail)
			} else {
				exchanges, err = convlog.ReadExchanges(dir, session)
			}
			if err != nil {
				return clierrors.HistoryFailed("read", err)
			}

			if search != "" {
				needle := strings.ToLower(search)
				filtered := exchanges[:0]
				for _, ex := range exchanges {
					if strings.Contains(strings.ToLower(ex.Prompt), needle) ||
						strings.Contains(strings.ToLower(ex.Response), needle) {
						filtered = append(filtered, ex)
					}
				}
				exchanges = filtered
			}

			if out.JSON {
				return out.PrintJSON(exchanges)
			}

			if len(exchanges) == 0 {
				out.Muted("No exchanges found.")
				return nil
			}

			for i, ex := range exchanges {
				if i > 0 {
					out.Println()
				}

				response := ex.Response
				if !raw {
					response = ansi.Strip(response)
				}

				out.Muted("[%s] %s", ex.AskedAt.Format(time.RFC3339), ex.ID)
				out.Print("> %s\n", ex.Prompt)
				if response != "" {
					out.Print("%s\n", response)
				}
				if !ex.Completed {
					out.Warning("(incomplete: wait timed out after %s)", ex.Elapsed.Round(time.Second))
				}
			}

			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter exchanges containing this substring")
	cmd.Flags().IntVar(&tail, "tail", 0, "Show only the last N exchanges")
	cmd.Flags().BoolVar(&raw, "raw", false, "Show raw responses including ANSI escape sequences")
	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete conversations older than a duration",
		Long:  `Delete recorded conversations whose sessions ended before the retention window.`,
		Example: `  nanobridge history prune
  nanobridge history prune --older-than 168h`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()
			window := cfg.HistoryRetention()
			if olderThan != "" {
				d, err := time.ParseDuration(olderThan)
				if err != nil {
					return &clierrors.CLIError{
						Message: "Invalid duration for --older-than",
						Hint:    "Use a Go duration like 168h or 720h",
						Cause:   err,
						Code:    clierrors.ExitUsage,
					}
				}
				window = d
			}

			removed, err := convlog.PruneOlderThan(cfg.HistoryDir(), time.Now().Add(-window))
			if err != nil {
				return clierrors.HistoryFailed("prune", err)
			}
			out.Success("Removed %d conversation(s)", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "Override retention window (example: 168h)")
	return cmd
}
