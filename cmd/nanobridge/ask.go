package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/bridge"
	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/convlog"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/output"
)

// AskResult represents one ask outcome for JSON output.
type AskResult struct {
	Session        string  `json:"session"`
	Response       string  `json:"response"`
	Completed      bool    `json:"completed"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func newAskCmd() *cobra.Command {
	var (
		session  string
		timeout  time.Duration
		noRecord bool
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a prompt to the agent and wait for its response",
		Long: `Send a prompt to the agent running in the tmux session and wait
until the agent settles back at an idle prompt, then print the last
response block from the scrollback.

A timeout is not a failure: whatever the transcript held at the
deadline is printed, marked as incomplete.`,
		Example: `  nanobridge ask "summarize the build failure"
  nanobridge ask --session codex --timeout 2m "refactor main.go"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				return clierrors.EmptyPrompt()
			}

			cfg := config.Load()
			driver, name := newDriver(cfg, session)

			if timeout <= 0 {
				timeout = cfg.AskTimeout()
			}

			resp, err := driver.Ask(cmd.Context(), name, prompt, timeout)
			if err != nil {
				if errors.Is(err, bridge.ErrSessionNotFound) {
					return clierrors.SessionNotFound(name)
				}
				return err
			}

			if !noRecord {
				recordExchange(out, cfg, name, prompt, resp.Text(), resp.Completed, resp.Elapsed)
			}

			if out.JSON {
				return out.PrintJSON(AskResult{
					Session:        name,
					Response:       resp.Text(),
					Completed:      resp.Completed,
					ElapsedSeconds: resp.Elapsed.Seconds(),
				})
			}

			if text := resp.Text(); text != "" {
				out.Print("%s\n", text)
			}

			if !resp.Completed {
				out.Warning("Timed out after %s; response may be incomplete", timeout)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Target tmux session (default from config)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "How long to wait for the agent to settle")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Skip writing the exchange to conversation history")

	return cmd
}

// recordExchange appends one exchange to the conversation log. Recording is
// best effort; a failure never fails the ask that produced the response.
func recordExchange(out *output.Writer, cfg *config.Config, session, prompt, response string, completed bool, elapsed time.Duration) {
	log, err := convlog.Open(convlog.Options{Session: session, Dir: cfg.HistoryDir()})
	if err != nil {
		out.Debug("history unavailable: %v", err)
		return
	}
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			out.Debug("close history: %v", closeErr)
		}
	}()

	if err := log.Append(convlog.Exchange{
		Session:   session,
		Prompt:    prompt,
		Response:  response,
		Completed: completed,
		Elapsed:   elapsed,
	}); err != nil {
		out.Debug("record exchange: %v", err)
	}
}
