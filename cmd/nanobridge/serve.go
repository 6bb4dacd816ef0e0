package main

import (
	"errors"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/api"
	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/convlog"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/observability"
	"github.com/nanobot-dev/nanobridge/internal/output"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		session string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the bridge over HTTP",
		Long: `Run the HTTP bridge so other processes can submit prompts.

Endpoints:
  POST /ask           Submit a prompt and wait for the response
  GET  /status        Classify the agent session
  POST /skill/{name}  Run a named skill through the agent
  GET  /skills        List the available skills
  GET  /health        Liveness check

Asks against the same session are serialized; concurrent prompts to
one session would interleave keystrokes.`,
		Example: `  nanobridge serve
  nanobridge serve --addr 0.0.0.0:3100 --session codex`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())

			cfg := config.Load()
			driver, name := newDriver(cfg, session)

			if addr == "" {
				addr = cfg.APIAddr()
			}
			if timeout <= 0 {
				timeout = cfg.AskTimeout()
			}

			// Requests may override the session, so exchanges are routed
			// to per-session logs rather than a single open log.
			recorder := convlog.NewRecorder(cfg.HistoryDir())
			defer func() { _ = recorder.Close() }()

			server := api.NewServer(api.Options{
				Addr:           addr,
				Session:        name,
				DefaultTimeout: timeout,
				Driver:         driver,
				Recorder:       recorder,
				SkillsDir:      cfg.SkillsDir(),
				Logger:         logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out.Info("Bridge listening on http://%s (session %s)", addr, name)
			out.Muted("Press Ctrl+C to stop")

			if err := server.ListenAndServe(ctx); err != nil {
				var opErr *net.OpError
				if errors.As(err, &opErr) {
					return clierrors.ServeFailed(addr, err)
				}
				return err
			}

			out.Println()
			out.Success("Bridge stopped")

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Default tmux session for asks")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Default per-request timeout")

	return cmd
}
