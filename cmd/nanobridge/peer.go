package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/config"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/output"
)

func newPeerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Interact with the monitoring peer",
		Long:  `Check and message the monitoring peer nanobridge reports to.`,
	}

	cmd.AddCommand(newPeerPingCmd())
	cmd.AddCommand(newPeerStatusCmd())
	cmd.AddCommand(newPeerNotifyCmd())

	return cmd
}

// PeerPing represents a peer health probe for JSON output.
type PeerPing struct {
	URL       string  `json:"url"`
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
}

func newPeerPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ping",
		Short:   "Check that the peer is reachable",
		Long:    `Probe the monitoring peer's health endpoint and report latency.`,
		Example: `  nanobridge peer ping`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg := config.Load()
			_, client := newPeerClient(cfg)

			start := time.Now()
			health, err := client.Health(cmd.Context())
			if err != nil {
				return clierrors.PeerUnreachable(client.BaseURL(), err)
			}
			latency := time.Since(start)

			if out.JSON {
				return out.PrintJSON(PeerPing{
					URL:       client.BaseURL(),
					Status:    health.Status,
					LatencyMS: float64(latency.Microseconds()) / 1000,
				})
			}

			out.Success("Peer is up at %s (%s, %dms)", client.BaseURL(), health.Status, latency.Milliseconds())

			return nil
		},
	}
}

func newPeerStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show the peer's status report",
		Long:    `Fetch and display the monitoring peer's self-reported status.`,
		Example: `  nanobridge peer status --json`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg := config.Load()
			_, client := newPeerClient(cfg)

			status, err := client.Status(cmd.Context())
			if err != nil {
				return clierrors.PeerUnreachable(client.BaseURL(), err)
			}

			if out.JSON {
				return out.PrintJSON(status)
			}

			out.Print("Peer:       %s\n", client.BaseURL())
			out.Print("Status:     %s\n", status.Status)
			if status.Session != "" {
				out.Print("Session:    %s\n", status.Session)
			}
			if status.LastEvent != "" {
				out.Print("Last event: %s\n", status.LastEvent)
			}

			return nil
		},
	}
}

func newPeerNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify <text>",
		Short: "Send a message to the peer",
		Long:  `Forward a free-form message to the monitoring peer's message endpoint.`,
		Example: `  nanobridge peer notify "deploy finished"
  nanobridge digest --notify`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return clierrors.EmptyPrompt()
			}

			cfg := config.Load()
			_, client := newPeerClient(cfg)

			if err := client.Notify(cmd.Context(), text); err != nil {
				return clierrors.PeerUnreachable(client.BaseURL(), err)
			}

			// Outbound messages land in the history under a reserved
			// session name so the whole conversation is reviewable.
			recordExchange(out, cfg, "peer", text, "", true, 0)

			out.Success("Message sent")

			return nil
		},
	}
}
