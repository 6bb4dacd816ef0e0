package main

import (
	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/digest"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/observability"
	"github.com/nanobot-dev/nanobridge/internal/output"
)

func newDigestCmd() *cobra.Command {
	var (
		since  string
		notify bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Summarize recent machine activity",
		Long: `Collect a short machine digest: recent git commits across watched
repositories, disk usage, uptime, and the state of watched systemd
user services.

Repositories come from the configured repos directory plus any extras
in the watchlist. With --notify the rendered digest is also posted to
the monitoring peer.`,
		Example: `  nanobridge digest
  nanobridge digest --since "48 hours ago" --notify`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())

			cfg := config.Load()

			var extraRepos []string
			services := cfg.DigestServices()

			if path, err := digest.DefaultWatchlistPath(); err == nil {
				wl, wlErr := digest.LoadWatchlist(path)
				if wlErr != nil {
					out.Debug("watchlist unavailable: %v", wlErr)
				} else {
					extraRepos = wl.Repos
					services = append(services, wl.Services...)
				}
			}

			collector := digest.NewCollector(digest.Options{
				ReposDir:   cfg.ReposDir(),
				ExtraRepos: extraRepos,
				Services:   services,
				Since:      since,
				Logger:     logger,
			})

			d := collector.Collect(cmd.Context())

			if out.JSON {
				if err := out.PrintJSON(d); err != nil {
					return err
				}
			} else {
				out.Print("%s", d.Render())
			}

			if notify {
				_, client := newPeerClient(cfg)
				if err := client.Notify(cmd.Context(), d.Render()); err != nil {
					return clierrors.PeerUnreachable(client.BaseURL(), err)
				}
				recordExchange(out, cfg, "peer", d.Render(), "", true, 0)
				out.Success("Digest sent to peer")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", `Git activity window (default "24 hours ago")`)
	cmd.Flags().BoolVar(&notify, "notify", false, "Post the digest to the monitoring peer")

	return cmd
}
