package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/auth"
	"github.com/nanobot-dev/nanobridge/internal/config"
	clierrors "github.com/nanobot-dev/nanobridge/internal/errors"
	"github.com/nanobot-dev/nanobridge/internal/output"
	"github.com/nanobot-dev/nanobridge/internal/prompt"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the peer token",
		Long:  `Store and inspect the token nanobridge presents to the monitoring peer.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var tokenFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the peer token",
		Long: `Store the token the monitoring peer expects.

The token will be stored securely in your system's keyring
(macOS Keychain, Windows Credential Manager, or Linux Secret Service).

You can also set the NANOBRIDGE_PEER_TOKEN environment variable.`,
		Example: `  nanobridge auth login
  nanobridge auth login --token <token>`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			prompter := prompt.New(out)

			// Check if already configured via env var
			if token := os.Getenv("NANOBRIDGE_PEER_TOKEN"); token != "" {
				out.Info("NANOBRIDGE_PEER_TOKEN environment variable is set")
				out.Muted("Environment variable takes precedence over stored credentials")
				out.Println()
			}

			var token string
			if tokenFlag != "" {
				token = tokenFlag
			} else {
				// Interactive flow: prompt for the token
				if !prompter.CanPrompt() {
					return clierrors.CannotPrompt("NANOBRIDGE_PEER_TOKEN")
				}

				var err error

				token, err = prompter.Password("Enter the peer token")
				if err != nil {
					return fmt.Errorf("read token prompt: %w", err)
				}
			}

			if token == "" {
				return clierrors.NotAuthenticated()
			}

			// Probe the peer with spinner; reachability is advisory since
			// the peer may simply be down right now
			spin := out.Spinner("Checking peer")
			spin.Start()

			cfg := config.Load()
			_, client := newPeerClient(cfg)

			if _, err := client.Health(cmd.Context()); err != nil {
				spin.StopWithWarning("Peer not reachable; storing token anyway")
			} else {
				spin.StopWithSuccess("Peer is up")
			}

			// Store in keyring
			if err := auth.StoreToken(token); err != nil {
				return clierrors.ConfigFailed("store credentials", err)
			}

			out.Success("Peer token stored")

			return nil
		},
	}

	cmd.Flags().StringVar(&tokenFlag, "token", "", "Token for non-interactive login (prefer NANOBRIDGE_PEER_TOKEN env var to avoid shell history exposure)")

	return cmd
}

// AuthStatus represents authentication status for JSON output.
type AuthStatus struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
	PeerURL    string `json:"peer_url"`
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the peer token comes from",
		Long:  `Report whether a peer token is configured and which source it was loaded from.`,
		Example: `  nanobridge auth status
  nanobridge auth status --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg := config.Load()
			source, token := auth.GetToken()

			if out.JSON {
				return out.PrintJSON(AuthStatus{
					Configured: token != "",
					Source:     string(source),
					PeerURL:    cfg.PeerURL(),
				})
			}

			if token == "" {
				out.Muted("No peer token configured")
				out.Info("Run 'nanobridge auth login' if the peer requires authentication")
				return nil
			}

			out.Success("Peer token configured")
			out.Print("Source: %s\n", source)
			out.Print("Peer:   %s\n", cfg.PeerURL())

			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Clear the stored peer token",
		Long:    `Remove the peer token from the keyring and the credentials file.`,
		Example: `  nanobridge auth logout`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if err := auth.DeleteToken(); err != nil {
				// If the token doesn't exist, that's fine
				if strings.Contains(err.Error(), "not found") {
					out.Muted("No stored token found")
					return nil
				}

				return clierrors.ConfigFailed("clear credentials", err)
			}

			out.Success("Peer token removed")

			if os.Getenv("NANOBRIDGE_PEER_TOKEN") != "" {
				out.Println()
				out.Warning("NANOBRIDGE_PEER_TOKEN environment variable is still set")
			}

			return nil
		},
	}
}
