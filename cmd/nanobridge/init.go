package main

import (
	"github.com/spf13/cobra"

	"github.com/nanobot-dev/nanobridge/internal/output"
	"github.com/nanobot-dev/nanobridge/internal/wizard"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Setup nanobridge for first use",
		Long: `Initialize nanobridge with a guided setup wizard.

The wizard will:
  1. Check tmux and the agent session
  2. Pick a session profile
  3. Optionally store a peer token
  4. Show next steps

If a peer token already exists, use --force to overwrite it.`,
		Example: `  nanobridge init`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			w := wizard.New(out, force)

			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing credentials without prompting")

	return cmd
}
