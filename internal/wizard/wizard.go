// Package wizard provides the initialization wizard for the nanobridge CLI.
//
// The wizard guides users through first-time setup:
//  1. Welcome message
//  2. tmux and agent session checks
//  3. Session profile selection
//  4. Optional peer token storage
//  5. Next steps guidance
package wizard

import (
	"context"
	"fmt"
	"sort"

	"github.com/nanobot-dev/nanobridge/internal/auth"
	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/output"
	"github.com/nanobot-dev/nanobridge/internal/peer"
	"github.com/nanobot-dev/nanobridge/internal/prompt"
	"github.com/nanobot-dev/nanobridge/internal/tmux"
)

// Wizard handles the initialization flow.
type Wizard struct {
	out      *output.Writer
	prompter *prompt.Prompter
	force    bool
}

// New creates a new initialization wizard.
func New(out *output.Writer, force bool) *Wizard {
	return &Wizard{
		out:      out,
		prompter: prompt.New(out),
		force:    force,
	}
}

// Run executes the initialization wizard.
func (w *Wizard) Run(ctx context.Context) error {
	// Welcome
	w.out.Println("Welcome to nanobridge!")
	w.out.Println("======================")
	w.out.Println()
	w.out.Println("Nanobridge glues a chat automation agent to a coding agent")
	w.out.Println("running inside a persistent tmux session.")
	w.out.Println()

	cfg := config.Load()

	// Step 1: environment checks
	w.out.Println("Step 1: Environment")
	w.out.Println("-------------------")

	tm := tmux.New()

	version, err := tm.Version()
	if err != nil {
		w.out.Failure("tmux not found")
		w.out.Info("Install tmux with your package manager, then rerun 'nanobridge init'")
		return nil
	}
	w.out.Success("%s", version)

	sessionName := cfg.SessionName()
	if exists, hasErr := tm.HasSession(sessionName); hasErr == nil && exists {
		w.out.Success("Session '%s' is running", sessionName)
	} else {
		w.out.Warning("Session '%s' not found", sessionName)
		w.out.Muted("Start it with 'tmux new-session -d -s %s' and launch the agent inside", sessionName)
	}

	// Step 2: session profile
	if !w.prompter.CanPrompt() {
		w.out.Println()
		w.out.Failure("Cannot run init wizard in non-interactive mode")
		w.out.Println()
		w.out.Info("Either:")
		w.out.Print("  1. Run without --no-input flag\n")
		w.out.Print("  2. Set NANOBRIDGE_SESSION_NAME and NANOBRIDGE_PEER_TOKEN environment variables\n")
		w.out.Print("  3. Run 'nanobridge config set' and 'nanobridge auth login' directly\n")
		return nil
	}

	w.out.Println()
	w.out.Println("Step 2: Session Profile")
	w.out.Println("-----------------------")
	w.out.Println("Pick the profile matching the agent in your tmux session.")
	w.out.Muted("Profiles define the prompt glyph and response marker the bridge watches for.")

	profiles, err := config.LoadProfiles()
	if err != nil {
		return fmt.Errorf("load session profiles: %w", err)
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]*config.Profile, 0, len(names))
	for _, name := range names {
		list = append(list, profiles[name])
	}

	selected, err := prompt.SelectProfile(list, w.out)
	if err != nil {
		if prompt.IsCanceled(err) {
			return nil
		}
		return fmt.Errorf("failed to select profile: %w", err)
	}

	if err := cfg.Set("session.name", selected.Name); err != nil {
		w.out.Warning("Failed to save session to config: %s", err.Error())
	} else {
		w.out.Success("Selected session: %s", selected.Name)
	}

	// Step 3: peer token
	w.out.Println()
	w.out.Println("Step 3: Monitoring Peer")
	w.out.Println("-----------------------")
	w.out.Print("Peer URL: %s\n", cfg.PeerURL())

	// Check for existing token first
	source, existingToken := auth.GetToken()
	if existingToken != "" && !w.force {
		w.out.Warning("Existing peer token found (via %s)", source)

		overwrite, confirmErr := w.prompter.Confirm("Overwrite existing token?", false)
		if confirmErr != nil {
			if prompt.IsCanceled(confirmErr) {
				return nil
			}
			return confirmErr
		}
		if !overwrite {
			w.out.Success("Keeping existing token")
			w.probePeer(ctx, cfg)
			w.showNextSteps()
			return nil
		}
		w.out.Println()
	}

	needsToken, err := w.prompter.Confirm("Does the peer require a token?", false)
	if err != nil {
		if prompt.IsCanceled(err) {
			return nil
		}
		return err
	}

	if needsToken {
		token, pwErr := w.prompter.Password("Peer token")
		if pwErr != nil {
			return fmt.Errorf("failed to read token: %w", pwErr)
		}

		if token == "" {
			w.out.Failure("Token cannot be empty")
			return nil
		}

		spin := w.out.Spinner("Storing token")
		spin.Start()

		if storeErr := auth.StoreToken(token); storeErr != nil {
			spin.StopWithFailure("Failed to store token")
			w.out.Muted("%s", storeErr.Error())
			return nil
		}

		spin.StopWithSuccess("Token stored securely")
	}

	w.probePeer(ctx, cfg)

	// Success
	w.out.Println()
	w.out.Success("Nanobridge is ready!")
	w.showNextSteps()

	return nil
}

// probePeer checks peer reachability. Advisory only; the peer being down
// right now does not invalidate the setup.
func (w *Wizard) probePeer(ctx context.Context, cfg *config.Config) {
	_, token := auth.GetToken()

	spin := w.out.Spinner("Checking peer")
	spin.Start()

	client := peer.New(cfg.PeerURL(), token)
	if _, err := client.Health(ctx); err != nil {
		spin.StopWithWarning("Peer not reachable")
		w.out.Muted("%s", err.Error())
		return
	}

	spin.StopWithSuccess("Peer is up")
}

func (w *Wizard) showNextSteps() {
	w.out.Println()
	w.out.Println("Next steps:")
	w.out.Println("  nanobridge doctor       Check your setup")
	w.out.Println("  nanobridge ask \"...\"    Send a one-off prompt")
	w.out.Println("  nanobridge serve        Expose the bridge over HTTP")
	w.out.Println("  nanobridge --help       See all commands")
}
