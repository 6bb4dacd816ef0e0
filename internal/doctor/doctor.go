// Package doctor provides diagnostic checks for nanobridge health.
//
// This package implements a check framework that validates:
//   - tmux availability and version
//   - The agent session's presence and readiness
//   - Monitoring peer connectivity
//   - Peer token presence
//   - CLI version against latest release
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nanobot-dev/nanobridge/internal/auth"
	"github.com/nanobot-dev/nanobridge/internal/bridge"
	"github.com/nanobot-dev/nanobridge/internal/buildinfo"
	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/peer"
	"github.com/nanobot-dev/nanobridge/internal/tmux"
	"github.com/nanobot-dev/nanobridge/internal/update"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Detail  string // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a new diagnostic runner.
func New() *Runner {
	r := &Runner{}

	// Register default checks
	r.AddCheck("tmux", checkTmux)
	r.AddCheck("Agent Session", checkAgentSession)
	r.AddCheck("Monitoring Peer", checkPeer)
	r.AddCheck("Peer Token", checkPeerToken)
	r.AddCheck("CLI Version", checkCLIVersion)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

// checkTmux verifies the tmux binary is reachable.
func checkTmux(_ context.Context) Result {
	t := tmux.New()

	version, err := t.Version()
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Not found in PATH",
			Detail:  "Install tmux with your package manager",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: version,
	}
}

// checkAgentSession reports whether the configured agent session exists
// and whether its prompt is idle.
func checkAgentSession(_ context.Context) Result {
	cfg := config.Load()
	session := cfg.SessionName()

	t := tmux.New()

	exists, err := t.HasSession(session)
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Cannot query session %q", session),
			Detail:  err.Error(),
		}
	}

	if !exists {
		detail := fmt.Sprintf("Start it with 'tmux new-session -d -s %s' and launch the agent inside", session)
		if running, listErr := t.ListSessions(); listErr == nil && len(running) > 0 {
			detail = fmt.Sprintf("Running sessions: %s. %s", strings.Join(running, ", "), detail)
		}
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Session %q not found", session),
			Detail:  detail,
		}
	}

	lines, err := t.CapturePaneLines(session, bridge.DefaultScanWindow)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Session %q exists but pane is unreadable", session),
			Detail:  err.Error(),
		}
	}

	detector := bridge.NewDetector(cfg.PromptGlyph())
	if detector.Classify(lines) == bridge.StateReady {
		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("Session %q ready", session),
		}
	}

	return Result{
		Status:  StatusWarn,
		Message: fmt.Sprintf("Session %q busy", session),
	}
}

// checkPeer probes the monitoring peer's health endpoint.
func checkPeer(ctx context.Context) Result {
	cfg := config.Load()
	peerURL := cfg.PeerURL()

	start := time.Now()

	_, token := auth.GetToken()
	c := peer.New(peerURL, token)

	health, err := c.Health(ctx)
	elapsed := time.Since(start)

	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Unreachable at %s", peerURL),
			Detail:  err.Error(),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s %s (%dms)", peerURL, health.Status, elapsed.Milliseconds()),
	}
}

// checkPeerToken reports whether a peer token is configured.
func checkPeerToken(_ context.Context) Result {
	source, token := auth.GetToken()

	if token == "" {
		return Result{
			Status:  StatusWarn,
			Message: "No peer token stored",
			Detail:  "Run 'nanobridge auth login' if the peer requires authentication",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("Stored (via %s)", source),
	}
}

// checkCLIVersion checks the CLI version against the latest release.
func checkCLIVersion(ctx context.Context) Result {
	current := buildinfo.Version

	if current == "dev" {
		return Result{
			Status:  StatusWarn,
			Message: "Development build (version check skipped)",
		}
	}

	if update.IsDisabled() {
		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("v%s (update checks disabled)", current),
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	updater, err := update.NewUpdater()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	info, err := updater.CheckLatest(checkCtx, current)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	if info.UpdateAvailable {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (v%s available)", current, info.LatestVersion),
			Detail:  "Run 'nanobridge update' to update",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("v%s (latest)", current),
	}
}

// RenderResults formats diagnostic results to the given output writer.
func RenderResults(results []Result, printFn, successFn, warningFn, failureFn, mutedFn func(format string, args ...any)) {
	maxNameLen := 0
	for _, r := range results {
		if len(r.Name) > maxNameLen {
			maxNameLen = len(r.Name)
		}
	}

	for _, r := range results {
		symbol := r.Status.Symbol()
		padding := maxNameLen - len(r.Name) + 4

		switch r.Status {
		case StatusPass:
			successFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusWarn:
			warningFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusFail:
			failureFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		default:
			printFn("%s %-*s%s\n", symbol, len(r.Name)+padding, r.Name, r.Message)
		}

		if r.Detail != "" {
			mutedFn("    %s", r.Detail)
		}
	}
}

// Symbol returns the status symbol for display.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return checkMark
	case StatusWarn:
		return warningMark
	case StatusFail:
		return xMark
	default:
		return "?"
	}
}

const (
	checkMark   = "✓" // ✓
	xMark       = "✗" // ✗
	warningMark = "⚠" // ⚠
)
