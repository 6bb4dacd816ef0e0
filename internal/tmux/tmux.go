// Package tmux wraps the tmux binary for driving externally managed sessions.
//
// The bridge never creates or destroys sessions: the coding agent runs in a
// session that a human (or systemd unit) started, and that session outlives
// any single nanobridge invocation. This package therefore covers only the
// operations the bridge needs: existence checks, literal keystroke delivery,
// and pane capture.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNoServer           = errors.New("no tmux server running")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSessionName = errors.New("invalid session name")
)

// validSessionNameRe validates session names to prevent shell injection.
var validSessionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateSessionName checks that a session name contains only safe characters.
// Dots and colons have special meaning in tmux targets and cause cryptic
// failures, so they are rejected along with everything else outside the set.
func validateSessionName(name string) error {
	if name == "" || !validSessionNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidSessionName, name, validSessionNameRe.String())
	}
	return nil
}

// Tmux wraps tmux operations.
type Tmux struct {
	socketName string // tmux socket name (-L flag), empty = default socket
}

// New creates a Tmux wrapper on the default socket.
func New() *Tmux {
	return &Tmux{}
}

// NewWithSocket creates a Tmux wrapper that targets a named socket.
// Used in tests to isolate from the user's personal tmux server.
func NewWithSocket(socket string) *Tmux {
	return &Tmux{socketName: socket}
}

// run executes a tmux command and returns stdout.
// All commands include the -u flag so UTF-8 glyphs (the agent's prompt
// character among them) survive capture regardless of locale settings.
func (t *Tmux) run(args ...string) (string, error) {
	allArgs := []string{"-u"}
	if t.socketName != "" {
		allArgs = append(allArgs, "-L", t.socketName)
	}
	allArgs = append(allArgs, args...)
	cmd := exec.Command("tmux", allArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", t.wrapError(err, stderr.String(), args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// wrapError maps tmux stderr output to typed errors.
func (t *Tmux) wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") ||
		strings.Contains(stderr, "server exited unexpectedly") {
		return ErrNoServer
	}
	if strings.Contains(stderr, "session not found") ||
		strings.Contains(stderr, "can't find session") {
		return ErrSessionNotFound
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// IsAvailable checks if tmux is installed and can be invoked.
func (t *Tmux) IsAvailable() bool {
	return exec.Command("tmux", "-V").Run() == nil
}

// Version returns the installed tmux version string, e.g. "tmux 3.4".
func (t *Tmux) Version() (string, error) {
	var stdout bytes.Buffer
	cmd := exec.Command("tmux", "-V")
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux -V: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// HasSession checks if a session exists (exact match).
// Uses the "=" prefix to prevent prefix matches ("claude" must not match
// "claude-scratch"). A missing session or a dead server both report false
// with a nil error; those states are expected, not failures.
func (t *Tmux) HasSession(name string) (bool, error) {
	if err := validateSessionName(name); err != nil {
		return false, err
	}
	_, err := t.run("has-session", "-t", "="+name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListSessions returns all session names.
func (t *Tmux) ListSessions() ([]string, error) {
	out, err := t.run("list-sessions", "-F", "#{session_name}")
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// SendText sends text to a session in literal mode (-l) without pressing
// Enter. Literal mode keeps quotes, semicolons, and other shell-significant
// characters intact.
func (t *Tmux) SendText(session, text string) error {
	if err := validateSessionName(session); err != nil {
		return err
	}
	_, err := t.run("send-keys", "-t", session, "-l", text)
	return err
}

// SendEnter presses Enter in a session. Sent as a separate command rather
// than appended to the text paste; a combined send-keys can submit before
// the pasted text has been processed by the receiving TUI.
func (t *Tmux) SendEnter(session string) error {
	if err := validateSessionName(session); err != nil {
		return err
	}
	_, err := t.run("send-keys", "-t", session, "Enter")
	return err
}

// SendKeysDebounced pastes text and presses Enter after a debounce delay.
// The delay lets the receiving TUI finish processing the paste so Enter
// submits the whole message instead of a prefix of it.
func (t *Tmux) SendKeysDebounced(session, text string, debounce time.Duration) error {
	if err := t.SendText(session, text); err != nil {
		return err
	}
	if debounce > 0 {
		time.Sleep(debounce)
	}
	return t.SendEnter(session)
}

// CapturePane captures the last n lines of a pane's content, including
// scrollback above the visible region when n exceeds the pane height.
func (t *Tmux) CapturePane(session string, n int) (string, error) {
	if err := validateSessionName(session); err != nil {
		return "", err
	}
	return t.run("capture-pane", "-p", "-t", session, "-S", fmt.Sprintf("-%d", n))
}

// CapturePaneAll captures the full scrollback history of a pane.
func (t *Tmux) CapturePaneAll(session string) (string, error) {
	if err := validateSessionName(session); err != nil {
		return "", err
	}
	return t.run("capture-pane", "-p", "-t", session, "-S", "-")
}

// CapturePaneLines captures the last n lines of a pane as a slice.
func (t *Tmux) CapturePaneLines(session string, n int) ([]string, error) {
	out, err := t.CapturePane(session, n)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
