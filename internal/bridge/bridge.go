// Package bridge implements the synchronization protocol for driving an
// interactive coding agent inside a terminal multiplexer session.
//
// The agent is a human-oriented TUI with no API: the only way to know it has
// finished answering is to watch its screen. The protocol is built from four
// small pieces. A Detector classifies one screen snapshot as ready or busy by
// looking for the idle prompt glyph. A Poller samples the detector on a fixed
// interval and debounces consecutive ready states. An Extractor slices the
// most recently completed response out of the scrollback transcript. The
// Driver ties them together into one blocking ask-and-wait call.
package bridge

import (
	"time"

	"github.com/nanobot-dev/nanobridge/internal/tmux"
)

// Session is the capability the protocol needs from the terminal
// multiplexer: existence checks, literal keystroke delivery, and buffer
// snapshots. *tmux.Tmux satisfies it via the Multiplexer adapter; tests
// substitute scripted fakes.
type Session interface {
	// Exists reports whether the named session is reachable. An unreachable
	// multiplexer reports false, not an error.
	Exists(name string) (bool, error)

	// Send injects text verbatim, waits out the debounce so the TUI can
	// finish absorbing the paste, then submits it.
	Send(name, text string, delay time.Duration) error

	// CaptureLines returns the last n lines of the session's buffer.
	CaptureLines(name string, n int) ([]string, error)
}

// Multiplexer adapts the tmux wrapper to the Session capability.
type Multiplexer struct {
	tm *tmux.Tmux
}

// NewMultiplexer wraps a tmux handle as a Session.
func NewMultiplexer(tm *tmux.Tmux) *Multiplexer {
	return &Multiplexer{tm: tm}
}

// Exists reports whether the session exists. HasSession already soft-fails
// to false when the server is down, which is exactly the contract here.
func (m *Multiplexer) Exists(name string) (bool, error) {
	return m.tm.HasSession(name)
}

// Send delivers text followed by Enter, debounced.
func (m *Multiplexer) Send(name, text string, delay time.Duration) error {
	return m.tm.SendKeysDebounced(name, text, delay)
}

// CaptureLines snapshots the last n lines of the session's buffer.
func (m *Multiplexer) CaptureLines(name string, n int) ([]string, error) {
	return m.tm.CapturePaneLines(name, n)
}
