package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrSessionNotFound is returned when the target session does not exist or
// the multiplexer is unreachable. It is fatal: no keystrokes have been sent
// and the caller must start the session externally before trying again.
var ErrSessionNotFound = errors.New("session not found")

// Driver defaults.
const (
	// DefaultSendDelay is the pause between pasting the prompt text and
	// pressing Enter. Without it the multiplexer can echo the paste after
	// the Enter has already been processed, submitting a truncated prompt.
	DefaultSendDelay = 300 * time.Millisecond

	// DefaultAskTimeout bounds one ask when the caller does not choose.
	DefaultAskTimeout = 60 * time.Second

	// DefaultCaptureWindow is how many transcript lines the driver captures
	// for extraction once polling ends.
	DefaultCaptureWindow = 200
)

// SessionStatus is the cheap pre-flight classification of a session.
type SessionStatus string

const (
	// StatusRunning means the session exists and shows an idle prompt.
	StatusRunning SessionStatus = "running"
	// StatusBusy means the session exists but is mid-work.
	StatusBusy SessionStatus = "busy"
	// StatusStopped means the session does not exist.
	StatusStopped SessionStatus = "stopped"
)

// Response is the outcome of one ask.
type Response struct {
	// Lines is the extracted response block. Empty is a valid result when
	// no completed response boundary exists yet.
	Lines []string

	// Completed reports whether the poll confirmed the agent returned to
	// an idle prompt. False means the wait timed out and Lines is a
	// best-effort capture, possibly mid-answer.
	Completed bool

	// Elapsed is how long the ask took end to end.
	Elapsed time.Duration
}

// Text joins the response lines for callers that want a single string.
func (r *Response) Text() string {
	return strings.Join(r.Lines, "\n")
}

// Driver orchestrates one request/response exchange against a session:
// existence check, prompt injection, stability poll, transcript extraction.
//
// A Driver performs no internal retries. Re-sending after a partial failure
// risks duplicate keystroke delivery, and only the caller can judge whether
// that is safe. It also provides no cross-request locking: two concurrent
// asks against the same session name interleave keystrokes, so callers must
// serialize per session name.
type Driver struct {
	session   Session
	detector  *Detector
	poller    *Poller
	extractor *Extractor
	log       *slog.Logger

	// SendDelay is the paste-to-Enter debounce.
	SendDelay time.Duration
	// CaptureWindow is the transcript size captured for extraction.
	CaptureWindow int
}

// NewDriver assembles a Driver from its parts. An empty marker falls back
// to DefaultResponseMarker; a nil logger discards.
func NewDriver(session Session, det *Detector, poller *Poller, marker string, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Driver{
		session:       session,
		detector:      det,
		poller:        poller,
		extractor:     NewExtractor(det, marker),
		log:           log,
		SendDelay:     DefaultSendDelay,
		CaptureWindow: DefaultCaptureWindow,
	}
}

// Ask submits a prompt to the named session and waits for the response.
//
// The session must already exist; ErrSessionNotFound is returned before any
// keystroke is sent otherwise. A timeout is not an error: the returned
// Response carries whatever the transcript held at the deadline, with
// Completed=false.
func (d *Driver) Ask(ctx context.Context, name, prompt string, timeout time.Duration) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt must not be empty")
	}
	if timeout <= 0 {
		timeout = DefaultAskTimeout
	}
	start := time.Now()

	exists, err := d.session.Exists(name)
	if err != nil || !exists {
		// Capability failures map to absent rather than propagating raw:
		// either way the caller's remedy is to (re)start the session.
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}

	d.log.Info("sending prompt",
		slog.String("session", name),
		slog.Int("prompt_chars", len(prompt)),
		slog.Duration("timeout", timeout))

	if err := d.session.Send(name, sanitizePrompt(prompt), d.SendDelay); err != nil {
		return nil, fmt.Errorf("sending prompt: %w", err)
	}

	result := d.poller.WaitUntilStable(ctx, timeout, func() State {
		return d.classify(name, d.detector.Window)
	})

	transcript, err := d.session.CaptureLines(name, d.CaptureWindow)
	if err != nil {
		// The response may be gone with the session, but the keystrokes
		// were delivered; report the terminal state rather than retrying.
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}

	resp := &Response{
		Lines:     d.extractor.LastResponse(transcript),
		Completed: result == Stable,
		Elapsed:   time.Since(start),
	}

	if result == TimedOut {
		d.log.Warn("response wait timed out, returning best-effort extraction",
			slog.String("session", name),
			slog.Duration("timeout", timeout),
			slog.Int("lines", len(resp.Lines)))
	} else {
		d.log.Info("response extracted",
			slog.String("session", name),
			slog.Int("lines", len(resp.Lines)),
			slog.Duration("elapsed", resp.Elapsed))
	}
	return resp, nil
}

// Status classifies the named session from a single snapshot without
// sending any keystrokes. Capability failures report stopped.
func (d *Driver) Status(name string) SessionStatus {
	exists, err := d.session.Exists(name)
	if err != nil || !exists {
		return StatusStopped
	}
	switch d.classify(name, d.detector.Window) {
	case StateReady:
		return StatusRunning
	case StateAbsent:
		return StatusStopped
	default:
		return StatusBusy
	}
}

// classify captures a small snapshot and runs the detector over it.
func (d *Driver) classify(name string, window int) State {
	lines, err := d.session.CaptureLines(name, window)
	if err != nil {
		return StateAbsent
	}
	return d.detector.Classify(lines)
}

// sanitizePrompt strips control characters that corrupt literal keystroke
// delivery. ESC triggers escape sequences, CR acts as a premature Enter,
// BS deletes characters. Tabs become spaces so they cannot trigger shell
// completion. Printable text, including quotes and Unicode, passes through.
func sanitizePrompt(prompt string) string {
	var b strings.Builder
	b.Grow(len(prompt))
	for _, r := range prompt {
		switch {
		case r == '\t':
			b.WriteRune(' ')
		case r == '\n':
			b.WriteRune(r)
		case r < 0x20, r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
