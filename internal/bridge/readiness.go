package bridge

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// State classifies what one snapshot says about the agent.
type State int

const (
	// StateAbsent means the session does not exist.
	StateAbsent State = iota
	// StateBusy means the agent is working, or the snapshot shows no
	// evidence of an idle prompt. Absence of evidence of completion is
	// not evidence of completion, so unknown classifies as busy.
	StateBusy
	// StateReady means an idle prompt is visible and waiting for input.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateBusy:
		return "busy"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// DefaultPromptGlyph is the prompt character Claude Code renders when idle.
const DefaultPromptGlyph = "❯"

// DefaultScanWindow is how many trailing snapshot lines the detector scans.
// The prompt is near the bottom of the pane but not always the last line;
// Claude Code renders a status bar below it.
const DefaultScanWindow = 5

// Detector classifies snapshots by scanning for the idle prompt glyph.
// The heuristic is deliberately confined here so it can be tuned (different
// glyph, different window) without touching the poller or driver.
type Detector struct {
	// Glyph is the prompt character that marks an input line.
	Glyph string
	// Window is how many trailing lines to scan.
	Window int
}

// NewDetector returns a Detector for the given prompt glyph.
// An empty glyph falls back to DefaultPromptGlyph.
func NewDetector(glyph string) *Detector {
	if glyph == "" {
		glyph = DefaultPromptGlyph
	}
	return &Detector{Glyph: glyph, Window: DefaultScanWindow}
}

// Classify reports whether a snapshot shows an agent waiting for input.
//
// It scans the last Window lines. A line that is the prompt glyph followed
// only by whitespace is an idle prompt: ready. A line that starts with the
// glyph but has trailing text is the agent echoing input being typed: busy.
// No glyph at all in the window: busy.
func (d *Detector) Classify(snapshot []string) State {
	window := d.Window
	if window <= 0 {
		window = DefaultScanWindow
	}
	start := len(snapshot) - window
	if start < 0 {
		start = 0
	}

	for _, line := range snapshot[start:] {
		norm := normalizeLine(line)
		if norm == "" || !strings.HasPrefix(norm, d.Glyph) {
			continue
		}
		rest := strings.TrimPrefix(norm, d.Glyph)
		if strings.TrimSpace(rest) == "" {
			return StateReady
		}
		// Glyph with trailing text is the agent echoing typed input:
		// busy, same as finding no glyph at all.
	}
	return StateBusy
}

// IsBoundary reports whether a transcript line is an idle-prompt line.
// The extractor treats these as block delimiters, never as content.
func (d *Detector) IsBoundary(line string) bool {
	norm := normalizeLine(line)
	if !strings.HasPrefix(norm, d.Glyph) {
		return false
	}
	return strings.TrimSpace(strings.TrimPrefix(norm, d.Glyph)) == ""
}

// normalizeLine strips ANSI escape sequences, normalizes NBSP (U+00A0) to a
// regular space, and trims trailing whitespace. Claude Code pads its prompt
// glyph with NBSP, which would otherwise defeat prefix matching. Leading
// whitespace survives: the glyph only counts when it anchors the line, and
// an indented glyph is quoted or echoed content.
func normalizeLine(line string) string {
	stripped := ansi.Strip(line)
	stripped = strings.ReplaceAll(stripped, " ", " ")
	return strings.TrimRight(stripped, " \t")
}
