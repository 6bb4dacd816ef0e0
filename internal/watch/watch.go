// Package watch implements the live session view: a small terminal UI
// that polls the agent session and renders its readiness state alongside
// the tail of the pane.
package watch

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nanobot-dev/nanobridge/internal/bridge"
)

// DefaultRefresh is how often the view re-samples the session.
const DefaultRefresh = 1 * time.Second

// tailLines is how much of the pane the view shows.
const tailLines = 15

// Snapshot is one sample of the watched session.
type Snapshot struct {
	State bridge.State
	Lines []string
	Err   error
}

// SampleFunc produces a session snapshot. Called once per refresh tick.
type SampleFunc func() Snapshot

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	readyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	absentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	paneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

type tickMsg time.Time

// Model is the bubbletea model for the watch view.
type Model struct {
	session string
	sample  SampleFunc
	refresh time.Duration

	spinner  spinner.Model
	snapshot Snapshot
	sampled  bool
	width    int
}

// NewModel builds a watch model for one session.
func NewModel(session string, sample SampleFunc, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		session: session,
		sample:  sample,
		refresh: refresh,
		spinner: sp,
		width:   80,
	}
}

// Init starts the spinner and the first sample tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses, refresh ticks and spinner frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.snapshot = m.sample()
		m.sampled = true

		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// View renders the title bar, state line and pane tail.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("nanobridge watch - " + m.session))
	b.WriteString("\n\n")

	b.WriteString(m.stateLine())
	b.WriteString("\n\n")

	if !m.sampled {
		b.WriteString(mutedStyle.Render("waiting for first sample..."))
		b.WriteString("\n")
	} else {
		lines := m.snapshot.Lines
		if len(lines) > tailLines {
			lines = lines[len(lines)-tailLines:]
		}

		for _, line := range lines {
			b.WriteString(paneStyle.Render(truncate(line, m.width)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("q to quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) stateLine() string {
	if m.snapshot.Err != nil {
		return absentStyle.Render("error: " + m.snapshot.Err.Error())
	}

	if !m.sampled {
		return m.spinner.View() + " " + mutedStyle.Render("connecting")
	}

	switch m.snapshot.State {
	case bridge.StateReady:
		return readyStyle.Render("● ready")
	case bridge.StateBusy:
		return m.spinner.View() + " " + busyStyle.Render("busy")
	default:
		return absentStyle.Render("✗ session not found")
	}
}

// truncate cuts a line to the terminal width, accounting for wide runes.
func truncate(line string, width int) string {
	if width <= 0 {
		return line
	}

	return runewidth.Truncate(line, width, "…")
}
