package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-fabric-cmd/internal/install"
)

// maxOutputLines is how many install script lines the view keeps.
const maxOutputLines = 8

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to refresh elapsed times.
type TickMsg time.Time

// EventMsg carries a setup progress event.
type EventMsg install.Event

// DoneMsg signals that setup has returned.
type DoneMsg struct {
	Err error
}

// =============================================================================
// Model
// =============================================================================

type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

type step struct {
	component string
	state     stepState
	started   time.Time
	elapsed   time.Duration
	err       error
}

// Model is the setup progress view.
type Model struct {
	// Configuration
	fabricVersion string
	caVersion     string
	cancel        func()

	// Current state
	steps     []step
	lines     []string
	copied    int
	startTime time.Time
	done      bool
	err       error

	width  int
	height int

	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Components    []string
	FabricVersion string
	CAVersion     string

	// Cancel is called when the user quits before setup has finished.
	Cancel func()
}

// New creates a setup progress model.
func New(cfg Config) Model {
	steps := make([]step, len(cfg.Components))
	for i, c := range cfg.Components {
		steps[i] = step{component: c}
	}
	return Model{
		fabricVersion: cfg.FabricVersion,
		caVersion:     cfg.CAVersion,
		cancel:        cfg.Cancel,
		steps:         steps,
		startTime:     time.Now(),
		width:         80,
		height:        24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case EventMsg:
		m.apply(install.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// apply records one progress event.
func (m *Model) apply(e install.Event) {
	switch e.Kind {
	case install.EventStarted:
		if s := m.step(e.Index); s != nil {
			s.state = stepRunning
			s.started = time.Now()
		}
	case install.EventOutput:
		line := strings.TrimSpace(e.Line)
		if line == "" {
			return
		}
		m.lines = append(m.lines, line)
		if len(m.lines) > maxOutputLines {
			m.lines = m.lines[len(m.lines)-maxOutputLines:]
		}
	case install.EventFinished:
		if s := m.step(e.Index); s != nil {
			s.elapsed = e.Elapsed
			s.err = e.Err
			s.state = stepDone
			if e.Err != nil {
				s.state = stepFailed
			}
		}
	case install.EventConfigCopied:
		m.copied++
	}
}

func (m *Model) step(i int) *step {
	if i < 0 || i >= len(m.steps) {
		return nil
	}
	return &m.steps[i]
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting && !m.done {
		return ""
	}
	return m.renderView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// SendEvent forwards a setup event to a running program.
func SendEvent(p *tea.Program, e install.Event) {
	p.Send(EventMsg(e))
}

// SendDone tells a running program that setup has returned.
func SendDone(p *tea.Program, err error) {
	p.Send(DoneMsg{Err: err})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since setup started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Progress returns the finished fraction of components.
func (m Model) Progress() float64 {
	if len(m.steps) == 0 {
		return 0
	}
	finished := 0
	for _, s := range m.steps {
		if s.state == stepDone || s.state == stepFailed {
			finished++
		}
	}
	return float64(finished) / float64(len(m.steps))
}

// Done reports whether setup has returned.
func (m Model) Done() bool {
	return m.done
}

// Err returns the setup error once done.
func (m Model) Err() error {
	return m.err
}

// =============================================================================
// Formatting Helpers (used by view.go)
// =============================================================================

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// orDefault returns v, or "script default" when v is empty.
func orDefault(v string) string {
	if v == "" {
		return "script default"
	}
	return v
}
