package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/go-fabric-cmd/internal/install"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestModel(components ...string) Model {
	return New(Config{Components: components, FabricVersion: "2.5.12"})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// =============================================================================
// Tests: events
// =============================================================================

func TestModel_ProgressFollowsEvents(t *testing.T) {
	m := newTestModel("binary", "docker")
	assert.Zero(t, m.Progress())

	m, _ = update(t, m, EventMsg{Kind: install.EventStarted, Component: "binary", Index: 0, Total: 2})
	assert.Equal(t, stepRunning, m.steps[0].state)
	assert.Zero(t, m.Progress())

	m, _ = update(t, m, EventMsg{Kind: install.EventFinished, Component: "binary", Index: 0, Total: 2, Elapsed: time.Second})
	assert.Equal(t, stepDone, m.steps[0].state)
	assert.InDelta(t, 0.5, m.Progress(), 0.001)

	m, _ = update(t, m, EventMsg{Kind: install.EventFinished, Component: "docker", Index: 1, Total: 2, Err: errors.New("pull failed")})
	assert.Equal(t, stepFailed, m.steps[1].state)
	assert.InDelta(t, 1.0, m.Progress(), 0.001)
	assert.Contains(t, m.View(), "pull failed")
}

func TestModel_OutOfRangeIndexIgnored(t *testing.T) {
	m := newTestModel("binary")
	m, _ = update(t, m, EventMsg{Kind: install.EventStarted, Index: 5})
	m, _ = update(t, m, EventMsg{Kind: install.EventFinished, Index: -1})
	assert.Equal(t, stepPending, m.steps[0].state)
}

func TestModel_OutputKeepsRecentLines(t *testing.T) {
	m := newTestModel("binary")
	for i := 0; i < maxOutputLines+3; i++ {
		m, _ = update(t, m, EventMsg{Kind: install.EventOutput, Line: string(rune('a' + i))})
	}
	m, _ = update(t, m, EventMsg{Kind: install.EventOutput, Line: "   "})

	require.Len(t, m.lines, maxOutputLines)
	assert.Equal(t, "d", m.lines[0])
	assert.Equal(t, "k", m.lines[maxOutputLines-1])
}

func TestModel_ConfigCopied(t *testing.T) {
	m := newTestModel("binary")
	m, _ = update(t, m, EventMsg{Kind: install.EventConfigCopied, Line: "/etc/hyperledger/fabric/core.yaml"})
	m, _ = update(t, m, EventMsg{Kind: install.EventConfigCopied, Line: "/etc/hyperledger/fabric/orderer.yaml"})
	assert.Equal(t, 2, m.copied)
	assert.Contains(t, m.View(), "2 copied")
}

// =============================================================================
// Tests: lifecycle
// =============================================================================

func TestModel_DoneQuits(t *testing.T) {
	m := newTestModel("binary")
	cause := errors.New("install binary: exited with code 1")

	m, cmd := update(t, m, DoneMsg{Err: cause})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Done())
	assert.Equal(t, cause, m.Err())
	assert.Contains(t, m.View(), "Setup failed")

	_, cmd = update(t, m, TickMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestModel_QuitCancelsRunningSetup(t *testing.T) {
	cancelled := 0
	m := New(Config{Components: []string{"binary"}, Cancel: func() { cancelled++ }})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, cancelled)
	assert.Empty(t, m.View())
}

func TestModel_QuitAfterDoneDoesNotCancel(t *testing.T) {
	cancelled := 0
	m := New(Config{Components: []string{"binary"}, Cancel: func() { cancelled++ }})
	m, _ = update(t, m, DoneMsg{})
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Zero(t, cancelled)
}

func TestModel_TickWhileRunning(t *testing.T) {
	m := newTestModel("binary")
	_, cmd := update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.NotNil(t, m.Init())
}

func TestModel_WindowSize(t *testing.T) {
	m := newTestModel("binary")
	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

// =============================================================================
// Tests: view
// =============================================================================

func TestModel_ViewRunning(t *testing.T) {
	m := newTestModel("binary", "samples")
	m, _ = update(t, m, EventMsg{Kind: install.EventStarted, Index: 0})
	m, _ = update(t, m, EventMsg{Kind: install.EventOutput, Line: "===> Downloading hyperledger-fabric-linux-amd64-2.5.12.tar.gz"})

	view := m.View()
	assert.Contains(t, view, "Fabric: 2.5.12")
	assert.Contains(t, view, "CA: script default")
	assert.Contains(t, view, "Installing... 0/2")
	assert.Contains(t, view, "binary")
	assert.Contains(t, view, "pending")
	assert.Contains(t, view, "Downloading")
	assert.Contains(t, view, "q: cancel setup")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{90 * time.Second, "00:01:30"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
