package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Main View Rendering
// =============================================================================

func (m Model) renderView() string {
	sections := []string{
		m.renderHeader(),
		m.renderProgress(),
		m.renderSteps(),
	}
	if len(m.lines) > 0 {
		sections = append(sections, m.renderOutput())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" setup │ Fabric: %s │ CA: %s │ %s ",
		orDefault(m.fabricVersion),
		orDefault(m.caVersion),
		formatDuration(m.Elapsed()),
	)
	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Progress Section
// =============================================================================

func (m Model) renderProgress() string {
	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}

	var status string
	switch {
	case m.done && m.err != nil:
		status = statusError.Render("✗ Setup failed: " + m.err.Error())
	case m.done:
		status = statusOK.Render("✓ Setup complete")
	default:
		status = statusInfo.Render(fmt.Sprintf("Installing... %d/%d", m.finished(), len(m.steps)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Progress"),
		RenderProgressBar(m.Progress(), barWidth),
		status,
	)
	return boxStyle.Width(m.width - 2).Render(content)
}

func (m Model) finished() int {
	n := 0
	for _, s := range m.steps {
		if s.state == stepDone || s.state == stepFailed {
			n++
		}
	}
	return n
}

// =============================================================================
// Component Steps
// =============================================================================

func (m Model) renderSteps() string {
	rows := []string{sectionHeaderStyle.Render("Components")}
	for _, s := range m.steps {
		rows = append(rows, renderStep(s))
	}
	if m.copied > 0 {
		rows = append(rows, RenderKeyValue("config files", fmt.Sprintf("%d copied", m.copied)))
	}
	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderStep(s step) string {
	var symbol, detail string
	switch s.state {
	case stepRunning:
		symbol = statusInfo.Render("●")
		detail = mutedStyle.Render(time.Since(s.started).Round(time.Second).String())
	case stepDone:
		symbol = statusOK.Render("✓")
		detail = mutedStyle.Render(s.elapsed.Round(time.Millisecond).String())
	case stepFailed:
		symbol = statusError.Render("✗")
		detail = statusError.Render(s.err.Error())
	default:
		symbol = dimStyle.Render("○")
		detail = dimStyle.Render("pending")
	}
	return fmt.Sprintf("%s %s %s", symbol, labelStyle.Render(s.component), detail)
}

// =============================================================================
// Script Output
// =============================================================================

func (m Model) renderOutput() string {
	maxLen := m.width - 6
	lines := make([]string, 0, len(m.lines)+1)
	lines = append(lines, sectionHeaderStyle.Render("Output"))
	for _, l := range m.lines {
		if maxLen > 10 && len(l) > maxLen {
			l = l[:maxLen-3] + "..."
		}
		lines = append(lines, dimStyle.Render(l))
	}
	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	if m.done {
		return footerStyle.Render("")
	}
	return footerStyle.Render(strings.Join([]string{"q: cancel setup"}, " │ "))
}
