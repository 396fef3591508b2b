package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// listView is the job list surface: a read-only, single-column list that
// scrolls but has no selection.
type listView struct {
	lines    []string
	viewport viewport.Model
	stale    bool
}

func newListView() *listView {
	return &listView{viewport: viewport.New(0, 0)}
}

// Clear removes every line.
func (l *listView) Clear() {
	l.lines = l.lines[:0]
	l.viewport.SetContent("")
	l.viewport.GotoTop()
	l.stale = false
}

// Append adds a line to the end of the list.
func (l *listView) Append(line string) {
	l.lines = append(l.lines, line)
	l.stale = true
}

// Lines returns a copy of the current lines.
func (l *listView) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len reports the number of lines.
func (l *listView) Len() int {
	return len(l.lines)
}

// SetSize resizes the scrollable area.
func (l *listView) SetSize(width, height int) {
	l.viewport.Width = max(width, 0)
	l.viewport.Height = max(height, 0)
	l.stale = true
	l.flush()
}

// flush pushes appended lines into the viewport. Appends are batched so a
// refresh rebuilds the viewport content once.
func (l *listView) flush() {
	if !l.stale {
		return
	}
	l.stale = false
	width := l.viewport.Width
	rendered := make([]string, len(l.lines))
	for i, line := range l.lines {
		rendered[i] = truncate(line, width)
	}
	l.viewport.SetContent(strings.Join(rendered, "\n"))
}

// handleScroll applies navigation keys. It reports whether msg was consumed.
func (l *listView) handleScroll(msg tea.KeyMsg, keys keyMap) bool {
	switch {
	case key.Matches(msg, keys.Down):
		l.viewport.LineDown(1)
	case key.Matches(msg, keys.Up):
		l.viewport.LineUp(1)
	case key.Matches(msg, keys.PageDown):
		l.viewport.ViewDown()
	case key.Matches(msg, keys.PageUp):
		l.viewport.ViewUp()
	case key.Matches(msg, keys.HalfPageDown):
		l.viewport.HalfViewDown()
	case key.Matches(msg, keys.HalfPageUp):
		l.viewport.HalfViewUp()
	case key.Matches(msg, keys.Top):
		l.viewport.GotoTop()
	case key.Matches(msg, keys.Bottom):
		l.viewport.GotoBottom()
	default:
		return false
	}
	return true
}

// renderList renders the list pane, including its placeholder states.
func (m Model) renderList(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)

	var content string
	switch {
	case m.list.Len() > 0:
		content = m.list.viewport.View()
	case m.refreshing:
		content = styles.WarningText.Render("Querying print spooler...")
	case m.snapshot.HasListing && !m.snapshot.Failing():
		content = styles.MutedText.Render("No jobs in queue")
	}

	title := "Print Jobs"
	if n := m.list.Len(); n > m.list.viewport.Height && m.list.viewport.Height > 0 {
		top := m.list.viewport.YOffset + 1
		bottom := min(m.list.viewport.YOffset+m.list.viewport.Height, n)
		title = fmt.Sprintf("Print Jobs %d-%d of %d", top, bottom, n)
	}
	return m.renderTitledBox(title, content, width, height)
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int) string {
	bg := NewBgStyle(m.theme.SurfaceAlt)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Border))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().
		Width(innerWidth).
		MaxWidth(innerWidth).
		Background(lipgloss.Color(m.theme.SurfaceAlt))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)
	rows := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		rows = append(rows,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	if len(rows) == 0 {
		return topBorder + "\n" + bottomBorder
	}
	return topBorder + "\n" + strings.Join(rows, "\n") + "\n" + bottomBorder
}
