package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spoolview/internal/spooler"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// errorModal reports a failed spooler query. It only closes on OK or Dismiss.
type errorModal struct {
	title   string
	message string
}

func newErrorModal(err error) errorModal {
	return errorModal{title: errorTitle(err), message: err.Error()}
}

// errorTitle names the failure class of a query error.
func errorTitle(err error) string {
	switch {
	case errors.Is(err, spooler.ErrOpen):
		return "Failed to open printer"
	case errors.Is(err, spooler.ErrAllocation):
		return "Memory allocation failed"
	case errors.Is(err, spooler.ErrEnumeration):
		return "Failed to enumerate jobs"
	default:
		return "Print queue error"
	}
}

func (e errorModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return e, nil, false
	}
	if key.Matches(km, keys.Confirm) || key.Matches(km, keys.Dismiss) {
		return e, nil, true
	}
	return e, nil, false
}

func (e errorModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	inner := modalWidth - 6

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(e.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", inner)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Text)).
		Width(inner).
		Render(e.message))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("enter") + styles.MutedText.Render(" OK"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
