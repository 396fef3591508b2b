package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/spoolview/internal/spooler"
)

// renderHeader renders the status line: printer, state, job count and the
// outcome of the last query.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("spoolview", styles.Logo)}

	snap := m.snapshot
	switch {
	case !snap.HasListing && m.refreshing:
		parts = append(parts, bg.Render("Querying print spooler...", styles.WarningText.Bold(true)))
	case !snap.HasListing:
		parts = append(parts, bg.Render("No printer", styles.MutedText))
	default:
		name := snap.Printer
		if name == "" {
			name = "default printer"
		}
		limit := 48
		if compact {
			limit = 24
		}
		parts = append(parts,
			bg.Render(truncateMiddle(name, limit), styles.Text.Bold(true)),
			styles.StateStyle(snap.PrinterState.String()).Render(stateLabel(snap.PrinterState)),
		)
		label := "Jobs:"
		if compact {
			label = "J:"
		}
		parts = append(parts,
			bg.Render(label, styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", m.list.Len()), styles.Text))
	}

	if ts := formatTimestamp(snap.LastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.LastError != nil {
		limit := 60
		if compact {
			limit = 30
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Space()+
				bg.Render(truncate(snap.LastError.Error(), limit), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the key hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"r", "Refresh"},
		{"j/k", "Scroll"},
		{"g/G", "Top/Bottom"},
		{"?", "Help"},
		{"q", "Close"},
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

func stateLabel(s spooler.PrinterState) string {
	return strings.ToUpper(s.String())
}

// formatTimestamp formats the last query time with a relative indicator.
func formatTimestamp(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	ts := at.Format("15:04:05")
	since := now.Sub(at)
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}
