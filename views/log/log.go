package log

import (
	"fmt"
	"strings"

	"charm-dapp-connect/helpers"
	"charm-dapp-connect/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Panel is the state of the activity log shown under every page
type Panel struct {
	Width, Height int
	Ready         bool
	Spinner       string
	RelayUp       bool
	Open          int // requests and transfers not resolved yet
}

// Render renders the activity log. Its height follows the terminal.
func Render(p Panel, vp viewport.Model) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Activity")

	// header (3 lines), nav (1), title and borders (4), margins (2)
	reservedHeight := 10
	availableHeight := helpers.Max(5, p.Height-reservedHeight)
	logPanelHeight := helpers.Min(availableHeight, helpers.Min(p.Height/3, 15))
	vp.Height = logPanelHeight

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, p.Width-2)).
		Height(logPanelHeight + 2)

	if !p.Ready {
		return border.Render(title + "\n\n" + "initializing...\n" + p.Spinner)
	}

	return border.Render(title + " " + status(p, vp) + "\n\n" + vp.View())
}

func status(p Panel, vp viewport.Model) string {
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	var parts []string
	if p.RelayUp {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.CAccent).Render("relay ●"))
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.CDanger).Render("relay ○"))
	}
	if p.Open > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.CWarn).Render(fmt.Sprintf("%d open", p.Open)))
	}
	if vp.TotalLineCount() > vp.Height {
		parts = append(parts, muted.Render(fmt.Sprintf("[%d%%] pgup/pgdn", int(vp.ScrollPercent()*100))))
	}
	return muted.Render("· ") + strings.Join(parts, muted.Render(" · "))
}
