package dapps

import (
	"strings"

	"charm-dapp-connect/config"
	"charm-dapp-connect/helpers"
	"charm-dapp-connect/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the connected dApps view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("Tab") + " select next",
		styles.Key("d") + " disconnect",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// dAppCardStyle returns the style for a dApp card (unfocused)
func dAppCardStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Width(28).
		Height(6).
		Align(lipgloss.Center, lipgloss.Center).
		Background(styles.CPanel).
		Padding(1, 2).
		BorderStyle(lipgloss.HiddenBorder())
}

// dAppCardFocusedStyle returns the style for a focused dApp card
func dAppCardFocusedStyle() lipgloss.Style {
	return dAppCardStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("69"))
}

// renderDAppCard renders a single dApp card
func renderDAppCard(dapp config.DApp, accountName string, focused bool) string {
	icon := "🌐"
	if dapp.Icon != "" && !strings.HasPrefix(dapp.Icon, "http") {
		icon = dapp.Icon
	}
	host := dapp.Host
	if host == "" {
		host = dapp.URL
	}

	nameStyle := lipgloss.NewStyle().
		Foreground(styles.CText).
		Bold(true).
		Align(lipgloss.Center)

	content := icon + "\n\n" +
		nameStyle.Render(dapp.Name) + "\n" +
		helpers.FadeString(host, "#F25D94", "#EDFF82") + "\n" +
		lipgloss.NewStyle().Foreground(styles.CAccent).Render("["+accountName+"]")

	if focused {
		return dAppCardFocusedStyle().Render(content)
	}
	return dAppCardStyle().Render(content)
}

// Render renders the connected dApps as a grid of cards
func Render(list []config.DApp, accountNames map[string]string, selectedIdx int) string {
	h := styles.TitleStyle.Render("Connected dApps")

	if len(list) == 0 {
		emptyMsg := lipgloss.NewStyle().
			Foreground(styles.CMuted).
			Render("No dApps connected yet. Connection requests show up here once approved.")
		return h + "\n\n" + emptyMsg
	}

	const columnsPerRow = 3
	const horizontalSpacing = "  "
	var rows []string

	for i := 0; i < len(list); i += columnsPerRow {
		var rowCards []string
		for j := 0; j < columnsPerRow && i+j < len(list); j++ {
			idx := i + j
			name := accountNames[list[idx].AccountID]
			if name == "" {
				name = list[idx].AccountID
			}
			rowCards = append(rowCards, renderDAppCard(list[idx], name, idx == selectedIdx))
			if j < columnsPerRow-1 && i+j+1 < len(list) {
				rowCards = append(rowCards, horizontalSpacing)
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rowCards...))
	}

	return h + "\n\n" + strings.Join(rows, "\n")
}
