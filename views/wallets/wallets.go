package wallets

import (
	"fmt"
	"strings"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/helpers"
	"charm-dapp-connect/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the accounts view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " move",
		styles.Key("Space") + " activate",
		styles.Key("r") + " refresh",
		styles.Key("t") + " send NFT",
		styles.Key("b") + " dApps",
		styles.Key("s") + " settings",
		styles.Key("h") + " home",
		styles.Key("l") + " debug log",
		styles.Key("q") + " quit",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// RenderList renders the account list
func RenderList(list []accounts.Account, activeID string, selectedIdx int) string {
	if len(list) == 0 {
		return lipgloss.NewStyle().Foreground(styles.CMuted).Render("No accounts configured. Add them to the config file.")
	}

	var items []string
	for i, acc := range list {
		var itemStyle lipgloss.Style
		var marker, fullAddr string
		addr, _ := acc.Address(accounts.ChainTon)
		shortAddr := helpers.ShortenAddr(addr)

		if i == selectedIdx {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
			itemStyle = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true)
			fullAddr = lipgloss.NewStyle().Foreground(styles.CText).Render(addr)
		} else {
			marker = "  "
			itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1a2aa"))
			fullAddr = helpers.FadeString(addr, "#7D5AFC", "#FF87D7")
			shortAddr = helpers.FadeString(shortAddr, "#F25D94", "#EDFF82")
		}

		label := acc.DisplayName() + " - " + shortAddr
		if acc.ID == activeID {
			label = "✓ " + label
		}
		line := marker + itemStyle.Render(label)
		if acc.Type != accounts.Normal {
			line += " " + lipgloss.NewStyle().Foreground(styles.CAccent).Render("["+acc.Type.String()+"]")
		}
		items = append(items, line+"\n  "+fullAddr)
	}
	return strings.Join(items, "\n\n")
}

// Render renders the full accounts view
func Render(list []accounts.Account, activeID string, selectedIdx int) string {
	header := styles.TitleStyle.Render("Account List")
	subtitle := lipgloss.NewStyle().Foreground(styles.CMuted).Render("Accounts dapps can connect to")

	statusBar := lipgloss.NewStyle().Foreground(styles.CMuted).Render(
		fmt.Sprintf("%d accounts", len(list)),
	)
	return header + "\n" + subtitle + "\n\n" + RenderList(list, activeID, selectedIdx) + "\n\n" + statusBar
}
