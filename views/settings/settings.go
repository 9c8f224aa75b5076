package settings

import (
	"charm-dapp-connect/styles"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Info is what the settings page shows about the running session
type Info struct {
	ConfigPath string
	RelayURL   string
	RelayUp    bool
	RelayErr   string
	RPCURL     string
	RPCUp      bool
	Queued     int
}

// Nav returns the navigation bar for settings view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("R") + " reconnect relay",
		styles.Key("h") + " home",
		styles.Key("l") + " debug log",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

func status(up bool, errMsg string) string {
	if up {
		return lipgloss.NewStyle().Foreground(styles.CAccent).Render("● connected")
	}
	if errMsg != "" {
		return lipgloss.NewStyle().Foreground(styles.CWarn).Render("○ " + errMsg)
	}
	return lipgloss.NewStyle().Foreground(styles.CMuted).Render("○ offline")
}

// Render renders the connection settings view
func Render(info Info) string {
	h := styles.TitleStyle.Render("Connection Settings")
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	name := lipgloss.NewStyle().Foreground(styles.CText).Bold(true)

	orUnset := func(s string) string {
		if s == "" {
			return "(not set)"
		}
		return s
	}

	lines := []string{h, ""}
	lines = append(lines, name.Render("Relay")+"  "+status(info.RelayUp, info.RelayErr))
	lines = append(lines, "  "+muted.Render(orUnset(info.RelayURL)), "")
	lines = append(lines, name.Render("Ethereum RPC")+"  "+status(info.RPCUp, ""))
	lines = append(lines, "  "+muted.Render(orUnset(info.RPCURL)), "")
	lines = append(lines, name.Render("Config file"))
	lines = append(lines, "  "+muted.Render(info.ConfigPath), "")
	if info.Queued > 0 {
		lines = append(lines, muted.Render("Requests waiting: ")+lipgloss.NewStyle().Foreground(styles.CWarn).Render(strings.Repeat("●", info.Queued)))
	}
	lines = append(lines, muted.Render("Edit the config file or pass ")+styles.Key("--relay")+muted.Render(" / ")+styles.Key("--rpc")+muted.Render(" to change endpoints."))
	return strings.Join(lines, "\n")
}
