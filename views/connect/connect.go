package connect

import (
	"fmt"
	"strings"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"
	dapp "charm-dapp-connect/connect"
	"charm-dapp-connect/helpers"
	"charm-dapp-connect/styles"

	"github.com/charmbracelet/lipgloss"
)

// Screen is everything the connect screen shows
type Screen struct {
	Request  dapp.Request
	Account  accounts.Account
	State    approval.State
	LastErr  error
	Spinner  string
	Queued   int
	ActiveID string
}

// Nav returns the navigation bar for the connect screen
func Nav(width int, state approval.State) string {
	var left string
	if state == approval.AwaitingUserChoice {
		left = strings.Join([]string{
			styles.Key("Enter") + " connect",
			styles.Key("w") + " choose wallet",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " reject",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("l") + " logger",
			styles.Key("Esc") + " reject",
		}, "   ")
	}
	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the connect request screen
func Render(s Screen) string {
	h := styles.TitleStyle.Render("Connect to "+s.Request.Dapp.Name) + "  " + styles.Badge(s.State)
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)

	lines := []string{h, muted.Render(s.Request.Dapp.URL), ""}

	perms := []string{}
	if s.Request.Permissions.IsAddressRequired {
		perms = append(perms, "wallet address")
	}
	if _, ok := s.Request.ProofPayload(); ok && s.Request.Permissions.IsAddressRequired {
		perms = append(perms, "proof of ownership")
	}
	if s.Request.Permissions.IsPasswordRequired {
		perms = append(perms, "passcode confirmation")
	}
	if len(perms) == 0 {
		perms = append(perms, "nothing")
	}
	lines = append(lines, muted.Render("Requests: ")+lipgloss.NewStyle().Foreground(styles.CText).Render(strings.Join(perms, ", ")))

	addr, _ := s.Account.Address(accounts.ChainTon)
	accountLine := lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render(s.Account.DisplayName()) +
		"  " + helpers.FadeString(helpers.ShortenAddr(addr), "#F25D94", "#EDFF82")
	if s.Account.Type != accounts.Normal {
		accountLine += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render("["+s.Account.Type.String()+"]")
	}
	lines = append(lines, muted.Render("Wallet:   ")+accountLine)
	if s.ActiveID != "" && s.ActiveID != s.Account.ID {
		lines = append(lines, muted.Render("          will become the active account"))
	}
	lines = append(lines, "")

	lines = append(lines, stateLine(s))
	if s.LastErr != nil {
		lines = append(lines, styles.Alert(s.LastErr))
	}
	if s.Queued > 0 {
		lines = append(lines, "", muted.Render(fmt.Sprintf("%d more request(s) waiting", s.Queued)))
	}
	return strings.Join(lines, "\n")
}

func stateLine(s Screen) string {
	switch s.State {
	case approval.Authorizing:
		return s.Spinner + " waiting for authorization…"
	case approval.Confirming:
		return s.Spinner + " confirming with the wallet…"
	case approval.Resolved:
		return lipgloss.NewStyle().Foreground(styles.CAccent).Render("✓ connected")
	case approval.Canceled:
		return lipgloss.NewStyle().Foreground(styles.CMuted).Render("request rejected")
	default:
		return lipgloss.NewStyle().Foreground(styles.CText).Render("Press ") + styles.Key("Enter") +
			lipgloss.NewStyle().Foreground(styles.CText).Render(" to connect")
	}
}
