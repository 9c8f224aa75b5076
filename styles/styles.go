package styles

import (
	"strings"

	"charm-dapp-connect/approval"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	CBg      = lipgloss.Color("#0B0F14")
	CPanel   = lipgloss.Color("#0F1720")
	CBorder  = lipgloss.Color("#874BFD")
	CMuted   = lipgloss.Color("#8AA0B6")
	CText    = lipgloss.Color("#D6E2F0")
	CAccent  = lipgloss.Color("#7EE787") // approved
	CAccent2 = lipgloss.Color("#79C0FF") // in progress
	CWarn    = lipgloss.Color("#FFA657")
	CDanger  = lipgloss.Color("#F85149") // rejected by the wallet
)

// Shared styles
var (
	AppStyle = lipgloss.NewStyle().
			Background(CBg).
			Foreground(CText)

	TitleStyle = lipgloss.NewStyle().
			Foreground(CAccent2).
			Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(CBorder).
			Padding(1, 2)

	NavStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(CBorder).
			Padding(0, 1)

	HotkeyKeyStyle = lipgloss.NewStyle().
			Foreground(CAccent).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(CBg)
)

// Key renders a key with accent styling
func Key(s string) string {
	return HotkeyKeyStyle.Render(s)
}

// Badge renders the approval state of a request as a colored tag.
func Badge(s approval.State) string {
	var bg lipgloss.Color
	switch s {
	case approval.Authorizing, approval.Confirming:
		bg = CAccent2
	case approval.Resolved:
		bg = CAccent
	case approval.Failed:
		bg = CDanger
	case approval.Canceled:
		bg = CMuted
	default:
		bg = CWarn
	}
	label := s.String()
	if s == approval.AwaitingUserChoice {
		label = "needs approval"
	}
	return badgeStyle.Background(bg).Render(strings.ToUpper(label))
}

// Alert renders the failure of the last attempt. Wallet rejections are red,
// everything the user can retry right away is orange.
func Alert(err error) string {
	color := CWarn
	if approval.KindOf(err) == approval.ErrRelayRejected {
		color = CDanger
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render("⚠ " + err.Error())
}
