package nft

import (
	"strings"

	"charm-dapp-connect/approval"
	"charm-dapp-connect/helpers"
	transfer "charm-dapp-connect/nft"
	"charm-dapp-connect/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the NFT confirm screen
func Nav(width int, state approval.State) string {
	keys := []string{}
	if state == approval.AwaitingUserChoice {
		keys = append(keys, styles.Key("Enter")+" confirm")
	}
	keys = append(keys, styles.Key("l")+" logger", styles.Key("Esc")+" close")
	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}

// Render renders the transfer summary, fee and progress
func Render(t transfer.Transfer, fee *transfer.Fee, state approval.State, lastErr error, spinnerView string) string {
	title := "Send NFT"
	if t.Burn {
		title = "Burn NFT"
	}
	h := styles.TitleStyle.Render(title) + "  " + styles.Badge(state)
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	text := lipgloss.NewStyle().Foreground(styles.CText)

	name := t.NftName
	if name == "" {
		name = helpers.ShortenAddr(t.NftAddress)
	}
	lines := []string{
		h,
		"",
		muted.Render("NFT:  ") + text.Bold(true).Render(name),
		muted.Render("      ") + muted.Render(t.NftAddress),
	}
	if t.Burn {
		lines = append(lines, muted.Render("To:   ")+lipgloss.NewStyle().Foreground(styles.CWarn).Render("burn address"))
	} else {
		lines = append(lines, muted.Render("To:   ")+helpers.FadeString(t.ToAddress, "#7D5AFC", "#FF87D7"))
	}
	if t.Comment != "" {
		lines = append(lines, muted.Render("Note: ")+text.Render(t.Comment))
	}

	if fee == nil {
		lines = append(lines, muted.Render("Fee:  ")+spinnerView+muted.Render(" estimating…"))
	} else {
		lines = append(lines, muted.Render("Fee:  ")+text.Render(fee.String()))
	}
	lines = append(lines, "")

	switch state {
	case approval.Authorizing:
		lines = append(lines, spinnerView+" waiting for authorization…")
	case approval.Confirming:
		lines = append(lines, spinnerView+" submitted, waiting for the transfer to appear…")
	case approval.Resolved:
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.CAccent).Render("✓ "+t.Action()+" sent"))
	}
	if lastErr != nil {
		lines = append(lines, styles.Alert(lastErr))
	}
	return strings.Join(lines, "\n")
}
