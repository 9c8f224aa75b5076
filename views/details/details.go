package details

import (
	"fmt"
	"strings"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/helpers"
	"charm-dapp-connect/rpc"
	"charm-dapp-connect/styles"

	"github.com/charmbracelet/lipgloss"
)

// Render renders the selected account with its chains and ethereum balance
func Render(acc accounts.Account, balance *rpc.Balance, loading bool, spinnerView string) string {
	h := styles.TitleStyle.Render(acc.DisplayName())
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)

	lines := []string{h, muted.Render(acc.Type.String() + " account"), ""}
	for _, chain := range acc.Chains() {
		addr, _ := acc.Address(chain)
		lines = append(lines, fmt.Sprintf("%-9s %s",
			lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render(strings.ToUpper(string(chain))),
			muted.Render(addr)))
	}
	lines = append(lines, "")

	if _, ok := acc.Address(accounts.ChainEthereum); !ok {
		return strings.Join(lines, "\n")
	}
	if loading {
		return strings.Join(append(lines, spinnerView+" fetching balances…"), "\n")
	}
	if balance == nil {
		return strings.Join(append(lines, muted.Render("Press ")+styles.Key("r")+muted.Render(" to load balances.")), "\n")
	}
	if balance.ErrMessage != "" {
		msg := lipgloss.NewStyle().Foreground(styles.CWarn).Render("⚠ " + balance.ErrMessage)
		hint := muted.Render("Tip: set ") + lipgloss.NewStyle().Foreground(styles.CAccent).Render("ETH_RPC_URL") +
			muted.Render(" then press ") + styles.Key("r") + muted.Render(" to refresh.")
		return strings.Join(append(lines, msg, "", hint), "\n")
	}

	lines = append(lines, fmt.Sprintf("%s  %s",
		lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("ETH"),
		lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatETH(balance.Wei)),
	))
	for _, t := range balance.Tokens {
		lines = append(lines, fmt.Sprintf("%-6s  %s",
			lipgloss.NewStyle().Foreground(styles.CAccent).Render(t.Symbol),
			lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatToken(t.Balance, t.Decimals, t.Symbol)),
		))
	}
	lines = append(lines, "", muted.Render("loaded "+helpers.LoadedAt(balance.LoadedAt, false)))
	return strings.Join(lines, "\n")
}
