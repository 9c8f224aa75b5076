package main

import (
	"fmt"
	"strings"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/config"
	"charm-dapp-connect/helpers"
	"charm-dapp-connect/nft"
	"charm-dapp-connect/rpc"
	"charm-dapp-connect/views/connect"
	"charm-dapp-connect/views/dapps"
	"charm-dapp-connect/views/details"
	"charm-dapp-connect/views/hardware"
	"charm-dapp-connect/views/home"
	logview "charm-dapp-connect/views/log"
	nftview "charm-dapp-connect/views/nft"
	"charm-dapp-connect/views/settings"
	"charm-dapp-connect/views/walletpicker"
	"charm-dapp-connect/views/wallets"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

// renderDialog centers content in a bordered dialog box
func (m *model) renderDialog(content string) string {
	dialogBoxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 2).
		BorderTop(true).
		BorderLeft(true).
		BorderRight(true).
		BorderBottom(true).
		Background(cPanel)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(content),
	)
}

func (m *model) renderPasscodeDialog() string {
	title := lipgloss.NewStyle().
		Foreground(cAccent2).
		Bold(true).
		Render("Approve with passcode")
	hint := hotkeyStyle.Render("Enter") + " submit   " + hotkeyStyle.Render("Esc") + " abort"
	return m.renderDialog(lipgloss.JoinVertical(lipgloss.Left, title, "", m.passcode.form.View(), hint))
}

func (m *model) globalHeader() string {
	availableWidth := max(0, m.w-8) // Account for panel padding

	// Active account
	var accDisplay string
	if acc, ok := m.dir.Active(); ok {
		addr, _ := acc.Address(accounts.ChainTon)
		accDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Active: " + acc.DisplayName() + " " + helpers.FadeString(helpers.ShortenAddr(addr), "#F25D94", "#EDFF82"))
	} else {
		accDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Active: No account")
	}

	// Relay status with green dot
	var statusIcon string
	var statusColor lipgloss.Color
	var statusText string

	switch {
	case m.relayURL == "":
		statusIcon = "○"
		statusColor = lipgloss.Color("#c01c28")
		statusText = "No relay"
	case m.relayConnecting:
		statusIcon = "○"
		statusColor = lipgloss.Color("#c01c28")
		statusText = "Connecting..."
	case !m.relayConnected:
		statusIcon = "○"
		statusColor = lipgloss.Color("#c01c28")
		statusText = "Relay " + m.relayErr
	default:
		statusIcon = "●"
		statusColor = cAccent
		statusText = "Relay"
	}
	if n := len(m.queue); n > 0 {
		statusText += fmt.Sprintf(" · %d waiting", n)
	}

	relayDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	// Center title
	titleStyle := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true)
	titleText := titleStyle.Render(helpers.FadeString("dapp connect", "#7EE787", "#82CFFD"))

	// Calculate widths
	accWidth := lipgloss.Width(accDisplay)
	relayWidth := lipgloss.Width(relayDisplay)
	titleWidth := lipgloss.Width(titleText)

	totalOtherWidth := accWidth + relayWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = accDisplay + "\n" + titleText + "\n" + relayDisplay
	} else {
		// Three-column layout: Account | Title (centered) | Relay
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		leftSpacer := strings.Repeat(" ", max(1, leftPadding))
		rightSpacer := strings.Repeat(" ", max(1, rightPadding))

		headerLine = accDisplay + leftSpacer + titleText + rightSpacer + relayDisplay
	}

	// Add separator line
	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

// overlayContent renders the open request or transfer, if any
func (m *model) overlayContent() (string, string, bool) {
	switch {
	case m.hardware != nil:
		return hardware.Render(m.hardware.req, m.hardware.qr, m.hardware.status), hardware.Nav(m.w - 2), true

	case m.overlay == overlayPicker:
		return pageTitle("Choose a wallet") + "\n\n" + m.picker.View(), walletpicker.Nav(m.w - 2), true

	case m.overlay == overlayConnect && m.pending != nil:
		req := m.pending.Request()
		acc, ok := m.accountByID(req.AccountID)
		if !ok {
			acc = accounts.Account{ID: req.AccountID}
		}
		state := m.pending.State()
		content := connect.Render(connect.Screen{
			Request:  req,
			Account:  acc,
			State:    state,
			LastErr:  m.pending.LastErr(),
			Spinner:  m.spin.View(),
			Queued:   len(m.queue),
			ActiveID: m.dir.ActiveID(),
		})
		return content, connect.Nav(m.w-2, state), true

	case m.overlay == overlayNftForm && m.nftForm != nil:
		return pageTitle("Transfer NFT") + "\n\n" + m.nftForm.View(), "", true

	case m.overlay == overlayNft && m.nftConfirm != nil:
		var fee *nft.Fee
		if f, ok := m.nftConfirm.Fee(); ok {
			fee = &f
		}
		state := m.nftConfirm.State()
		content := nftview.Render(m.nftConfirm.Transfer(), fee, state, m.nftConfirm.LastErr(), m.spin.View())
		return content, nftview.Nav(m.w-2, state), true
	}
	return "", "", false
}

func (m *model) View() string {
	// Passcode prompt is a dialog over everything
	if m.passcode != nil {
		return m.renderPasscodeDialog()
	}

	// Render global header outside of page content
	globalHdr := m.globalHeader()
	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(globalHdr)

	var pageContent string
	var nav string

	if content, overlayNav, ok := m.overlayContent(); ok {
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
		nav = overlayNav
	} else {
		switch m.activePage {
		case config.PageHome:
			pageContent = panelStyle.Width(max(0, m.w-2)).Render(home.Render(m.homeForm))
			nav = home.Nav(m.w - 2)

		case config.PageAccounts:
			list := m.dir.Accounts()
			walletsContent := wallets.Render(list, m.dir.ActiveID(), m.selectedAccount)

			// Split view: account list with details of the highlighted account
			if len(list) > 0 && m.selectedAccount < len(list) {
				acc := list[m.selectedAccount]
				var balance *rpc.Balance
				if b, ok := m.balances[acc.ID]; ok {
					balance = &b
				}
				detailsContent := details.Render(acc, balance, m.loadingBalance && balance == nil, m.spin.View())

				// Calculate panel widths (split 40/60)
				listWidth := max(0, (m.w*4)/10-2)
				detailsWidth := max(0, (m.w*6)/10-2)

				leftPanel := panelStyle.Width(listWidth).Render(walletsContent)
				leftPanelHeight := lipgloss.Height(leftPanel)

				rightPanel := panelStyle.
					Width(detailsWidth + 1).
					Height(max(0, leftPanelHeight-2)).
					Render(detailsContent)

				pageContent = lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
			} else {
				pageContent = panelStyle.Width(max(0, m.w-2)).Render(walletsContent)
			}
			nav = wallets.Nav(m.w - 2)

		case config.PageDapps:
			names := make(map[string]string)
			for _, acc := range m.dir.Accounts() {
				names[acc.ID] = acc.DisplayName()
			}
			content := dapps.Render(m.store.snapshot().Dapps, names, m.selectedDapp)
			pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
			nav = dapps.Nav(m.w - 2)

		case config.PageSettings:
			content := settings.Render(settings.Info{
				ConfigPath: m.configPath,
				RelayURL:   m.relayURL,
				RelayUp:    m.relayConnected,
				RelayErr:   m.relayErr,
				RPCURL:     m.rpcURL,
				RPCUp:      m.ethClient != nil,
				Queued:     len(m.queue),
			})
			pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
			nav = settings.Nav(m.w - 2)
		}
	}

	// Add log panel if enabled
	if m.logEnabled {
		open := len(m.queue)
		if m.pending != nil {
			open++
		}
		if m.nftConfirm != nil {
			open++
		}
		logPanel := logview.Render(logview.Panel{
			Width:   m.w,
			Height:  m.h,
			Ready:   m.logReady,
			Spinner: m.logSpinner.View(),
			RelayUp: m.relayConnected,
			Open:    open,
		}, m.logViewport)
		content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav, logPanel)
		return appStyle.Render(content)
	}

	// Use lipgloss to join sections vertically (without log panel)
	content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav)
	return appStyle.Render(content)
}

func pageTitle(s string) string {
	return titleStyle.Render(s)
}
