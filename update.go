package main

import (
	"fmt"
	"strings"
	"time"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"
	"charm-dapp-connect/config"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/helpers"
	"charm-dapp-connect/nft"
	"charm-dapp-connect/relay"
	"charm-dapp-connect/rpc"
	"charm-dapp-connect/views/hardware"
	"charm-dapp-connect/views/home"
	"charm-dapp-connect/views/walletpicker"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempPasscode   string
	tempNftAddress string
	tempNftName    string
	tempNftTo      string
	tempNftComment string
	tempNftBurn    bool
)

func (m *model) createPasscodeForm(accountID string) *huh.Form {
	tempPasscode = ""

	name := accountID
	if acc, ok := m.accountByID(accountID); ok {
		name = acc.DisplayName()
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Passcode").
				Description("Unlock " + name + " to approve").
				EchoMode(huh.EchoModePassword).
				Value(&tempPasscode).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("passcode is required")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())
}

func (m *model) createNftForm() {
	tempNftAddress = ""
	tempNftName = ""
	tempNftTo = ""
	tempNftComment = ""
	tempNftBurn = false

	m.nftForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Burn the NFT?").
				Description("Burning sends it to the burn address for good").
				Affirmative("Burn").
				Negative("Send").
				Value(&tempNftBurn),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("NFT Address").
				Description("Address of the NFT item (Ctrl+v to paste)").
				Value(&tempNftAddress).
				Placeholder("EQ...").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("nft address is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Name").
				Description("Shown in the confirmation (optional)").
				Value(&tempNftName),

			huh.NewInput().
				Title("Send To").
				Description("Recipient address, ignored when burning").
				Value(&tempNftTo).
				Placeholder("UQ...").
				Validate(func(s string) error {
					if !tempNftBurn && strings.TrimSpace(s) == "" {
						return fmt.Errorf("recipient is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Comment").
				Value(&tempNftComment),
		),
	).WithTheme(huh.ThemeCatppuccin())
}

// -------------------- UPDATE --------------------

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.updateLogViewport()

	if cmd, handled := m.handleBackground(msg); handled {
		return m, cmd
	}

	// Passcode prompt owns every message while open
	if m.passcode != nil {
		return m, m.updatePasscode(msg)
	}

	// NFT transfer form
	if m.nftForm != nil {
		return m, m.updateNftForm(msg)
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if !isKey {
		if m.homeFormActive() {
			return m, m.updateHomeForm(msg)
		}
		return m, nil
	}
	return m, m.handleKey(keyMsg)
}

// handleBackground handles results of commands and messages posted by flow
// goroutines. They must reach the model whatever screen is open.
func (m *model) handleBackground(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return nil, true
		}
		m.logReady = true
		m.logSeen = -1
		m.addLog("info", "Logger enabled")
		return nil, true

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.picker.SetWidth(max(0, msg.Width-6))

		// Only initialize viewport if log is enabled
		if m.logEnabled {
			// Width accounts for border and padding
			m.logViewport.Width = max(0, msg.Width-6)
			if m.logReady {
				m.logSeen = -1
				m.updateLogViewport()
			}
		}
		return nil, true

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		// Update log spinner too if log is enabled but not ready
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return tea.Batch(cmds...), true

	case rpcConnectedMsg:
		m.rpcConnecting = false
		if msg.err != nil {
			m.ethClient = nil
			m.addLog("error", fmt.Sprintf("RPC connection failed: `%s`", msg.err.Error()))
			return nil, true
		}
		m.ethClient = msg.client
		m.addLog("success", fmt.Sprintf("RPC connected to `%s`", msg.client.URL))
		// Balances loaded without a client only hold an error
		m.balances = make(map[string]rpc.Balance)
		if m.activePage == config.PageAccounts {
			return m.selectedAccountCmd(), true
		}
		return nil, true

	case balanceLoadedMsg:
		m.loadingBalance = false
		m.balances[msg.b.AccountID] = msg.b
		if msg.b.ErrMessage != "" {
			m.addLog("error", fmt.Sprintf("Account `%s`: %s", msg.b.AccountID, msg.b.ErrMessage))
		} else {
			m.addLog("success", fmt.Sprintf("Loaded balance for `%s` - ETH: %s", msg.b.AccountID, helpers.FormatETH(msg.b.Wei)))
		}
		return nil, true

	case relayDialedMsg:
		m.relayConnecting = false
		if msg.err != nil {
			m.relayConnected = false
			m.relayErr = "connection failed"
			m.addLog("error", fmt.Sprintf("Relay connection failed: `%s`", msg.err.Error()))
			return nil, true
		}
		if old := m.link.set(msg.client); old != nil {
			_ = old.Close()
		}
		m.relayConnected = true
		m.relayErr = ""
		m.addLog("success", fmt.Sprintf("Relay connected to `%s`", m.relayURL))
		return waitForUpdate(msg.client), true

	case relayUpdateMsg:
		if !m.isCurrentRelay(msg.client) {
			return nil, true
		}
		return tea.Batch(m.handleRelayUpdate(msg.update), waitForUpdate(msg.client)), true

	case relayClosedMsg:
		if !m.isCurrentRelay(msg.client) {
			return nil, true
		}
		m.link.set(nil)
		m.relayConnected = false
		m.relayErr = "connection lost"
		m.addLog("error", "Relay connection lost. Press R on the settings page to reconnect")
		return nil, true

	case approvalEventMsg:
		m.addLog("debug", fmt.Sprintf("Flow `%s`: %s → %s", shortID(msg.ev.CorrelationID), msg.ev.From, msg.ev.To))
		return nil, true

	case connectDoneMsg:
		return m.handleConnectDone(msg), true

	case cancelSentMsg:
		if msg.err != nil {
			m.addLog("warning", fmt.Sprintf("Could not reject `%s`: %v", shortID(msg.promiseID), msg.err))
		} else {
			m.addLog("info", fmt.Sprintf("Rejected `%s`", shortID(msg.promiseID)))
		}
		return nil, true

	case accountActivatedMsg:
		m.addLog("success", fmt.Sprintf("Active account: `%s`", msg.ev.Account.DisplayName()))
		return nil, true

	case activateDoneMsg:
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Could not activate `%s`: %v", msg.id, msg.err))
		}
		return nil, true

	case nftPreparedMsg:
		if msg.confirm != m.nftConfirm {
			return nil, true
		}
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Fee check failed: %v", msg.err))
		} else {
			m.addLog("info", fmt.Sprintf("Fee for %s: %s", msg.confirm.Transfer().Action(), msg.fee.String()))
		}
		return nil, true

	case nftDoneMsg:
		if msg.confirm != m.nftConfirm {
			return nil, true
		}
		if msg.err == nil {
			t := msg.confirm.Transfer()
			m.addLog("success", fmt.Sprintf("NFT %s confirmed: `%s`", t.Action(), helpers.ShortenAddr(t.NftAddress)))
		} else if !errors.Is(msg.err, approval.ErrResolved) {
			m.addLog("error", alertText(msg.err))
			if msg.confirm.Submitted() {
				m.addLog("warning", "Transfer already submitted. Enter waits for it again, it is never sent twice")
			}
		}
		return nil, true

	case passcodeRequestMsg:
		if m.passcode != nil || m.hardware != nil {
			msg.reply <- passcodeReply{err: errors.New("another prompt is open")}
			return nil, true
		}
		form := m.createPasscodeForm(msg.accountID)
		m.passcode = &passcodePrompt{id: msg.id, accountID: msg.accountID, form: form, reply: msg.reply}
		m.addLog("info", fmt.Sprintf("Passcode requested for `%s`", msg.accountID))
		return form.Init(), true

	case hardwareRequestMsg:
		if m.passcode != nil || m.hardware != nil {
			msg.reply <- signatureReply{err: errors.New("another prompt is open")}
			return nil, true
		}
		m.hardware = &hardwarePrompt{id: msg.id, req: msg.req, qr: hardware.QR(msg.req), reply: msg.reply}
		m.addLog("info", fmt.Sprintf("Hardware signature requested for `%s`", msg.req.AccountID))
		return nil, true

	case promptCanceledMsg:
		if m.passcode != nil && m.passcode.id == msg.id {
			m.passcode = nil
		}
		if m.hardware != nil && m.hardware.id == msg.id {
			m.hardware = nil
		}
		return nil, true

	case signaturePastedMsg:
		if m.hardware == nil {
			return nil, true
		}
		if msg.err != nil {
			m.hardware.status = "Clipboard unavailable: " + msg.err.Error()
			return nil, true
		}
		sig, err := hardware.ParseSignature(msg.text)
		if err != nil {
			m.hardware.status = err.Error()
			return nil, true
		}
		m.hardware.reply <- signatureReply{signature: sig}
		m.hardware = nil
		m.addLog("info", "Signature received from device")
		return nil, true

	case clipboardCopiedMsg:
		if m.hardware == nil {
			return nil, true
		}
		if msg.err != nil {
			m.hardware.status = "Copy failed: " + msg.err.Error()
		} else {
			m.hardware.status = "Request copied to clipboard"
		}
		return nil, true

	case walletpicker.SelectedMsg:
		if m.pending == nil {
			return nil, true
		}
		if err := m.pending.SelectAccount(msg.AccountID); err != nil {
			m.addLog("warning", fmt.Sprintf("Could not select `%s`: %v", msg.AccountID, err))
		} else {
			m.addLog("info", fmt.Sprintf("Selected account `%s`", msg.AccountID))
		}
		m.overlay = overlayConnect
		return nil, true

	case walletpicker.BackMsg:
		if m.pending != nil {
			m.overlay = overlayConnect
		}
		return nil, true
	}
	return nil, false
}

// handleRelayUpdate routes one pushed update
func (m *model) handleRelayUpdate(u relay.Update) tea.Cmd {
	switch u.Type {
	case relay.UpdateDappConnect:
		if u.DappConnect == nil {
			return nil
		}
		req, err := connect.NewRequest(*u.DappConnect)
		if err != nil {
			m.addLog("error", fmt.Sprintf("Dropped connect request: %v", err))
			if u.DappConnect.PromiseID != "" {
				return rejectRequest(m.link, u.DappConnect.PromiseID, "invalid request")
			}
			return nil
		}
		return m.enqueueRequest(req)

	case relay.UpdateDappDisconnect:
		var removed bool
		err := m.store.update(func(c *config.Config) { removed = c.RemoveDapp(u.DappURL) })
		if err != nil {
			m.addLog("error", fmt.Sprintf("Save config: %v", err))
		}
		if removed {
			m.addLog("warning", fmt.Sprintf("dApp disconnected: `%s`", u.DappURL))
		}

	case relay.UpdateNewLocalActivities, relay.UpdateReceivedPendingActivities:
		for _, a := range u.Activities {
			if a.NftAddress == "" {
				continue
			}
			if n := m.activities.Publish(a.NftAddress, a); n > 0 {
				m.addLog("debug", fmt.Sprintf("Activity `%s` matched %d waiting transfer(s)", shortID(a.ID), n))
			}
		}
	}
	return nil
}

// handleConnectDone records the outcome of one connect attempt
func (m *model) handleConnectDone(msg connectDoneMsg) tea.Cmd {
	if msg.ctrl != m.pending {
		return nil
	}
	if msg.ctrl.Resolved() {
		req := msg.ctrl.Request()
		err := m.store.update(func(c *config.Config) {
			c.AddDapp(config.DApp{
				Name:        req.Dapp.Name,
				URL:         req.Dapp.URL,
				Host:        req.Dapp.Host,
				Icon:        req.Dapp.IconURL,
				AccountID:   req.AccountID,
				ConnectedAt: time.Now(),
			})
		})
		if err != nil {
			m.addLog("error", fmt.Sprintf("Save config: %v", err))
		}
		m.addLog("success", fmt.Sprintf("Connected `%s` to `%s`", req.Dapp.Host, req.AccountID))
		m.releaseRequest()
		return m.nextRequest()
	}
	if msg.err != nil && !errors.Is(msg.err, approval.ErrResolved) && !errors.Is(msg.err, approval.ErrInFlight) {
		m.addLog("error", alertText(msg.err))
	}
	return nil
}

// handleKey dispatches a key press to the open screen
func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// global keys
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()

	case "l", "L":
		return m.toggleLog()

	case "pageup", "pagedown":
		// Allow scrolling in log viewport when enabled
		if m.logEnabled && m.logReady {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return cmd
		}
	}

	if m.hardware != nil {
		switch msg.String() {
		case "c":
			return copyToClipboard(hardware.Payload(m.hardware.req))
		case "p", "ctrl+v":
			return pasteSignature()
		case "esc":
			m.hardware.reply <- signatureReply{err: errPromptAborted}
			m.hardware = nil
			m.addLog("warning", "Hardware signing aborted")
		}
		return nil
	}

	switch m.overlay {
	case overlayPicker:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return cmd

	case overlayConnect:
		return m.handleConnectKey(msg)

	case overlayNft:
		return m.handleNftKey(msg)
	}

	// page-specific behavior
	switch m.activePage {

	case config.PageHome:
		return m.updateHomeForm(msg)

	case config.PageAccounts:
		list := m.dir.Accounts()
		switch msg.String() {
		case "up", "k":
			if m.selectedAccount > 0 {
				m.selectedAccount--
				return m.selectedAccountCmd()
			}
		case "down", "j":
			if m.selectedAccount < len(list)-1 {
				m.selectedAccount++
				return m.selectedAccountCmd()
			}
		case " ":
			if m.selectedAccount < len(list) {
				acc := list[m.selectedAccount]
				if acc.ID == m.dir.ActiveID() {
					return nil
				}
				m.addLog("info", fmt.Sprintf("Activating `%s`", acc.DisplayName()))
				return activateAccount(m.dir, acc.ID)
			}
		case "r":
			if m.selectedAccount < len(list) {
				delete(m.balances, list[m.selectedAccount].ID)
				m.addLog("info", fmt.Sprintf("Refreshing balance for `%s`", list[m.selectedAccount].DisplayName()))
				if m.ethClient == nil && m.rpcURL != "" && !m.rpcConnecting {
					m.rpcConnecting = true
					return connectRPC(m.rpcURL)
				}
				return m.selectedAccountCmd()
			}
		case "t":
			if _, ok := m.dir.Active(); !ok {
				m.addLog("warning", "No active account")
				return nil
			}
			m.createNftForm()
			m.overlay = overlayNftForm
			return m.nftForm.Init()
		case "b":
			m.activePage = config.PageDapps
		case "s":
			m.activePage = config.PageSettings
		case "h":
			return m.goHome()
		}

	case config.PageDapps:
		dapps := m.store.snapshot().Dapps
		switch msg.String() {
		case "tab", "right":
			if len(dapps) > 0 {
				m.selectedDapp = (m.selectedDapp + 1) % len(dapps)
			}
		case "shift+tab", "left":
			if len(dapps) > 0 {
				m.selectedDapp = (m.selectedDapp - 1 + len(dapps)) % len(dapps)
			}
		case "d":
			if m.selectedDapp < len(dapps) {
				d := dapps[m.selectedDapp]
				if err := m.store.update(func(c *config.Config) { c.RemoveDapp(d.URL) }); err != nil {
					m.addLog("error", fmt.Sprintf("Save config: %v", err))
				}
				m.addLog("warning", fmt.Sprintf("Forgot dApp `%s`", d.Name))
				if m.selectedDapp > 0 && m.selectedDapp >= len(dapps)-1 {
					m.selectedDapp--
				}
			}
		case "h":
			return m.goHome()
		case "esc":
			m.activePage = config.PageAccounts
		}

	case config.PageSettings:
		switch msg.String() {
		case "R":
			if m.relayURL == "" || m.relayConnecting {
				return nil
			}
			m.relayConnecting = true
			m.relayErr = ""
			m.addLog("info", fmt.Sprintf("Reconnecting to `%s`", m.relayURL))
			return dialRelay(m.relayURL, m.logger.WithPrefix("relay"))
		case "h":
			return m.goHome()
		case "esc":
			m.activePage = config.PageAccounts
		}
	}
	return nil
}

func (m *model) handleConnectKey(msg tea.KeyMsg) tea.Cmd {
	if m.pending == nil {
		m.overlay = overlayNone
		return nil
	}
	req := m.pending.Request()
	switch msg.String() {
	case "enter":
		if m.pending.State() != approval.AwaitingUserChoice {
			return nil
		}
		return runConnect(m.pending)
	case "w":
		if m.pending.State() != approval.AwaitingUserChoice {
			return nil
		}
		m.picker = walletpicker.New(accounts.Eligible(m.dir.Accounts(), req.AccountID, req.Chains))
		m.picker.SetWidth(max(0, m.w-6))
		m.overlay = overlayPicker
	case "esc":
		m.addLog("warning", fmt.Sprintf("Rejected request from `%s`", req.Dapp.Host))
		m.releaseRequest()
		return m.nextRequest()
	}
	return nil
}

func (m *model) handleNftKey(msg tea.KeyMsg) tea.Cmd {
	if m.nftConfirm == nil {
		m.overlay = overlayNone
		return nil
	}
	switch msg.String() {
	case "enter":
		if m.nftConfirm.State() != approval.AwaitingUserChoice {
			return nil
		}
		if _, ok := m.nftConfirm.Fee(); !ok {
			return prepareNft(m.nftConfirm)
		}
		return confirmNft(m.nftConfirm)
	case "esc":
		m.closeNft()
		return m.nextRequest()
	}
	return nil
}

func (m *model) updatePasscode(msg tea.Msg) tea.Cmd {
	p := m.passcode
	// Intercept ESC key to abort the attempt
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		p.reply <- passcodeReply{err: errPromptAborted}
		m.passcode = nil
		m.addLog("warning", "Passcode entry aborted")
		return nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
		switch p.form.State {
		case huh.StateCompleted:
			p.reply <- passcodeReply{passcode: tempPasscode}
			tempPasscode = ""
			m.passcode = nil
			return nil
		case huh.StateAborted:
			p.reply <- passcodeReply{err: errPromptAborted}
			m.passcode = nil
			return nil
		}
	}
	return cmd
}

func (m *model) updateNftForm(msg tea.Msg) tea.Cmd {
	// Intercept ESC key to cancel form
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.nftForm = nil
		m.overlay = overlayNone
		return m.nextRequest()
	}

	form, cmd := m.nftForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.nftForm = f

		// Check if form is completed
		if m.nftForm.State == huh.StateCompleted {
			m.nftForm = nil
			return m.openNft(nft.Transfer{
				AccountID:  m.dir.ActiveID(),
				NftAddress: tempNftAddress,
				NftName:    tempNftName,
				ToAddress:  tempNftTo,
				Comment:    tempNftComment,
				Burn:       tempNftBurn,
			})
		}

		// Check if form was aborted (ESC pressed)
		if m.nftForm.State == huh.StateAborted {
			m.nftForm = nil
			m.overlay = overlayNone
			return m.nextRequest()
		}
	}
	return cmd
}

func (m *model) homeFormActive() bool {
	return m.activePage == config.PageHome && m.overlay == overlayNone && m.homeForm != nil
}

func (m *model) goHome() tea.Cmd {
	m.activePage = config.PageHome
	summary := home.Summary{
		Waiting: len(m.queue),
		Dapps:   len(m.store.snapshot().Dapps),
		RelayUp: m.relayConnected,
	}
	if m.pending != nil {
		summary.Waiting++
	}
	if acc, ok := m.dir.Active(); ok {
		summary.ActiveAccount = acc.DisplayName()
	}
	m.homeForm = home.CreateForm(summary)
	return nil
}

func (m *model) updateHomeForm(msg tea.Msg) tea.Cmd {
	if m.homeForm == nil {
		return m.goHome()
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.homeForm = nil
		m.activePage = config.PageAccounts
		return nil
	}

	form, cmd := m.homeForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.homeForm = f
		if m.homeForm.State == huh.StateCompleted {
			m.homeForm = nil
			switch home.TempSelection {
			case "dapps":
				m.activePage = config.PageDapps
			case "settings":
				m.activePage = config.PageSettings
			default:
				m.activePage = config.PageAccounts
				return m.selectedAccountCmd()
			}
			return nil
		}
	}
	return cmd
}

// -------------------- REQUEST LIFECYCLE --------------------

// enqueueRequest shows req, or queues it behind the open screen
func (m *model) enqueueRequest(req connect.Request) tea.Cmd {
	if m.pending != nil || m.nftConfirm != nil || m.nftForm != nil {
		m.queue = append(m.queue, req)
		m.addLog("info", fmt.Sprintf("Queued request from `%s` (%d waiting)", req.Dapp.Host, len(m.queue)))
		return nil
	}
	return m.openRequest(req)
}

func (m *model) openRequest(req connect.Request) tea.Cmd {
	ctrl := connect.NewController(req, m.link, m.dir,
		connect.WithPasscodeGate(m.gates),
		connect.WithHardwareSigner(m.gates),
		connect.WithLogger(m.logger.WithPrefix("connect")),
	)
	m.pendingUnsub = ctrl.Subscribe(func(ev approval.Event) {
		m.gates.notify(approvalEventMsg{ev: ev})
	})
	m.pending = ctrl
	m.overlay = overlayConnect
	m.addLog("info", fmt.Sprintf("Connect request from `%s` for `%s`", req.Dapp.Host, req.AccountID))
	return nil
}

// releaseRequest tears the open request down. An unresolved request is
// canceled with the relay.
func (m *model) releaseRequest() {
	if m.pending == nil {
		return
	}
	if m.pendingUnsub != nil {
		m.pendingUnsub()
		m.pendingUnsub = nil
	}
	m.pending.Close()
	m.released = append(m.released, m.pending)
	m.pending = nil
	if m.overlay == overlayConnect || m.overlay == overlayPicker {
		m.overlay = overlayNone
	}
	m.dismissPrompts()
}

// nextRequest opens the oldest queued request when nothing else is open
func (m *model) nextRequest() tea.Cmd {
	if len(m.queue) == 0 || m.pending != nil || m.nftConfirm != nil || m.nftForm != nil {
		return nil
	}
	req := m.queue[0]
	m.queue = m.queue[1:]
	return m.openRequest(req)
}

func (m *model) openNft(t nft.Transfer) tea.Cmd {
	c, err := nft.NewConfirm(t, m.link, m.dir, m.activities,
		nft.WithPasscodeGate(m.gates),
		nft.WithHardwareSigner(m.gates),
		nft.WithLogger(m.logger.WithPrefix("nft")),
	)
	if err != nil {
		m.addLog("error", err.Error())
		m.overlay = overlayNone
		return m.nextRequest()
	}
	m.nftConfirm = c
	m.nftUnsub = c.Subscribe(func(ev approval.Event) {
		m.gates.notify(approvalEventMsg{ev: ev})
	})
	m.overlay = overlayNft
	m.addLog("info", fmt.Sprintf("Checking %s of `%s`", c.Transfer().Action(), helpers.ShortenAddr(c.Transfer().NftAddress)))
	return prepareNft(c)
}

func (m *model) closeNft() {
	if m.nftConfirm == nil {
		return
	}
	if m.nftUnsub != nil {
		m.nftUnsub()
		m.nftUnsub = nil
	}
	m.nftConfirm.Close()
	m.nftConfirm = nil
	if m.overlay == overlayNft {
		m.overlay = overlayNone
	}
	m.dismissPrompts()
}

// dismissPrompts answers open prompts with an abort. Reply channels are
// buffered, so this never blocks.
func (m *model) dismissPrompts() {
	if m.passcode != nil {
		select {
		case m.passcode.reply <- passcodeReply{err: errPromptAborted}:
		default:
		}
		m.passcode = nil
	}
	if m.hardware != nil {
		select {
		case m.hardware.reply <- signatureReply{err: errPromptAborted}:
		default:
		}
		m.hardware = nil
	}
}

// quit tears down every open and queued request before leaving
func (m *model) quit() tea.Cmd {
	m.releaseRequest()
	for _, req := range m.queue {
		ctrl := connect.NewController(req, m.link, m.dir, connect.WithLogger(m.logger.WithPrefix("connect")))
		ctrl.Close()
		m.released = append(m.released, ctrl)
	}
	m.queue = nil
	m.closeNft()
	return tea.Quit
}

func (m *model) toggleLog() tea.Cmd {
	m.logEnabled = !m.logEnabled
	m.logBuffer.enabled.Store(m.logEnabled)
	if err := m.store.update(func(c *config.Config) { c.Logger = m.logEnabled }); err != nil {
		m.logger.Warn("save config", "err", err)
	}
	if m.logEnabled {
		// Initialize viewport when enabling
		if m.w > 0 {
			m.logViewport.Width = m.w - 6
		}
		m.logReady = false
		return tea.Batch(initLogViewport(), m.logSpinner.Tick)
	}
	// Clear logs and de-initialize when disabling
	m.logBuffer.Reset()
	m.logSeen = 0
	m.logReady = false
	return nil
}

// -------------------- HELPERS --------------------

func (m *model) isCurrentRelay(c *relay.Client) bool {
	cur, err := m.link.current()
	return err == nil && cur == c
}

func (m *model) accountByID(id string) (accounts.Account, bool) {
	for _, acc := range m.dir.Accounts() {
		if acc.ID == id {
			return acc, true
		}
	}
	return accounts.Account{}, false
}

// alertText turns a flow failure into the line shown to the user
func alertText(err error) string {
	switch {
	case errors.Is(err, approval.ErrUserBlocked):
		return "This account is view-only and cannot approve requests"
	case errors.Is(err, accounts.ErrNotFound):
		return "Unknown account, choose another wallet"
	case errors.Is(err, approval.ErrActivationFailed):
		return fmt.Sprintf("Could not switch accounts: %v", err)
	case errors.Is(err, approval.ErrSigningFailed):
		return fmt.Sprintf("Signing failed: %v", err)
	case errors.Is(err, approval.ErrRelayRejected):
		return fmt.Sprintf("The wallet rejected the request: %v", err)
	case errors.Is(err, nft.ErrNotPrepared):
		return "Fee not checked yet, press Enter again"
	}
	return err.Error()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
