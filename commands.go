package main

import (
	"context"
	"io"
	"time"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/nft"
	"charm-dapp-connect/relay"
	"charm-dapp-connect/rpc"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

const (
	dialTimeout     = 10 * time.Second
	activateTimeout = 15 * time.Second
	prepareTimeout  = 15 * time.Second
	cancelTimeout   = 10 * time.Second
)

// connectRPC establishes an RPC connection to the Ethereum node
func connectRPC(url string) tea.Cmd {
	return func() tea.Msg {
		result := rpc.Connect(url)
		return rpcConnectedMsg{client: result.Client, err: result.Error}
	}
}

// loadBalance loads the ethereum balance of an account
func loadBalance(client *rpc.Client, acc accounts.Account, watch []rpc.WatchedToken) tea.Cmd {
	return func() tea.Msg {
		return balanceLoadedMsg{b: rpc.LoadBalance(client, acc, watch)}
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// dialRelay opens the relay websocket
func dialRelay(url string, logger *log.Logger) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		c, err := relay.Dial(ctx, url, relay.WithLogger(logger))
		return relayDialedMsg{client: c, err: err}
	}
}

// waitForUpdate blocks on the next pushed update. Update re-issues it after
// every update until the connection closes.
func waitForUpdate(c *relay.Client) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-c.Updates()
		if !ok {
			return relayClosedMsg{client: c}
		}
		return relayUpdateMsg{client: c, update: u}
	}
}

// runConnect runs one connect attempt. Teardown aborts it through the flow.
func runConnect(ctrl *connect.Controller) tea.Cmd {
	return func() tea.Msg {
		return connectDoneMsg{ctrl: ctrl, err: ctrl.Connect(context.Background())}
	}
}

// rejectRequest cancels a request that could not be shown
func rejectRequest(gw connect.Gateway, promiseID, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
		defer cancel()
		return cancelSentMsg{promiseID: promiseID, err: gw.CancelDappRequest(ctx, promiseID, reason)}
	}
}

// activateAccount switches the active account
func activateAccount(dir *accounts.Directory, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), activateTimeout)
		defer cancel()
		_, err := dir.ActivateAccount(ctx, id)
		return activateDoneMsg{id: id, err: err}
	}
}

// prepareNft checks the transfer draft for its fee
func prepareNft(c *nft.Confirm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), prepareTimeout)
		defer cancel()
		fee, err := c.Prepare(ctx)
		return nftPreparedMsg{confirm: c, fee: fee, err: err}
	}
}

// confirmNft runs one transfer confirmation attempt
func confirmNft(c *nft.Confirm) tea.Cmd {
	return func() tea.Msg {
		return nftDoneMsg{confirm: c, err: c.Confirm(context.Background())}
	}
}

// pasteSignature reads the device signature from the clipboard
func pasteSignature() tea.Cmd {
	return func() tea.Msg {
		text, err := clipboard.ReadAll()
		return signaturePastedMsg{text: text, err: err}
	}
}

// copyToClipboard copies text to the system clipboard
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardCopiedMsg{err: clipboard.WriteAll(text)}
	}
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// newLogger creates the styled logger behind the log panel
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "",
	})
	// Set log level and styling
	logger.SetLevel(log.DebugLevel)
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(cMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
		Message:   lipgloss.NewStyle().Foreground(cText),
		Key:       lipgloss.NewStyle().Foreground(cAccent),
		Value:     lipgloss.NewStyle().Foreground(cText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("ERROR"),
		},
	})
	return logger
}

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if !m.logEnabled || !m.logReady || m.logger == nil {
		return
	}

	// Use the logger to write messages
	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	// Update viewport content
	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output. Domain
// packages write from their own goroutines, so it runs on every message.
func (m *model) updateLogViewport() {
	if !m.logReady || m.logBuffer == nil {
		return
	}
	n := m.logBuffer.Len()
	if n == m.logSeen {
		return
	}
	m.logSeen = n

	m.logViewport.SetContent(m.logBuffer.String())
	// Scroll to bottom to show latest entries
	m.logViewport.GotoBottom()
}

// selectedAccountCmd loads the balance of the highlighted account unless cached
func (m *model) selectedAccountCmd() tea.Cmd {
	list := m.dir.Accounts()
	if len(list) == 0 || m.selectedAccount >= len(list) {
		return nil
	}
	acc := list[m.selectedAccount]
	if _, ok := acc.Address(accounts.ChainEthereum); !ok {
		return nil
	}
	if _, ok := m.balances[acc.ID]; ok {
		return nil
	}
	m.loadingBalance = true
	return loadBalance(m.ethClient, acc, m.tokenWatch)
}
