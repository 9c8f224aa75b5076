package main

import (
	"context"
	"strings"
	"time"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"
	"charm-dapp-connect/config"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/nft"
	"charm-dapp-connect/rpc"
	"charm-dapp-connect/styles"
	"charm-dapp-connect/views/walletpicker"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- MODEL --------------------

// overlay is the screen drawn over the active page
type overlay int

const (
	overlayNone overlay = iota
	overlayConnect
	overlayPicker
	overlayNftForm
	overlayNft
)

// passcodePrompt is an open passcode request from a flow
type passcodePrompt struct {
	id        uint64
	accountID string
	form      *huh.Form
	reply     chan<- passcodeReply
}

// hardwarePrompt is an open hardware signing request from a flow
type hardwarePrompt struct {
	id     uint64
	req    approval.SignRequest
	qr     string
	status string
	reply  chan<- signatureReply
}

// options are the command line settings
type options struct {
	configPath string
	relayURL   string
	rpcURL     string
	logEnabled bool
}

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page
	overlay    overlay

	configPath string
	store      *configStore
	dir        *accounts.Directory
	link       *relayLink
	gates      *uiGates
	activities *approval.Hub[nft.Activity]

	// accounts page
	selectedAccount int
	balances        map[string]rpc.Balance
	loadingBalance  bool

	// connected dapps page
	selectedDapp int

	// home form
	homeForm *huh.Form

	// relay connection
	relayURL        string
	relayConnecting bool
	relayConnected  bool
	relayErr        string

	// ethereum rpc for balances
	rpcURL        string
	ethClient     *rpc.Client
	rpcConnecting bool
	tokenWatch    []rpc.WatchedToken

	// connect requests
	pending      *connect.Controller
	pendingUnsub func()
	queue        []connect.Request
	released     []*connect.Controller // torn down, relay cancel may still be running
	picker       walletpicker.Model

	// nft transfer
	nftForm    *huh.Form
	nftConfirm *nft.Confirm
	nftUnsub   func()

	// prompts opened by the flows
	passcode *passcodePrompt
	hardware *hardwarePrompt

	spin spinner.Model

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *logSink
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
	logSeen     int
}

// -------------------- INIT --------------------

// newModel loads the configuration and wires the domain objects
func newModel(opts options) (*model, error) {
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return nil, err
	}

	relayURL := strings.TrimSpace(opts.relayURL)
	if relayURL == "" {
		relayURL = cfg.RelayURL
	}
	rpcURL := strings.TrimSpace(opts.rpcURL)
	if rpcURL == "" {
		rpcURL = cfg.RPCURL
	}
	logEnabled := cfg.Logger || opts.logEnabled

	sink := &logSink{}
	sink.enabled.Store(logEnabled)
	logger := newLogger(sink)

	store := newConfigStore(configPath, cfg)
	link := &relayLink{}
	dir := accounts.NewDirectory(cfg.ToAccounts(), cfg.ActiveAccount,
		accounts.WithRemote(link),
		accounts.WithLogger(logger.WithPrefix("accounts")),
		accounts.WithPersist(func(id string) error {
			return store.update(func(c *config.Config) { c.ActiveAccount = id })
		}),
	)

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// Initialize log viewport
	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	// Initialize log spinner
	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	m := &model{
		activePage:  config.PageAccounts,
		configPath:  configPath,
		store:       store,
		dir:         dir,
		link:        link,
		gates:       &uiGates{},
		activities:  approval.NewHub[nft.Activity](),
		balances:    make(map[string]rpc.Balance),
		relayURL:    relayURL,
		rpcURL:      rpcURL,
		tokenWatch:  rpc.DefaultWatch,
		spin:        sp,
		logEnabled:  logEnabled,
		logger:      logger,
		logBuffer:   sink,
		logViewport: vp,
		logSpinner:  logSpin,
	}

	// Start on the active account
	for i, acc := range dir.Accounts() {
		if acc.ID == dir.ActiveID() {
			m.selectedAccount = i
			break
		}
	}

	dir.Subscribe(func(ev accounts.Activated) {
		m.gates.notify(accountActivatedMsg{ev: ev})
	})
	return m, nil
}

// Init implements tea.Model interface and returns initial commands
func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	if m.relayURL != "" {
		m.relayConnecting = true
		cmds = append(cmds, dialRelay(m.relayURL, m.logger.WithPrefix("relay")))
	}
	// connect if rpc is set
	if m.rpcURL != "" {
		m.rpcConnecting = true
		cmds = append(cmds, connectRPC(m.rpcURL))
	}
	return tea.Batch(cmds...)
}

// settle waits until every rejected request reached the relay, or ctx ends,
// then drops the connection.
func (m *model) settle(ctx context.Context) {
	for _, ctrl := range m.released {
		select {
		case <-ctrl.Settled():
		case <-ctx.Done():
			m.logger.Warn("shutdown before the relay saw every cancel", "promise", ctrl.Request().PromiseID)
		}
	}
	if c := m.link.set(nil); c != nil {
		_ = c.Close()
	}
	if m.ethClient != nil && m.ethClient.Client != nil {
		m.ethClient.Client.Close()
	}
}

// settleTimeout bounds how long quitting waits on relay cancels
const settleTimeout = 5 * time.Second
