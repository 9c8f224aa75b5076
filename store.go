package main

import (
	"context"
	"strings"
	"sync"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/config"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/nft"
	"charm-dapp-connect/relay"

	"go.uber.org/atomic"
)

// -------------------- SHARED STATE --------------------
// Values touched both by Update and by flow goroutines

// configStore serializes config writes. The directory persists the active
// account from flow goroutines while Update records connected dapps.
type configStore struct {
	mu   sync.Mutex
	path string
	cfg  config.Config
}

func newConfigStore(path string, cfg config.Config) *configStore {
	return &configStore{path: path, cfg: cfg}
}

func (s *configStore) snapshot() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.Accounts = append([]config.AccountEntry(nil), s.cfg.Accounts...)
	cfg.Dapps = append([]config.DApp(nil), s.cfg.Dapps...)
	return cfg
}

func (s *configStore) update(fn func(*config.Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	return config.Save(s.path, s.cfg)
}

// logSink is the buffer behind the log panel. Writes are dropped while the
// panel is off.
type logSink struct {
	mu      sync.Mutex
	buf     strings.Builder
	enabled atomic.Bool
}

func (s *logSink) Write(p []byte) (int, error) {
	if !s.enabled.Load() {
		return len(p), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *logSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

func (s *logSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
}

// relayLink forwards to the current relay connection so controllers and the
// account directory survive a reconnect.
type relayLink struct {
	mu     sync.RWMutex
	client *relay.Client
}

var (
	_ connect.Gateway          = (*relayLink)(nil)
	_ nft.Gateway              = (*relayLink)(nil)
	_ accounts.RemoteActivator = (*relayLink)(nil)
)

// set swaps the connection and returns the previous one.
func (l *relayLink) set(c *relay.Client) *relay.Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.client
	l.client = c
	return old
}

func (l *relayLink) current() (*relay.Client, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.client == nil {
		return nil, relay.ErrClosed
	}
	return l.client, nil
}

func (l *relayLink) SignTonProof(ctx context.Context, accountID string, proof []byte, passcode string) ([]byte, error) {
	c, err := l.current()
	if err != nil {
		return nil, err
	}
	return c.SignTonProof(ctx, accountID, proof, passcode)
}

func (l *relayLink) ConfirmDappRequestConnect(ctx context.Context, promiseID string, p connect.ConfirmParams) error {
	c, err := l.current()
	if err != nil {
		return err
	}
	return c.ConfirmDappRequestConnect(ctx, promiseID, p)
}

func (l *relayLink) CancelDappRequest(ctx context.Context, promiseID, reason string) error {
	c, err := l.current()
	if err != nil {
		return err
	}
	return c.CancelDappRequest(ctx, promiseID, reason)
}

func (l *relayLink) ActivateAccount(ctx context.Context, accountID string) error {
	c, err := l.current()
	if err != nil {
		return err
	}
	return c.ActivateAccount(ctx, accountID)
}

func (l *relayLink) CheckNftDraft(ctx context.Context, t nft.Transfer) (nft.Fee, error) {
	c, err := l.current()
	if err != nil {
		return nft.Fee{}, err
	}
	return c.CheckNftDraft(ctx, t)
}

func (l *relayLink) SubmitNftTransfer(ctx context.Context, t nft.Transfer, creds nft.Credentials) error {
	c, err := l.current()
	if err != nil {
		return err
	}
	return c.SubmitNftTransfer(ctx, t, creds)
}
