package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm-dapp-connect/accounts"

	"github.com/pkg/errors"
)

// Page identifies a top-level screen
type Page int

const (
	PageHome Page = iota
	PageAccounts
	PageDapps
	PageSettings
)

// Config represents the application configuration
type Config struct {
	RelayURL      string         `json:"relay_url"`
	RPCURL        string         `json:"rpc_url,omitempty"`
	Accounts      []AccountEntry `json:"accounts"`
	ActiveAccount string         `json:"active_account,omitempty"`
	Dapps         []DApp         `json:"dapps"`
	Logger        bool           `json:"logger"`
}

// AccountEntry represents an account in the config
type AccountEntry struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Type      string            `json:"type,omitempty"` // normal, view, hardware
	Addresses map[string]string `json:"addresses"`
}

// DApp is a dapp the wallet is connected to
type DApp struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Host        string    `json:"host,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	AccountID   string    `json:"account_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// DefaultPath returns ~/.charm-dapp-connect.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".charm-dapp-connect.json")
}

// Load reads the config from the specified path
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RelayURL: "ws://127.0.0.1:8787/relay",
		RPCURL:   "https://ethereum-rpc.publicnode.com",
		Accounts: []AccountEntry{
			{
				ID:   "main",
				Name: "Main",
				Type: "normal",
				Addresses: map[string]string{
					"ton":      "UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG",
					"ethereum": "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
				},
			},
			{
				ID:        "watch",
				Name:      "Watch only",
				Type:      "view",
				Addresses: map[string]string{"ton": "UQCD39VS5jcptHL8vMjEXrzGaRcCVYto7HUn4bpAOg8xqEBI"},
			},
		},
		ActiveAccount: "main",
		Dapps:         []DApp{},
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found.
// A file that exists but cannot be parsed is returned as an error and left alone.
func LoadOrCreate(path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(errors.Cause(err)) {
		return DefaultConfig(), err
	}
	cfg = DefaultConfig()
	return cfg, Save(path, cfg)
}

// ToAccounts converts the configured entries for the account directory.
// Entries without an id are skipped.
func (c Config) ToAccounts() []accounts.Account {
	out := make([]accounts.Account, 0, len(c.Accounts))
	for _, e := range c.Accounts {
		if strings.TrimSpace(e.ID) == "" {
			continue
		}
		acc := accounts.Account{
			ID:        e.ID,
			Name:      e.Name,
			Type:      accounts.ParseType(e.Type),
			Addresses: make(map[accounts.Chain]string, len(e.Addresses)),
		}
		for chain, addr := range e.Addresses {
			acc.Addresses[accounts.Chain(strings.ToLower(chain))] = addr
		}
		out = append(out, acc)
	}
	return out
}

// AddDapp records a connection, replacing an earlier one with the same URL.
func (c *Config) AddDapp(d DApp) {
	for i := range c.Dapps {
		if c.Dapps[i].URL == d.URL {
			c.Dapps[i] = d
			return
		}
	}
	c.Dapps = append(c.Dapps, d)
}

// RemoveDapp forgets the connection to url and reports whether there was one.
func (c *Config) RemoveDapp(url string) bool {
	for i := range c.Dapps {
		if c.Dapps[i].URL == url {
			c.Dapps = append(c.Dapps[:i], c.Dapps[i+1:]...)
			return true
		}
	}
	return false
}
