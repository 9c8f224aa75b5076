// Package accounts holds the wallet's account records and the directory that
// tracks which one is active.
package accounts

import (
	"sort"
	"strings"
)

// Type tells what an account is able to sign.
type Type int

const (
	Normal Type = iota
	// View accounts watch an address and cannot sign anything.
	View
	// Hardware accounts keep their key on an external device.
	Hardware
)

func (t Type) String() string {
	switch t {
	case View:
		return "view"
	case Hardware:
		return "hardware"
	default:
		return "normal"
	}
}

// ParseType maps a config value to a Type. Unknown values are Normal.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view":
		return View
	case "hardware", "ledger":
		return Hardware
	default:
		return Normal
	}
}

// Chain identifies a blockchain an account holds an address on.
type Chain string

const (
	ChainTon      Chain = "ton"
	ChainEthereum Chain = "ethereum"
	ChainTron     Chain = "tron"
)

// Account is a wallet account as stored in the directory.
type Account struct {
	ID        string
	Name      string
	Type      Type
	Addresses map[Chain]string
}

// Address returns the account's address on chain.
func (a Account) Address(chain Chain) (string, bool) {
	addr, ok := a.Addresses[chain]
	return addr, ok && addr != ""
}

// IsMultichain reports whether the account holds addresses on several chains.
func (a Account) IsMultichain() bool {
	n := 0
	for _, addr := range a.Addresses {
		if addr != "" {
			n++
		}
	}
	return n > 1
}

// CanSign is false for view accounts.
func (a Account) CanSign() bool { return a.Type != View }

// Chains returns the chains the account has an address on, sorted.
func (a Account) Chains() []Chain {
	chains := make([]Chain, 0, len(a.Addresses))
	for chain, addr := range a.Addresses {
		if addr != "" {
			chains = append(chains, chain)
		}
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}

// DisplayName is the account name, or its id when unnamed.
func (a Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Candidate is one row of an account picker.
type Candidate struct {
	Account  Account
	Selected bool
	Disabled bool
	Reason   string
}

// Eligible lists every account for a picker. Accounts that cannot serve a
// request on chains are kept but disabled, with the reason why.
func Eligible(accounts []Account, selectedID string, chains []Chain) []Candidate {
	out := make([]Candidate, 0, len(accounts))
	for _, acc := range accounts {
		c := Candidate{Account: acc, Selected: acc.ID == selectedID}
		if !acc.CanSign() {
			c.Disabled = true
			c.Reason = "view-only account"
		} else {
			for _, chain := range chains {
				if _, ok := acc.Address(chain); !ok {
					c.Disabled = true
					c.Reason = "no " + strings.ToUpper(string(chain)) + " address"
					break
				}
			}
		}
		out = append(out, c)
	}
	return out
}
