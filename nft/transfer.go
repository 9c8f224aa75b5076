// Package nft confirms NFT transfers and burns.
package nft

import (
	"math/big"
	"strings"

	"charm-dapp-connect/helpers"

	"github.com/pkg/errors"
)

// BurnAddress receives burned NFTs.
const BurnAddress = "UQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAJKZ"

// ErrInvalidTransfer is returned for a transfer missing required fields.
var ErrInvalidTransfer = errors.New("invalid nft transfer")

// Transfer moves one NFT to another address, or burns it.
type Transfer struct {
	AccountID  string `json:"accountId"`
	NftAddress string `json:"nftAddress"`
	NftName    string `json:"nftName,omitempty"`
	ToAddress  string `json:"toAddress"`
	Comment    string `json:"comment,omitempty"`
	Burn       bool   `json:"isBurn,omitempty"`
}

// Normalize validates t and points burns at the burn address.
func (t Transfer) Normalize() (Transfer, error) {
	t.NftAddress = strings.TrimSpace(t.NftAddress)
	t.ToAddress = strings.TrimSpace(t.ToAddress)
	if t.AccountID == "" {
		return t, errors.Wrap(ErrInvalidTransfer, "missing account")
	}
	if t.NftAddress == "" {
		return t, errors.Wrap(ErrInvalidTransfer, "missing nft address")
	}
	if t.Burn {
		t.ToAddress = BurnAddress
	}
	if t.ToAddress == "" {
		return t, errors.Wrap(ErrInvalidTransfer, "missing recipient")
	}
	return t, nil
}

// Action is "burn" or "transfer".
func (t Transfer) Action() string {
	if t.Burn {
		return "burn"
	}
	return "transfer"
}

// Fee is the network fee reported by a draft check.
type Fee struct {
	Amount   *big.Int
	Decimals uint8
	Symbol   string
}

func (f Fee) String() string {
	return helpers.FormatToken(f.Amount, f.Decimals, f.Symbol)
}

// Credentials authorize a submission. Exactly one field is set.
type Credentials struct {
	Passcode  string
	Signature []byte
}

// Activity is a pending or local activity reported by the relay.
type Activity struct {
	ID         string
	NftAddress string
	Status     string
}
