// Package connect pairs a dapp with one of the wallet's accounts.
package connect

import (
	"net/url"
	"strings"

	"charm-dapp-connect/accounts"

	"github.com/pkg/errors"
)

// Dapp identifies the application asking to connect.
type Dapp struct {
	Name    string
	IconURL string
	URL     string
	Host    string
}

// Permissions requested by the dapp.
type Permissions struct {
	IsAddressRequired  bool
	IsPasswordRequired bool
}

// Proof is either NoProofRequired or RequiringProof.
type Proof interface {
	isProof()
}

// NoProofRequired means the dapp did not ask for an ownership proof.
type NoProofRequired struct{}

// RequiringProof carries the payload the dapp wants signed.
type RequiringProof struct {
	Payload []byte
}

func (NoProofRequired) isProof() {}
func (RequiringProof) isProof()  {}

// Update is an inbound connect request as pushed by the relay. Fields are
// untrusted until NewRequest accepted them.
type Update struct {
	PromiseID   string
	AccountID   string
	Dapp        Dapp
	Permissions Permissions
	// Proof is nil when the dapp did not request one.
	Proof []byte
	// ProofMalformed is set when a proof was sent but could not be read.
	ProofMalformed bool
	Chains         []accounts.Chain
}

// Request is a validated connect request.
type Request struct {
	PromiseID   string
	AccountID   string
	Dapp        Dapp
	Permissions Permissions
	Proof       Proof
	Chains      []accounts.Chain
}

// ErrInvalidRequest wraps every validation failure of NewRequest.
var ErrInvalidRequest = errors.New("invalid connect request")

// NewRequest validates an update.
func NewRequest(u Update) (Request, error) {
	if strings.TrimSpace(u.PromiseID) == "" {
		return Request{}, errors.Wrap(ErrInvalidRequest, "missing promise id")
	}
	if strings.TrimSpace(u.AccountID) == "" {
		return Request{}, errors.Wrap(ErrInvalidRequest, "missing account id")
	}
	if strings.TrimSpace(u.Dapp.URL) == "" {
		return Request{}, errors.Wrap(ErrInvalidRequest, "missing dapp url")
	}
	if u.ProofMalformed {
		return Request{}, errors.Wrap(ErrInvalidRequest, "malformed proof")
	}

	dapp := u.Dapp
	if dapp.Host == "" {
		parsed, err := url.Parse(dapp.URL)
		if err != nil {
			return Request{}, errors.Wrapf(ErrInvalidRequest, "dapp url %q: %v", dapp.URL, err)
		}
		dapp.Host = parsed.Host
		if dapp.Host == "" {
			dapp.Host = dapp.URL
		}
	}
	if dapp.Name == "" {
		dapp.Name = dapp.Host
	}

	var proof Proof = NoProofRequired{}
	if u.Proof != nil {
		proof = RequiringProof{Payload: append([]byte(nil), u.Proof...)}
	}

	chains := u.Chains
	if len(chains) == 0 {
		chains = []accounts.Chain{accounts.ChainTon}
	}

	return Request{
		PromiseID:   u.PromiseID,
		AccountID:   u.AccountID,
		Dapp:        dapp,
		Permissions: u.Permissions,
		Proof:       proof,
		Chains:      append([]accounts.Chain(nil), chains...),
	}, nil
}

// ProofPayload returns the requested proof payload, if any.
func (r Request) ProofPayload() ([]byte, bool) {
	p, ok := r.Proof.(RequiringProof)
	if !ok {
		return nil, false
	}
	return p.Payload, true
}
