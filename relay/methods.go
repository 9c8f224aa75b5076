package relay

import (
	"context"
	"math"
	"math/big"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/nft"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	methodSignTonProof      = "dapp_signTonProof"
	methodConfirmConnect    = "dapp_confirmConnect"
	methodCancelRequest     = "dapp_cancelRequest"
	methodActivateAccount   = "wallet_activateAccount"
	methodCheckNftDraft     = "nft_checkDraft"
	methodSubmitNftTransfer = "nft_submitTransfer"
)

var (
	_ connect.Gateway          = (*Client)(nil)
	_ nft.Gateway              = (*Client)(nil)
	_ accounts.RemoteActivator = (*Client)(nil)
)

// SignTonProof asks the wallet core to sign a TON proof with the account key.
func (c *Client) SignTonProof(ctx context.Context, accountID string, proof []byte, passcode string) ([]byte, error) {
	res, err := c.call(ctx, methodSignTonProof, map[string]any{
		"accountId": accountID,
		"proof":     string(proof),
		"password":  passcode,
	})
	if err != nil {
		return nil, err
	}
	sig, err := hexutil.Decode(res.Get("signature").String())
	if err != nil {
		return nil, errors.Wrap(err, "decode proof signature")
	}
	return sig, nil
}

// ConfirmDappRequestConnect resolves a connect promise.
func (c *Client) ConfirmDappRequestConnect(ctx context.Context, promiseID string, p connect.ConfirmParams) error {
	params := map[string]any{
		"promiseId": promiseID,
		"accountId": p.AccountID,
	}
	if len(p.Signature) > 0 {
		params["signature"] = hexutil.Encode(p.Signature)
	}
	_, err := c.call(ctx, methodConfirmConnect, params)
	return err
}

// CancelDappRequest rejects a dapp promise.
func (c *Client) CancelDappRequest(ctx context.Context, promiseID, reason string) error {
	_, err := c.call(ctx, methodCancelRequest, map[string]any{
		"promiseId": promiseID,
		"reason":    reason,
	})
	return err
}

// ActivateAccount switches the wallet core's active account.
func (c *Client) ActivateAccount(ctx context.Context, accountID string) error {
	_, err := c.call(ctx, methodActivateAccount, map[string]any{"accountId": accountID})
	return err
}

// CheckNftDraft estimates the fee of a transfer.
func (c *Client) CheckNftDraft(ctx context.Context, t nft.Transfer) (nft.Fee, error) {
	res, err := c.call(ctx, methodCheckNftDraft, t)
	if err != nil {
		return nft.Fee{}, err
	}
	amount, ok := new(big.Int).SetString(res.Get("fee").String(), 10)
	if !ok {
		return nft.Fee{}, errors.Errorf("invalid fee %q", res.Get("fee").String())
	}
	symbol := res.Get("symbol").String()
	if symbol == "" {
		symbol = "TON"
	}
	decimals := uint8(9)
	if d := res.Get("decimals"); d.Exists() {
		if d.Type != gjson.Number || d.Num != math.Trunc(d.Num) || d.Num < 0 || d.Num > math.MaxUint8 {
			return nft.Fee{}, errors.Errorf("invalid fee decimals %s", d.Raw)
		}
		decimals = uint8(d.Num)
	}
	return nft.Fee{Amount: amount, Decimals: decimals, Symbol: symbol}, nil
}

type submitParams struct {
	nft.Transfer
	Password  string `json:"password,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// SubmitNftTransfer sends a transfer authorized by creds.
func (c *Client) SubmitNftTransfer(ctx context.Context, t nft.Transfer, creds nft.Credentials) error {
	p := submitParams{Transfer: t, Password: creds.Passcode}
	if len(creds.Signature) > 0 {
		p.Signature = hexutil.Encode(creds.Signature)
	}
	_, err := c.call(ctx, methodSubmitNftTransfer, p)
	return err
}
