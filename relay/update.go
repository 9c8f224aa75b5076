package relay

import (
	"charm-dapp-connect/accounts"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/nft"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// UpdateType names a pushed update.
type UpdateType string

const (
	UpdateDappConnect               UpdateType = "dappConnect"
	UpdateDappDisconnect            UpdateType = "dappDisconnect"
	UpdateNewLocalActivities        UpdateType = "newLocalActivities"
	UpdateReceivedPendingActivities UpdateType = "receivedPendingActivities"
)

// Update is one pushed update. Only the fields of its Type are set.
type Update struct {
	Type      UpdateType
	AccountID string

	// DappConnect is set on UpdateDappConnect. It is not validated yet.
	DappConnect *connect.Update
	// DappURL is set on UpdateDappDisconnect.
	DappURL string
	// Activities is set on the activity updates.
	Activities []nft.Activity
}

var errUnknownUpdate = errors.New("unknown update type")

func decodeUpdate(params gjson.Result) (Update, error) {
	u := Update{
		Type:      UpdateType(params.Get("type").String()),
		AccountID: params.Get("accountId").String(),
	}
	switch u.Type {
	case UpdateDappConnect:
		u.DappConnect = decodeDappConnect(params)
	case UpdateDappDisconnect:
		u.DappURL = params.Get("url").String()
	case UpdateNewLocalActivities, UpdateReceivedPendingActivities:
		u.Activities = decodeActivities(params.Get("activities"))
	default:
		return Update{}, errors.Wrapf(errUnknownUpdate, "%q", u.Type)
	}
	return u, nil
}

func decodeDappConnect(params gjson.Result) *connect.Update {
	dapp := params.Get("dapp")
	u := &connect.Update{
		PromiseID: params.Get("promiseId").String(),
		AccountID: params.Get("accountId").String(),
		Dapp: connect.Dapp{
			Name:    dapp.Get("name").String(),
			IconURL: dapp.Get("iconUrl").String(),
			URL:     dapp.Get("url").String(),
			Host:    dapp.Get("host").String(),
		},
		Permissions: connect.Permissions{
			IsAddressRequired:  params.Get("permissions.isAddressRequired").Bool(),
			IsPasswordRequired: params.Get("permissions.isPasswordRequired").Bool(),
		},
	}
	if proof := params.Get("proof"); proof.Exists() && proof.Type != gjson.Null {
		payload := proof.Get("payload")
		if proof.IsObject() && payload.Type == gjson.String {
			u.Proof = []byte(payload.String())
		} else {
			u.ProofMalformed = true
		}
	}
	for _, chain := range params.Get("chains").Array() {
		u.Chains = append(u.Chains, accounts.Chain(chain.String()))
	}
	return u
}

func decodeActivities(list gjson.Result) []nft.Activity {
	var out []nft.Activity
	list.ForEach(func(_, a gjson.Result) bool {
		address := a.Get("nft.address").String()
		if address == "" {
			address = a.Get("nftAddress").String()
		}
		out = append(out, nft.Activity{
			ID:         a.Get("id").String(),
			NftAddress: address,
			Status:     a.Get("status").String(),
		})
		return true
	})
	return out
}
