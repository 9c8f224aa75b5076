package main

import (
	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"
	"charm-dapp-connect/connect"
	"charm-dapp-connect/nft"
	"charm-dapp-connect/relay"
	"charm-dapp-connect/rpc"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// rpcConnectedMsg contains result of RPC connection attempt
type rpcConnectedMsg struct {
	client *rpc.Client
	err    error
}

// balanceLoadedMsg contains the ethereum balance of one account
type balanceLoadedMsg struct {
	b rpc.Balance
}

// relayDialedMsg contains result of the relay connection attempt
type relayDialedMsg struct {
	client *relay.Client
	err    error
}

// relayUpdateMsg carries one pushed update
type relayUpdateMsg struct {
	client *relay.Client
	update relay.Update
}

// relayClosedMsg reports that a relay connection went away
type relayClosedMsg struct {
	client *relay.Client
}

// approvalEventMsg forwards a state change of the open flow
type approvalEventMsg struct {
	ev approval.Event
}

// connectDoneMsg is the result of one connect attempt
type connectDoneMsg struct {
	ctrl *connect.Controller
	err  error
}

// cancelSentMsg is the result of rejecting a request that never opened
type cancelSentMsg struct {
	promiseID string
	err       error
}

// accountActivatedMsg is posted by the directory after a switch
type accountActivatedMsg struct {
	ev accounts.Activated
}

// activateDoneMsg is the result of a user-initiated activation
type activateDoneMsg struct {
	id  string
	err error
}

// nftPreparedMsg contains the fee of a transfer draft
type nftPreparedMsg struct {
	confirm *nft.Confirm
	fee     nft.Fee
	err     error
}

// nftDoneMsg is the result of one transfer confirmation attempt
type nftDoneMsg struct {
	confirm *nft.Confirm
	err     error
}

// passcodeRequestMsg asks Update to open the passcode prompt
type passcodeRequestMsg struct {
	id        uint64
	accountID string
	reply     chan<- passcodeReply
}

type passcodeReply struct {
	passcode string
	err      error
}

// hardwareRequestMsg asks Update to show a hardware signing request
type hardwareRequestMsg struct {
	id    uint64
	req   approval.SignRequest
	reply chan<- signatureReply
}

type signatureReply struct {
	signature []byte
	err       error
}

// promptCanceledMsg closes a prompt whose flow stopped waiting
type promptCanceledMsg struct {
	id uint64
}

// signaturePastedMsg contains the clipboard text pasted on the hardware screen
type signaturePastedMsg struct {
	text string
	err  error
}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	err error
}
