package main

import (
	"context"
	"sync"

	"charm-dapp-connect/approval"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

var (
	errPromptAborted = errors.New("prompt aborted")
	errNoTerminal    = errors.New("no terminal attached")
)

// uiGates answers the flows' passcode and hardware requests through the
// Bubble Tea program. A flow goroutine posts a request message and blocks on
// its reply channel; Update opens the matching prompt and replies.
type uiGates struct {
	mu     sync.RWMutex
	send   func(tea.Msg)
	nextID atomic.Uint64
}

var (
	_ approval.PasscodeGate   = (*uiGates)(nil)
	_ approval.HardwareSigner = (*uiGates)(nil)
)

func (g *uiGates) bind(send func(tea.Msg)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.send = send
}

// notify posts msg without blocking the caller. Program.Send blocks until
// Update reads the message, and observers may run inside Update.
func (g *uiGates) notify(msg tea.Msg) bool {
	g.mu.RLock()
	send := g.send
	g.mu.RUnlock()
	if send == nil {
		return false
	}
	go send(msg)
	return true
}

func (g *uiGates) RequestPasscode(ctx context.Context, accountID string) (string, error) {
	id := g.nextID.Inc()
	reply := make(chan passcodeReply, 1)
	if !g.notify(passcodeRequestMsg{id: id, accountID: accountID, reply: reply}) {
		return "", errNoTerminal
	}
	select {
	case r := <-reply:
		return r.passcode, r.err
	case <-ctx.Done():
		g.notify(promptCanceledMsg{id: id})
		return "", ctx.Err()
	}
}

func (g *uiGates) ConnectAndSign(ctx context.Context, req approval.SignRequest) ([]byte, error) {
	id := g.nextID.Inc()
	reply := make(chan signatureReply, 1)
	if !g.notify(hardwareRequestMsg{id: id, req: req, reply: reply}) {
		return nil, errNoTerminal
	}
	select {
	case r := <-reply:
		return r.signature, r.err
	case <-ctx.Done():
		g.notify(promptCanceledMsg{id: id})
		return nil, ctx.Err()
	}
}
