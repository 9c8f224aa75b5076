package connect

import (
	"context"
	"sync"
	"testing"
	"time"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway records every call in order.
type fakeGateway struct {
	mu        sync.Mutex
	calls     []string
	confirms  []ConfirmParams
	cancels   []string
	signErr   error
	confirmFn func(ctx context.Context) error
}

func (g *fakeGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *fakeGateway) SignTonProof(_ context.Context, accountID string, proof []byte, passcode string) ([]byte, error) {
	g.record("sign:" + accountID + ":" + passcode)
	if g.signErr != nil {
		return nil, g.signErr
	}
	return append([]byte("sig-"), proof...), nil
}

func (g *fakeGateway) ConfirmDappRequestConnect(ctx context.Context, promiseID string, p ConfirmParams) error {
	g.record("confirm:" + promiseID + ":" + p.AccountID)
	if g.confirmFn != nil {
		if err := g.confirmFn(ctx); err != nil {
			return err
		}
	}
	g.mu.Lock()
	g.confirms = append(g.confirms, p)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) CancelDappRequest(_ context.Context, promiseID, reason string) error {
	g.record("cancel:" + promiseID + ":" + reason)
	g.mu.Lock()
	g.cancels = append(g.cancels, reason)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) Cancels() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancels)
}

// remoteLog records account activations on the same timeline as the gateway.
type remoteLog struct {
	gw  *fakeGateway
	err error
}

func (r remoteLog) ActivateAccount(_ context.Context, id string) error {
	r.gw.record("activate:" + id)
	return r.err
}

type passcodeFunc func(ctx context.Context, accountID string) (string, error)

func (f passcodeFunc) RequestPasscode(ctx context.Context, accountID string) (string, error) {
	return f(ctx, accountID)
}

type signerFunc func(ctx context.Context, req approval.SignRequest) ([]byte, error)

func (f signerFunc) ConnectAndSign(ctx context.Context, req approval.SignRequest) ([]byte, error) {
	return f(ctx, req)
}

func fixedPasscode(code string) passcodeFunc {
	return func(context.Context, string) (string, error) { return code, nil }
}

func testDirectory(gw *fakeGateway, active string, remoteErr error) *accounts.Directory {
	return accounts.NewDirectory([]accounts.Account{
		{ID: "A1", Name: "Main", Type: accounts.Normal, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQA1"}},
		{ID: "A2", Name: "Second", Type: accounts.Normal, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQA2"}},
		{ID: "V1", Name: "Watch", Type: accounts.View, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQV1"}},
		{ID: "H1", Name: "Ledger", Type: accounts.Hardware, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQH1"}},
	}, active, accounts.WithRemote(remoteLog{gw: gw, err: remoteErr}))
}

func testRequest(t *testing.T, account string, proof []byte) Request {
	t.Helper()
	req, err := NewRequest(Update{
		PromiseID:   "p1",
		AccountID:   account,
		Dapp:        Dapp{URL: "https://getgems.io/connect"},
		Permissions: Permissions{IsAddressRequired: true},
		Proof:       proof,
	})
	require.NoError(t, err)
	return req
}

func TestNewRequestValidates(t *testing.T) {
	_, err := NewRequest(Update{AccountID: "A1", Dapp: Dapp{URL: "https://x.io"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewRequest(Update{PromiseID: "p", Dapp: Dapp{URL: "https://x.io"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewRequest(Update{PromiseID: "p", AccountID: "A1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req, err := NewRequest(Update{PromiseID: "p", AccountID: "A1", Dapp: Dapp{URL: "https://getgems.io/app"}})
	require.NoError(t, err)
	assert.Equal(t, "getgems.io", req.Dapp.Host)
	assert.Equal(t, "getgems.io", req.Dapp.Name)
	assert.Equal(t, []accounts.Chain{accounts.ChainTon}, req.Chains)
	assert.IsType(t, NoProofRequired{}, req.Proof)

	req, err = NewRequest(Update{PromiseID: "p", AccountID: "A1", Dapp: Dapp{URL: "https://x.io"}, Proof: []byte{}})
	require.NoError(t, err)
	payload, ok := req.ProofPayload()
	assert.True(t, ok, "an empty proof is still a requested proof")
	assert.Empty(t, payload)
}

func TestConnectFastPath(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(testRequest(t, "A1", nil), gw, testDirectory(gw, "A1", nil))

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, []string{"confirm:p1:A1"}, gw.Calls())
	assert.Nil(t, gw.confirms[0].Signature)
	assert.Equal(t, approval.Resolved, c.State())

	c.Close()
	assert.Never(t, func() bool { return gw.Cancels() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestConnectWithProofUsesPasscode(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(testRequest(t, "A1", []byte("P")), gw, testDirectory(gw, "A1", nil),
		WithPasscodeGate(fixedPasscode("1234")))

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, []string{"sign:A1:1234", "confirm:p1:A1"}, gw.Calls())
	assert.Equal(t, []byte("sig-P"), gw.confirms[0].Signature)
}

func TestConnectAddressNotRequiredSkipsProof(t *testing.T) {
	gw := &fakeGateway{}
	req := testRequest(t, "A1", []byte("P"))
	req.Permissions.IsAddressRequired = false
	c := NewController(req, gw, testDirectory(gw, "A1", nil))

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, []string{"confirm:p1:A1"}, gw.Calls())
}

func TestConnectViewAccountIsBlocked(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(testRequest(t, "V1", []byte("P")), gw, testDirectory(gw, "A1", nil),
		WithPasscodeGate(fixedPasscode("1234")))

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, approval.ErrUserBlocked)
	assert.Empty(t, gw.Calls(), "no activation, signing or confirm")
	assert.Equal(t, approval.AwaitingUserChoice, c.State())
	assert.ErrorIs(t, c.LastErr(), approval.ErrUserBlocked)
}

func TestConnectHardwareSignsProof(t *testing.T) {
	gw := &fakeGateway{}
	var got approval.SignRequest
	c := NewController(testRequest(t, "H1", []byte("P")), gw, testDirectory(gw, "H1", nil),
		WithHardwareSigner(signerFunc(func(_ context.Context, req approval.SignRequest) ([]byte, error) {
			gw.record("hardware")
			got = req
			return []byte("hw"), nil
		})))

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, []string{"hardware", "confirm:p1:H1"}, gw.Calls())
	assert.Equal(t, []byte("P"), got.Payload)
	assert.Equal(t, "p1", got.CorrelationID)
	assert.Equal(t, []byte("hw"), gw.confirms[0].Signature)
}

func TestConnectHardwareWithoutProof(t *testing.T) {
	gw := &fakeGateway{}
	signed := false
	c := NewController(testRequest(t, "H1", nil), gw, testDirectory(gw, "H1", nil),
		WithHardwareSigner(signerFunc(func(_ context.Context, req approval.SignRequest) ([]byte, error) {
			signed = true
			assert.Empty(t, req.Payload)
			return []byte("hw"), nil
		})))

	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, signed)
}

func TestDismissBeforeConnect(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(testRequest(t, "A1", nil), gw, testDirectory(gw, "A1", nil))

	c.Close()
	require.Eventually(t, func() bool { return gw.Cancels() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"cancel:p1:user reject"}, gw.Calls())

	c.Close()
	assert.Never(t, func() bool { return gw.Cancels() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.ErrorIs(t, c.Connect(context.Background()), approval.ErrResolved)
	assert.ErrorIs(t, c.SelectAccount("A2"), approval.ErrResolved)
}

func TestSwitchAccountActivatesBeforeConfirm(t *testing.T) {
	gw := &fakeGateway{}
	dir := testDirectory(gw, "A1", nil)
	c := NewController(testRequest(t, "A1", nil), gw, dir)

	require.NoError(t, c.SelectAccount("A2"))
	assert.Equal(t, "A2", c.Request().AccountID)
	require.NoError(t, c.Connect(context.Background()))

	assert.Equal(t, []string{"activate:A2", "confirm:p1:A2"}, gw.Calls())
	assert.Equal(t, "A2", dir.ActiveID())
}

func TestActivationFailureKeepsRequestOpen(t *testing.T) {
	gw := &fakeGateway{}
	dir := testDirectory(gw, "A1", errors.New("core unavailable"))
	c := NewController(testRequest(t, "A2", []byte("P")), gw, dir,
		WithPasscodeGate(fixedPasscode("1234")))

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, approval.ErrActivationFailed)
	assert.Equal(t, []string{"activate:A2"}, gw.Calls(), "no signing or confirm")
	assert.Equal(t, approval.AwaitingUserChoice, c.State())
	assert.Equal(t, "A1", dir.ActiveID())

	// the user can fall back to the active account
	require.NoError(t, c.SelectAccount("A1"))
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Resolved())
}

func TestSigningFailureKeepsSelection(t *testing.T) {
	gw := &fakeGateway{signErr: errors.New("wrong passcode")}
	c := NewController(testRequest(t, "A1", []byte("P")), gw, testDirectory(gw, "A1", nil),
		WithPasscodeGate(fixedPasscode("0000")))

	var states []approval.State
	c.Subscribe(func(ev approval.Event) { states = append(states, ev.To) })

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, approval.ErrSigningFailed)
	assert.Contains(t, err.Error(), "wrong passcode")
	assert.Equal(t, []approval.State{approval.Authorizing, approval.Failed, approval.AwaitingUserChoice}, states)
	assert.Equal(t, "A1", c.Request().AccountID)
	assert.NotContains(t, gw.Calls(), "confirm:p1:A1")

	gw.signErr = nil
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, approval.Resolved, states[len(states)-1])
}

func TestPasscodeAbortIsSigningFailure(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(testRequest(t, "A1", []byte("P")), gw, testDirectory(gw, "A1", nil),
		WithPasscodeGate(passcodeFunc(func(context.Context, string) (string, error) {
			return "", context.Canceled
		})))

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, approval.ErrSigningFailed)
	assert.Empty(t, gw.Calls())
}

func TestReentrantConnectConfirmsOnce(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	gw := &fakeGateway{confirmFn: func(context.Context) error {
		close(entered)
		<-release
		return nil
	}}
	c := NewController(testRequest(t, "A1", nil), gw, testDirectory(gw, "A1", nil))

	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background()) }()
	<-entered

	assert.ErrorIs(t, c.Connect(context.Background()), approval.ErrInFlight)
	assert.ErrorIs(t, c.SelectAccount("A2"), ErrBusy)
	close(release)

	require.NoError(t, <-done)
	assert.Len(t, gw.confirms, 1)
}

func TestCloseWhileConfirmingCancelsOnce(t *testing.T) {
	entered := make(chan struct{})
	gw := &fakeGateway{confirmFn: func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}}
	c := NewController(testRequest(t, "A1", nil), gw, testDirectory(gw, "A1", nil))

	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background()) }()
	<-entered
	c.Close()

	assert.Error(t, <-done)
	assert.False(t, c.Resolved())
	require.Eventually(t, func() bool { return gw.Cancels() == 1 }, time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return gw.Cancels() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestDecideMethod(t *testing.T) {
	normal := accounts.Account{ID: "A1", Type: accounts.Normal}
	hardware := accounts.Account{ID: "H1", Type: accounts.Hardware}
	withProof := Request{Permissions: Permissions{IsAddressRequired: true}, Proof: RequiringProof{Payload: []byte("P")}}
	noProof := Request{Permissions: Permissions{IsAddressRequired: true}, Proof: NoProofRequired{}}
	noAddress := Request{Proof: RequiringProof{Payload: []byte("P")}}

	assert.Equal(t, approval.MethodPasscode, decideMethod(withProof, normal))
	assert.Equal(t, approval.MethodNone, decideMethod(noProof, normal))
	assert.Equal(t, approval.MethodNone, decideMethod(noAddress, normal))
	assert.Equal(t, approval.MethodHardware, decideMethod(noProof, hardware))
	assert.Equal(t, approval.MethodNone, decideMethod(noAddress, hardware))
}
