package nft

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"
	"time"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu        sync.Mutex
	hub       *approval.Hub[Activity]
	submitted []Credentials
	draftErr  error
	submitErr error
	// publish, when set, acknowledges every submission through the hub.
	publish bool
}

func (g *fakeGateway) CheckNftDraft(_ context.Context, t Transfer) (Fee, error) {
	if g.draftErr != nil {
		return Fee{}, g.draftErr
	}
	return Fee{Amount: big.NewInt(15_000_000), Decimals: 9, Symbol: "TON"}, nil
}

func (g *fakeGateway) SubmitNftTransfer(_ context.Context, t Transfer, c Credentials) error {
	g.mu.Lock()
	g.submitted = append(g.submitted, c)
	g.mu.Unlock()
	if g.submitErr != nil {
		return g.submitErr
	}
	if g.publish {
		g.hub.Publish(t.NftAddress, Activity{ID: "act-1", NftAddress: t.NftAddress, Status: "pending"})
	}
	return nil
}

func (g *fakeGateway) Submitted() []Credentials {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Credentials(nil), g.submitted...)
}

type passcodeFunc func(ctx context.Context, accountID string) (string, error)

func (f passcodeFunc) RequestPasscode(ctx context.Context, accountID string) (string, error) {
	return f(ctx, accountID)
}

type signerFunc func(ctx context.Context, req approval.SignRequest) ([]byte, error)

func (f signerFunc) ConnectAndSign(ctx context.Context, req approval.SignRequest) ([]byte, error) {
	return f(ctx, req)
}

func testDirectory() *accounts.Directory {
	return accounts.NewDirectory([]accounts.Account{
		{ID: "A1", Type: accounts.Normal, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQA1"}},
		{ID: "V1", Type: accounts.View, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQV1"}},
		{ID: "H1", Type: accounts.Hardware, Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQH1"}},
	}, "A1")
}

func transfer(account string) Transfer {
	return Transfer{AccountID: account, NftAddress: "EQnft", NftName: "Punk #1", ToAddress: "UQdest"}
}

func TestNormalize(t *testing.T) {
	_, err := Transfer{NftAddress: "EQnft", ToAddress: "x"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidTransfer)
	_, err = Transfer{AccountID: "A1", NftAddress: "EQnft"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidTransfer)

	burn, err := Transfer{AccountID: "A1", NftAddress: " EQnft ", ToAddress: "UQdest", Burn: true}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, BurnAddress, burn.ToAddress)
	assert.Equal(t, "EQnft", burn.NftAddress)
	assert.Equal(t, "burn", burn.Action())
}

func TestFeeString(t *testing.T) {
	assert.Equal(t, "0.0150 TON", Fee{Amount: big.NewInt(15_000_000), Decimals: 9, Symbol: "TON"}.String())
	assert.Equal(t, "0 TON", Fee{Symbol: "TON"}.String())
}

func TestConfirmRequiresPrepare(t *testing.T) {
	hub := approval.NewHub[Activity]()
	c, err := NewConfirm(transfer("A1"), &fakeGateway{hub: hub}, testDirectory(), hub)
	require.NoError(t, err)
	assert.ErrorIs(t, c.Confirm(context.Background()), ErrNotPrepared)
}

func TestPrepareFailure(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub, draftErr: errors.New("insufficient balance")}
	c, err := NewConfirm(transfer("A1"), gw, testDirectory(), hub)
	require.NoError(t, err)

	_, err = c.Prepare(context.Background())
	assert.Contains(t, err.Error(), "insufficient balance")
	_, ok := c.Fee()
	assert.False(t, ok)
}

func TestConfirmWithPasscodeWaitsForActivity(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub, publish: true}
	c, err := NewConfirm(transfer("A1"), gw, testDirectory(), hub,
		WithPasscodeGate(passcodeFunc(func(context.Context, string) (string, error) { return "1234", nil })))
	require.NoError(t, err)

	fee, err := c.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TON", fee.Symbol)

	require.NoError(t, c.Confirm(context.Background()))
	assert.Equal(t, approval.Resolved, c.State())
	assert.Equal(t, []Credentials{{Passcode: "1234"}}, gw.Submitted())
	act, ok := c.Activity()
	require.True(t, ok)
	assert.Equal(t, "act-1", act.ID)
	assert.Zero(t, hub.Pending("EQnft"))
}

func TestConfirmActivityArrivesLater(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub}
	c, err := NewConfirm(transfer("A1"), gw, testDirectory(), hub,
		WithPasscodeGate(passcodeFunc(func(context.Context, string) (string, error) { return "1234", nil })))
	require.NoError(t, err)
	_, err = c.Prepare(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Confirm(context.Background()) }()

	require.Eventually(t, func() bool { return hub.Pending("EQnft") == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, approval.Confirming, c.State())
	hub.Publish("EQother", Activity{ID: "unrelated"})
	hub.Publish("EQnft", Activity{ID: "act-2", NftAddress: "EQnft"})

	require.NoError(t, <-done)
	act, _ := c.Activity()
	assert.Equal(t, "act-2", act.ID)
}

func TestConfirmActivityTimeout(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub}
	c, err := NewConfirm(transfer("A1"), gw, testDirectory(), hub,
		WithActivityTimeout(20*time.Millisecond),
		WithPasscodeGate(passcodeFunc(func(context.Context, string) (string, error) { return "1234", nil })))
	require.NoError(t, err)
	_, err = c.Prepare(context.Background())
	require.NoError(t, err)

	err = c.Confirm(context.Background())
	assert.ErrorIs(t, err, approval.ErrRelayRejected)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, approval.AwaitingUserChoice, c.State())
	assert.True(t, c.Submitted())
	// still listening for the late activity
	assert.Equal(t, 1, hub.Pending("EQnft"))

	c.Close()
	assert.Zero(t, hub.Pending("EQnft"))
}

func TestRetryAfterActivityTimeoutOnlyWaits(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub}
	prompts := 0
	c, err := NewConfirm(transfer("A1"), gw, testDirectory(), hub,
		WithActivityTimeout(20*time.Millisecond),
		WithPasscodeGate(passcodeFunc(func(context.Context, string) (string, error) {
			prompts++
			return "1234", nil
		})))
	require.NoError(t, err)
	_, err = c.Prepare(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, c.Confirm(context.Background()), approval.ErrRelayRejected)
	require.ErrorIs(t, c.Confirm(context.Background()), approval.ErrRelayRejected)
	require.Len(t, gw.Submitted(), 1)

	// The activity lands between attempts and is picked up by the next one.
	assert.Equal(t, 1, hub.Publish("EQnft", Activity{ID: "act-late", NftAddress: "EQnft"}))
	require.NoError(t, c.Confirm(context.Background()))

	assert.Equal(t, approval.Resolved, c.State())
	assert.Len(t, gw.Submitted(), 1)
	assert.Equal(t, 1, prompts)
	act, ok := c.Activity()
	require.True(t, ok)
	assert.Equal(t, "act-late", act.ID)
	assert.Zero(t, hub.Pending("EQnft"))
}

func TestConfirmSubmitFailureStopsWaiter(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub, submitErr: errors.New("seqno mismatch")}
	c, err := NewConfirm(transfer("A1"), gw, testDirectory(), hub,
		WithPasscodeGate(passcodeFunc(func(context.Context, string) (string, error) { return "1234", nil })))
	require.NoError(t, err)
	_, err = c.Prepare(context.Background())
	require.NoError(t, err)

	err = c.Confirm(context.Background())
	assert.ErrorIs(t, err, approval.ErrRelayRejected)
	assert.Zero(t, hub.Pending("EQnft"))
	assert.ErrorIs(t, c.LastErr(), approval.ErrRelayRejected)
}

func TestConfirmViewOnlyBlocked(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub, publish: true}
	c, err := NewConfirm(transfer("V1"), gw, testDirectory(), hub)
	require.NoError(t, err)
	_, err = c.Prepare(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, c.Confirm(context.Background()), approval.ErrUserBlocked)
	assert.Empty(t, gw.Submitted())
}

func TestConfirmHardwareSignsEncodedBurn(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub, publish: true}
	var payload []byte
	tr := transfer("H1")
	tr.Burn = true
	c, err := NewConfirm(tr, gw, testDirectory(), hub,
		WithHardwareSigner(signerFunc(func(_ context.Context, req approval.SignRequest) ([]byte, error) {
			payload = req.Payload
			assert.Equal(t, "Burn Punk #1", req.Description)
			return []byte("hw"), nil
		})))
	require.NoError(t, err)
	_, err = c.Prepare(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Confirm(context.Background()))
	var decoded Transfer
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, BurnAddress, decoded.ToAddress)
	assert.True(t, decoded.Burn)
	assert.Equal(t, []Credentials{{Signature: []byte("hw")}}, gw.Submitted())
}

func TestCloseAbortsWaiting(t *testing.T) {
	hub := approval.NewHub[Activity]()
	gw := &fakeGateway{hub: hub}
	c, err := NewConfirm(transfer("A1"), gw, testDirectory(), hub,
		WithPasscodeGate(passcodeFunc(func(context.Context, string) (string, error) { return "1234", nil })))
	require.NoError(t, err)
	_, err = c.Prepare(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Confirm(context.Background()) }()
	require.Eventually(t, func() bool { return hub.Pending("EQnft") == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	assert.Error(t, <-done)
	assert.Equal(t, approval.Canceled, c.State())
	assert.Zero(t, hub.Pending("EQnft"))
}
