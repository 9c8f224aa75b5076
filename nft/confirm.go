package nft

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultActivityTimeout bounds the wait for the activity matching a submission.
const DefaultActivityTimeout = 2 * time.Minute

// Gateway is the relay surface used by Confirm.
type Gateway interface {
	CheckNftDraft(ctx context.Context, t Transfer) (Fee, error)
	SubmitNftTransfer(ctx context.Context, t Transfer, c Credentials) error
}

// Directory resolves accounts.
type Directory interface {
	AccountByID(ctx context.Context, id string) (accounts.Account, error)
}

// ErrNotPrepared is returned by Confirm before a successful Prepare.
var ErrNotPrepared = errors.New("fee not checked yet")

// Option configures a Confirm.
type Option func(*Confirm)

// WithPasscodeGate sets the passcode prompt.
func WithPasscodeGate(g approval.PasscodeGate) Option {
	return func(c *Confirm) { c.passcodes = g }
}

// WithHardwareSigner sets the hardware signer.
func WithHardwareSigner(s approval.HardwareSigner) Option {
	return func(c *Confirm) { c.hardware = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Confirm) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithActivityTimeout overrides DefaultActivityTimeout.
func WithActivityTimeout(d time.Duration) Option {
	return func(c *Confirm) { c.activityTimeout = d }
}

// Confirm drives one transfer or burn through fee check, authorization,
// submission and the activity that acknowledges it.
type Confirm struct {
	transfer        Transfer
	gw              Gateway
	dir             Directory
	hub             *approval.Hub[Activity]
	passcodes       approval.PasscodeGate
	hardware        approval.HardwareSigner
	logger          *log.Logger
	activityTimeout time.Duration
	flow            *approval.Flow

	mu       sync.Mutex
	fee      *Fee
	activity *Activity
	waiter   *approval.Waiter[Activity]
	closed   bool
}

// NewConfirm validates t and returns its confirmation flow.
func NewConfirm(t Transfer, gw Gateway, dir Directory, hub *approval.Hub[Activity], opts ...Option) (*Confirm, error) {
	t, err := t.Normalize()
	if err != nil {
		return nil, err
	}
	c := &Confirm{
		transfer:        t,
		gw:              gw,
		dir:             dir,
		hub:             hub,
		logger:          log.New(io.Discard),
		activityTimeout: DefaultActivityTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	id := uuid.NewString()
	c.logger = c.logger.With("nft", t.NftAddress, "action", t.Action())
	c.flow = approval.New(id,
		approval.WithPasscodeGate(c.passcodes),
		approval.WithHardwareSigner(c.hardware),
		approval.WithLogger(c.logger),
	)
	return c, nil
}

// Transfer returns the normalized transfer.
func (c *Confirm) Transfer() Transfer { return c.transfer }

// State returns the approval state.
func (c *Confirm) State() approval.State { return c.flow.State() }

// LastErr returns the error of the last failed attempt.
func (c *Confirm) LastErr() error { return c.flow.LastErr() }

// Subscribe registers fn for state changes until Close.
func (c *Confirm) Subscribe(fn func(approval.Event)) func() { return c.flow.Subscribe(fn) }

// Fee returns the fee of the last successful Prepare.
func (c *Confirm) Fee() (Fee, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fee == nil {
		return Fee{}, false
	}
	return *c.fee, true
}

// Activity returns the activity that acknowledged the submission.
func (c *Confirm) Activity() (Activity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activity == nil {
		return Activity{}, false
	}
	return *c.activity, true
}

// Prepare runs the draft check and stores the fee.
func (c *Confirm) Prepare(ctx context.Context) (Fee, error) {
	fee, err := c.gw.CheckNftDraft(ctx, c.transfer)
	if err != nil {
		c.logger.Warn("draft check failed", "err", err)
		return Fee{}, errors.Wrap(err, "check nft draft")
	}
	c.mu.Lock()
	c.fee = &fee
	c.mu.Unlock()
	c.logger.Debug("draft checked", "fee", fee)
	return fee, nil
}

// Confirm authorizes and submits the transfer, then waits for its activity.
func (c *Confirm) Confirm(ctx context.Context) error {
	if _, ok := c.Fee(); !ok {
		return ErrNotPrepared
	}
	acc, err := c.dir.AccountByID(ctx, c.transfer.AccountID)
	if err != nil {
		return err
	}

	plan := approval.Plan{
		AccountID:   acc.ID,
		ViewOnly:    !acc.CanSign(),
		Method:      approval.MethodPasscode,
		Description: c.describe(),
	}
	if acc.Type == accounts.Hardware {
		payload, err := json.Marshal(c.transfer)
		if err != nil {
			return errors.Wrap(err, "encode transfer")
		}
		plan.Method = approval.MethodHardware
		plan.Payload = payload
	}

	plan.Submit = func(ctx context.Context, g approval.Grant) error {
		// The activity may arrive before the submit call returns.
		waiter := c.expect()
		err := c.gw.SubmitNftTransfer(ctx, c.transfer, Credentials{
			Passcode:  g.Passcode,
			Signature: g.Signature,
		})
		if err != nil {
			waiter.Stop()
			c.setWaiter(nil)
		}
		return err
	}
	plan.Await = func(ctx context.Context) error {
		waiter := c.expect()
		ctx, cancel := context.WithTimeout(ctx, c.activityTimeout)
		defer cancel()
		activity, err := waiter.Wait(ctx)
		if err != nil {
			// Already submitted: keep listening so a retry only waits.
			c.rearm()
			return err
		}
		c.setWaiter(nil)
		c.mu.Lock()
		c.activity = &activity
		c.mu.Unlock()
		c.logger.Info("activity received", "activity", activity.ID, "status", activity.Status)
		return nil
	}

	return c.flow.Approve(ctx, plan)
}

// Submitted reports whether the relay accepted the transfer. Confirm then
// only waits for the activity again.
func (c *Confirm) Submitted() bool { return c.flow.Submitted() }

// Close drops observers and aborts a running attempt. There is no relay
// promise to reject.
func (c *Confirm) Close() {
	c.flow.Close()
	c.mu.Lock()
	w := c.waiter
	c.waiter = nil
	c.closed = true
	c.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

// expect returns the standing waiter for the transfer's activity, registering
// one if needed.
func (c *Confirm) expect() *approval.Waiter[Activity] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiter == nil {
		c.waiter = c.hub.Expect(c.transfer.NftAddress)
	}
	return c.waiter
}

// rearm replaces a waiter that gave up. After a submission the activity can
// still arrive, so a fresh waiter keeps listening until the next attempt.
func (c *Confirm) rearm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiter != nil {
		c.waiter.Stop()
		c.waiter = nil
	}
	if c.closed || !c.flow.Submitted() {
		return
	}
	c.waiter = c.hub.Expect(c.transfer.NftAddress)
}

func (c *Confirm) setWaiter(w *approval.Waiter[Activity]) {
	c.mu.Lock()
	c.waiter = w
	c.mu.Unlock()
}

func (c *Confirm) describe() string {
	name := c.transfer.NftName
	if name == "" {
		name = c.transfer.NftAddress
	}
	if c.transfer.Burn {
		return "Burn " + name
	}
	return "Send " + name + " to " + c.transfer.ToAddress
}
