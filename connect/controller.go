package connect

import (
	"context"
	"io"
	"sync"

	"charm-dapp-connect/accounts"
	"charm-dapp-connect/approval"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// ConfirmParams is sent with a confirmation.
type ConfirmParams struct {
	AccountID string
	Signature []byte
}

// Gateway is the relay surface used by the controller.
type Gateway interface {
	SignTonProof(ctx context.Context, accountID string, proof []byte, passcode string) ([]byte, error)
	ConfirmDappRequestConnect(ctx context.Context, promiseID string, p ConfirmParams) error
	CancelDappRequest(ctx context.Context, promiseID, reason string) error
}

// Directory resolves and activates accounts.
type Directory interface {
	AccountByID(ctx context.Context, id string) (accounts.Account, error)
	ActiveID() string
	ActivateAccount(ctx context.Context, id string) (accounts.Account, error)
}

// ErrBusy is returned by SelectAccount while an attempt is running.
var ErrBusy = errors.New("connect attempt in progress")

// Option configures a Controller.
type Option func(*Controller)

// WithPasscodeGate sets the passcode prompt.
func WithPasscodeGate(g approval.PasscodeGate) Option {
	return func(c *Controller) { c.passcodes = g }
}

// WithHardwareSigner sets the hardware signer.
func WithHardwareSigner(s approval.HardwareSigner) Option {
	return func(c *Controller) { c.hardware = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller drives one connect request to confirmation or cancellation.
type Controller struct {
	gw        Gateway
	dir       Directory
	passcodes approval.PasscodeGate
	hardware  approval.HardwareSigner
	logger    *log.Logger
	flow      *approval.Flow

	mu  sync.Mutex
	req Request
}

// NewController takes ownership of req.
func NewController(req Request, gw Gateway, dir Directory, opts ...Option) *Controller {
	c := &Controller{
		gw:     gw,
		dir:    dir,
		logger: log.New(io.Discard),
		req:    req,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("promise", req.PromiseID)
	c.flow = approval.New(req.PromiseID,
		approval.WithPasscodeGate(c.passcodes),
		approval.WithHardwareSigner(c.hardware),
		approval.WithCancel(gw.CancelDappRequest),
		approval.WithLogger(c.logger),
	)
	return c
}

// Request returns a copy of the request.
func (c *Controller) Request() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req
}

// State returns the approval state.
func (c *Controller) State() approval.State { return c.flow.State() }

// LastErr returns the error of the last failed attempt.
func (c *Controller) LastErr() error { return c.flow.LastErr() }

// Subscribe registers fn for state changes until Close.
func (c *Controller) Subscribe(fn func(approval.Event)) func() { return c.flow.Subscribe(fn) }

// SelectAccount retargets the request.
func (c *Controller) SelectAccount(id string) error {
	state := c.flow.State()
	if state.Terminal() {
		return approval.ErrResolved
	}
	if state != approval.AwaitingUserChoice || c.flow.InFlight() {
		return ErrBusy
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.req.AccountID != id {
		c.logger.Debug("account selected", "account", id, "previous", c.req.AccountID)
	}
	c.req.AccountID = id
	return nil
}

// Connect runs one attempt. Failures leave the request open for a retry.
func (c *Controller) Connect(ctx context.Context) error {
	req := c.Request()
	acc, err := c.dir.AccountByID(ctx, req.AccountID)
	if err != nil {
		return err
	}

	method := decideMethod(req, acc)
	plan := approval.Plan{
		AccountID:   acc.ID,
		ViewOnly:    !acc.CanSign(),
		Method:      method,
		Description: "Connect to " + req.Dapp.Host,
		Submit: func(ctx context.Context, g approval.Grant) error {
			return c.gw.ConfirmDappRequestConnect(ctx, req.PromiseID, ConfirmParams{
				AccountID: acc.ID,
				Signature: g.Signature,
			})
		},
	}

	payload, hasProof := req.ProofPayload()
	if method == approval.MethodHardware {
		plan.Payload = payload
	}
	if method == approval.MethodPasscode && hasProof {
		plan.Prove = func(ctx context.Context, g approval.Grant) (approval.Grant, error) {
			sig, err := c.gw.SignTonProof(ctx, acc.ID, payload, g.Passcode)
			if err != nil {
				return approval.Grant{}, errors.Wrap(err, "sign ton proof")
			}
			return approval.Grant{Signature: sig}, nil
		}
	}
	if c.dir.ActiveID() != acc.ID {
		plan.Activate = func(ctx context.Context) error {
			_, err := c.dir.ActivateAccount(ctx, acc.ID)
			return err
		}
	}

	c.logger.Info("connect", "account", acc.ID, "type", acc.Type, "method", method)
	return c.flow.Approve(ctx, plan)
}

// Close tears the controller down. An unresolved request is canceled with the
// relay exactly once; observers are dropped.
func (c *Controller) Close() {
	c.flow.Close()
}

// Settled is closed once the relay knows the outcome.
func (c *Controller) Settled() <-chan struct{} { return c.flow.Settled() }

// Resolved reports whether the request was confirmed.
func (c *Controller) Resolved() bool { return c.flow.Resolved() }

func decideMethod(req Request, acc accounts.Account) approval.Method {
	switch {
	case !req.Permissions.IsAddressRequired:
		return approval.MethodNone
	case acc.Type == accounts.Hardware:
		return approval.MethodHardware
	}
	if _, ok := req.Proof.(RequiringProof); !ok {
		return approval.MethodNone
	}
	return approval.MethodPasscode
}
