// Package approval implements the authorize-then-confirm flow shared by every
// request that needs the user's consent before it is submitted to the relay:
// dapp connections, NFT transfers and burns.
//
// A Flow owns exactly one correlation id. It is resolved at most once, either
// by a successful Approve or by Cancel, whichever happens first.
package approval

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/atomic"
)

// ReasonUserReject is sent to the relay when a request is torn down unresolved.
const ReasonUserReject = "user reject"

const cancelTimeout = 10 * time.Second

const (
	outcomeOpen int32 = iota
	outcomeConfirmed
	outcomeCanceled
)

// Grant is what a successful authorization produced.
type Grant struct {
	// Passcode is only set between authorization and submission.
	Passcode  string
	Signature []byte
}

// SignRequest is handed to a hardware signer.
type SignRequest struct {
	CorrelationID string
	AccountID     string
	Description   string
	Payload       []byte
}

// PasscodeGate asks the user for the passcode of an account.
type PasscodeGate interface {
	RequestPasscode(ctx context.Context, accountID string) (string, error)
}

// HardwareSigner drives an external signing device.
type HardwareSigner interface {
	ConnectAndSign(ctx context.Context, req SignRequest) ([]byte, error)
}

// CancelFunc tells the relay that a request was rejected.
type CancelFunc func(ctx context.Context, correlationID, reason string) error

// Plan describes one approval attempt.
type Plan struct {
	AccountID   string
	ViewOnly    bool
	Method      Method
	Description string
	// Payload is signed by the hardware signer on MethodHardware.
	Payload []byte

	// Activate switches the active account before anything is signed.
	Activate func(ctx context.Context) error
	// Prove turns the authorization into a signature, e.g. a TON proof.
	Prove func(ctx context.Context, g Grant) (Grant, error)
	// Submit sends the request to the relay. Required.
	Submit func(ctx context.Context, g Grant) error
	// Await blocks until the relay reports the submitted request as done.
	Await func(ctx context.Context) error
}

// Event is delivered to observers on every state change.
type Event struct {
	CorrelationID string
	From, To      State
	Err           error
}

// Option configures a Flow.
type Option func(*Flow)

// WithPasscodeGate sets the gate used on MethodPasscode.
func WithPasscodeGate(g PasscodeGate) Option {
	return func(f *Flow) { f.passcodes = g }
}

// WithHardwareSigner sets the signer used on MethodHardware.
func WithHardwareSigner(s HardwareSigner) Option {
	return func(f *Flow) { f.hardware = s }
}

// WithCancel sets the relay callback issued when the flow is canceled.
func WithCancel(fn CancelFunc) Option {
	return func(f *Flow) { f.cancel = fn }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// Flow drives one correlation id from presentation to resolution.
type Flow struct {
	id        string
	passcodes PasscodeGate
	hardware  HardwareSigner
	cancel    CancelFunc
	logger    *log.Logger

	mu        sync.Mutex
	state     State
	lastErr   error
	observers map[int]func(Event)
	nextObs   int
	abort     context.CancelFunc
	settled   chan struct{}

	inFlight  atomic.Bool
	submitted atomic.Bool
	outcome   atomic.Int32
}

// New returns a flow in AwaitingUserChoice.
func New(correlationID string, opts ...Option) *Flow {
	f := &Flow{
		id:        correlationID,
		logger:    log.New(io.Discard),
		state:     AwaitingUserChoice,
		observers: make(map[int]func(Event)),
		settled:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("correlation", correlationID)
	return f
}

// ID returns the correlation id.
func (f *Flow) ID() string { return f.id }

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LastErr returns the error of the last failed attempt, if any.
func (f *Flow) LastErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Resolved reports whether the flow was confirmed.
func (f *Flow) Resolved() bool { return f.outcome.Load() == outcomeConfirmed }

// Canceled reports whether the flow was canceled.
func (f *Flow) Canceled() bool { return f.outcome.Load() == outcomeCanceled }

// InFlight reports whether an Approve call is running.
func (f *Flow) InFlight() bool { return f.inFlight.Load() }

// Submitted reports whether the relay accepted the submission. Later attempts
// only wait for completion again.
func (f *Flow) Submitted() bool { return f.submitted.Load() }

// Subscribe registers fn for state changes. The returned func deregisters it.
func (f *Flow) Subscribe(fn func(Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.observers, id)
	}
}

// Approve runs plan: activate, authorize, prove, submit, await.
func (f *Flow) Approve(ctx context.Context, plan Plan) error {
	if f.outcome.Load() != outcomeOpen {
		return ErrResolved
	}
	if plan.ViewOnly {
		err := newError(ErrUserBlocked, nil)
		f.setErr(err)
		return err
	}
	if !f.inFlight.CAS(false, true) {
		return ErrInFlight
	}
	defer f.inFlight.Store(false)

	ctx, abort := context.WithCancel(ctx)
	f.mu.Lock()
	f.abort = abort
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.abort = nil
		f.mu.Unlock()
		abort()
	}()

	logger := f.logger.With("account", plan.AccountID, "method", plan.Method)

	if f.submitted.Load() {
		logger.Debug("already submitted, waiting for completion again")
		f.transition(Confirming, nil)
		return f.complete(ctx, plan, logger)
	}

	if plan.Activate != nil {
		logger.Debug("activating account")
		if err := plan.Activate(ctx); err != nil {
			logger.Warn("activation failed", "err", err)
			e := newError(ErrActivationFailed, err)
			f.setErr(e)
			return e
		}
	}

	var grant Grant
	if plan.Method != MethodNone {
		f.transition(Authorizing, nil)
		var err error
		grant, err = f.authorize(ctx, plan)
		if err == nil && plan.Prove != nil {
			grant, err = plan.Prove(ctx, grant)
		}
		if err != nil {
			logger.Warn("authorization failed", "err", err)
			return f.fail(ErrSigningFailed, err)
		}
	}
	// A teardown during authorization must not be followed by a submit.
	if f.outcome.Load() != outcomeOpen {
		return ErrResolved
	}

	f.transition(Confirming, nil)
	if err := plan.Submit(ctx, grant); err != nil {
		logger.Warn("submit failed", "err", err)
		return f.fail(ErrRelayRejected, err)
	}
	f.submitted.Store(true)
	return f.complete(ctx, plan, logger)
}

// complete waits for the completion event, if any, and resolves the flow.
func (f *Flow) complete(ctx context.Context, plan Plan, logger *log.Logger) error {
	if plan.Await != nil {
		if err := plan.Await(ctx); err != nil {
			logger.Warn("no completion event", "err", err)
			return f.fail(ErrRelayRejected, err)
		}
	}

	if !f.outcome.CAS(outcomeOpen, outcomeConfirmed) {
		logger.Warn("confirmation superseded by cancel")
		return ErrResolved
	}
	close(f.settled)
	f.transition(Resolved, nil)
	logger.Info("request confirmed")
	return nil
}

func (f *Flow) authorize(ctx context.Context, plan Plan) (Grant, error) {
	switch plan.Method {
	case MethodPasscode:
		if f.passcodes == nil {
			return Grant{}, ErrNoPasscodeGate
		}
		passcode, err := f.passcodes.RequestPasscode(ctx, plan.AccountID)
		if err != nil {
			return Grant{}, err
		}
		return Grant{Passcode: passcode}, nil
	case MethodHardware:
		if f.hardware == nil {
			return Grant{}, ErrNoHardwareSigner
		}
		sig, err := f.hardware.ConnectAndSign(ctx, SignRequest{
			CorrelationID: f.id,
			AccountID:     plan.AccountID,
			Description:   plan.Description,
			Payload:       plan.Payload,
		})
		if err != nil {
			return Grant{}, err
		}
		return Grant{Signature: sig}, nil
	default:
		return Grant{}, nil
	}
}

// Cancel resolves the flow as canceled. It returns false when the flow was
// already resolved. The relay callback runs in the background; its failure is
// only logged.
func (f *Flow) Cancel(reason string) bool {
	if !f.outcome.CAS(outcomeOpen, outcomeCanceled) {
		return false
	}
	f.transition(Canceled, nil)
	f.mu.Lock()
	if f.abort != nil {
		f.abort()
	}
	f.mu.Unlock()
	if f.cancel == nil {
		close(f.settled)
		return true
	}
	go func() {
		defer close(f.settled)
		ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
		defer cancel()
		if err := f.cancel(ctx, f.id, reason); err != nil {
			f.logger.Warn("cancel request failed", "reason", reason, "err", err)
			return
		}
		f.logger.Debug("request canceled", "reason", reason)
	}()
	return true
}

// Settled is closed once the outcome is final: on confirmation, or after a
// cancellation's relay callback returned.
func (f *Flow) Settled() <-chan struct{} { return f.settled }

// Close tears the flow down: it cancels an unresolved request and drops every
// observer.
func (f *Flow) Close() {
	f.Cancel(ReasonUserReject)
	f.mu.Lock()
	f.observers = make(map[int]func(Event))
	f.mu.Unlock()
}

func (f *Flow) fail(kind, cause error) error {
	e := newError(kind, cause)
	f.transition(Failed, e)
	f.transition(AwaitingUserChoice, nil)
	return e
}

func (f *Flow) setErr(err error) {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
}

func (f *Flow) transition(to State, err error) {
	f.mu.Lock()
	from := f.state
	if from.Terminal() {
		f.mu.Unlock()
		return
	}
	f.state = to
	if err != nil {
		f.lastErr = err
	} else if to == Authorizing || to == Confirming || to == Resolved {
		f.lastErr = nil
	}
	observers := make([]func(Event), 0, len(f.observers))
	for _, fn := range f.observers {
		observers = append(observers, fn)
	}
	f.mu.Unlock()

	ev := Event{CorrelationID: f.id, From: from, To: to, Err: err}
	for _, fn := range observers {
		fn(ev)
	}
}
