package approval

import (
	"github.com/pkg/errors"
)

// Failure kinds surfaced by Approve. Match them with errors.Is.
var (
	ErrUserBlocked      = errors.New("account is view-only")
	ErrSigningFailed    = errors.New("signing failed")
	ErrRelayRejected    = errors.New("relay rejected the request")
	ErrActivationFailed = errors.New("account activation failed")

	ErrInFlight = errors.New("approval already in flight")
	ErrResolved = errors.New("request already resolved")

	ErrNoPasscodeGate   = errors.New("no passcode gate configured")
	ErrNoHardwareSigner = errors.New("no hardware signer configured")
)

// Error pairs a failure kind with the collaborator error that caused it.
type Error struct {
	Kind error
	Err  error
}

func newError(kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the failure kind carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrUserBlocked, ErrSigningFailed, ErrRelayRejected, ErrActivationFailed, ErrInFlight, ErrResolved} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
