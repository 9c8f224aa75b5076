package accounts

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// ErrNotFound is returned for an unknown account id.
var ErrNotFound = errors.New("account not found")

// Activated is published after the active account changed.
type Activated struct {
	Account  Account
	Previous string
}

// RemoteActivator switches the active session on the wallet core.
type RemoteActivator interface {
	ActivateAccount(ctx context.Context, accountID string) error
}

// PersistFunc stores the active account id.
type PersistFunc func(activeID string) error

// Option configures a Directory.
type Option func(*Directory)

// WithRemote makes ActivateAccount switch the remote session first.
func WithRemote(r RemoteActivator) Option {
	return func(d *Directory) { d.remote = r }
}

// WithPersist is called with the new active id after every activation.
func WithPersist(fn PersistFunc) Option {
	return func(d *Directory) { d.persist = fn }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// Directory is the process-wide account list and active-account pointer.
type Directory struct {
	remote  RemoteActivator
	persist PersistFunc
	logger  *log.Logger

	mu       sync.RWMutex
	accounts []Account
	active   string

	subMu   sync.RWMutex
	subs    map[int]func(Activated)
	nextSub int
}

// NewDirectory returns a directory over accounts. An unknown activeID falls
// back to the first account.
func NewDirectory(accounts []Account, activeID string, opts ...Option) *Directory {
	d := &Directory{
		logger:   log.New(io.Discard),
		accounts: append([]Account(nil), accounts...),
		subs:     make(map[int]func(Activated)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if _, ok := d.find(activeID); ok {
		d.active = activeID
	} else if len(d.accounts) > 0 {
		d.active = d.accounts[0].ID
	}
	return d
}

// Accounts returns a copy of the ordered account list.
func (d *Directory) Accounts() []Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Account(nil), d.accounts...)
}

// AccountByID looks an account up.
func (d *Directory) AccountByID(_ context.Context, id string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc, ok := d.find(id)
	if !ok {
		return Account{}, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return acc, nil
}

// ActiveID returns the id of the active account, empty when there is none.
func (d *Directory) ActiveID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// Active returns the active account.
func (d *Directory) Active() (Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.find(d.active)
}

// ActivateAccount makes id the active account. The remote session is switched
// first; when that fails nothing changes locally.
func (d *Directory) ActivateAccount(ctx context.Context, id string) (Account, error) {
	acc, err := d.AccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if d.remote != nil {
		if err := d.remote.ActivateAccount(ctx, id); err != nil {
			return Account{}, errors.Wrapf(err, "activate %s", id)
		}
	}

	d.mu.Lock()
	previous := d.active
	d.active = id
	d.mu.Unlock()

	if d.persist != nil {
		if err := d.persist(id); err != nil {
			d.logger.Warn("persist active account", "account", id, "err", err)
		}
	}
	if previous != id {
		d.logger.Info("account activated", "account", id, "previous", previous)
		d.publish(Activated{Account: acc, Previous: previous})
	}
	return acc, nil
}

// Subscribe registers fn for activation events. The returned func deregisters it.
func (d *Directory) Subscribe(fn func(Activated)) func() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		delete(d.subs, id)
	}
}

func (d *Directory) publish(ev Activated) {
	d.subMu.RLock()
	subs := make([]func(Activated), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (d *Directory) find(id string) (Account, bool) {
	for _, acc := range d.accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return Account{}, false
}
