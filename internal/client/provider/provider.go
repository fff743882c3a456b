// Package provider contains the identity-provider backends the gateway talks
// to. Implementations return identity facts and raw provider error codes; the
// gateway owns the translation into the user-facing error taxonomy.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akarpovs/authflow/internal/client/models"
)

var (
	// ErrUnavailable is returned by every operation when the provider has no
	// usable configuration. Construction still succeeds so the application
	// can render and explain instead of crashing at startup.
	ErrUnavailable = errors.New("identity provider unavailable")

	// ErrTransport wraps failures that happened before the provider could
	// answer (connection refused, timeout, bad payload on the wire).
	ErrTransport = errors.New("provider transport failure")

	// ErrNoSession is returned by operations that require an open session
	// when there is none.
	ErrNoSession = errors.New("no active session")
)

// APIError is a raw provider failure: a provider-defined code plus the
// provider's own message. Codes are the identity-toolkit style upper-snake
// strings such as "EMAIL_EXISTS" or "INVALID_PASSWORD".
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Provider is the contract every identity backend must satisfy.
//
// Contract:
//   - Register: create an account and open a session for it.
//   - UpdateDisplayName: attach a display name to the current session's profile.
//   - Authenticate: open a session for an existing account.
//   - InvalidateSession: drop the current session.
//   - Watch: register a session-change listener. The listener fires once with
//     the current state during registration and again on every change,
//     including changes the application did not initiate (expired or revoked
//     tokens). The returned func detaches the listener; calling it more than
//     once is a no-op.
//   - Close: release timers and background work.
//
// All methods must honor context cancellation/timeouts.
type Provider interface {
	Register(ctx context.Context, email, password string) (*models.Identity, error)
	UpdateDisplayName(ctx context.Context, displayName string) error
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	InvalidateSession(ctx context.Context) error
	Watch(listener func(*models.Identity)) (unsubscribe func())
	Close() error
}

// watchHub fans session-change events out to registered listeners and replays
// the latest state to newly registered ones. Shared by the concrete
// implementations. Safe for concurrent use.
//
// Every state change carries a generation number and deliveries to one
// listener are serialized with a staleness check, so a registration replay
// racing a concurrent publish can never overwrite the fresher event.
type watchHub struct {
	mu        sync.Mutex
	listeners map[int]*watchListener
	nextID    int
	current   *models.Identity
	gen       uint64
}

type watchListener struct {
	mu   sync.Mutex
	fn   func(*models.Identity)
	seen uint64
}

// deliver invokes the listener unless an event of the same or a newer
// generation has already been delivered to it.
func (l *watchListener) deliver(identity *models.Identity, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen <= l.seen {
		return
	}
	l.seen = gen
	l.fn(identity)
}

func newWatchHub() *watchHub {
	return &watchHub{listeners: make(map[int]*watchListener), gen: 1}
}

// add registers a listener and synchronously replays the current state to it.
func (h *watchHub) add(fn func(*models.Identity)) func() {
	l := &watchListener{fn: fn}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = l
	current, gen := h.current, h.gen
	h.mu.Unlock()

	l.deliver(current, gen)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// publish records identity as the current state and notifies all listeners.
func (h *watchHub) publish(identity *models.Identity) {
	h.mu.Lock()
	h.current = identity
	h.gen++
	gen := h.gen
	listeners := make([]*watchListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l.deliver(identity, gen)
	}
}
