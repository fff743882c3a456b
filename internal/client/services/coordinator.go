// Package services contains the application services of the auth client.
// This file defines the session coordinator: the orchestration layer between
// the screens, the auth gateway and the session store.
package services

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/akarpovs/authflow/internal/client/cache"
	"github.com/akarpovs/authflow/internal/client/gateway"
	"github.com/akarpovs/authflow/internal/client/models"
	"github.com/akarpovs/authflow/internal/client/session"
	"github.com/akarpovs/authflow/internal/logging"
)

// AuthGateway is the slice of the gateway the coordinator uses.
type AuthGateway interface {
	Register(ctx context.Context, email, password, displayName string) (*models.Identity, error)
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	InvalidateSession(ctx context.Context) error
	Subscribe(onChange func(*models.Identity)) (unsubscribe func())
}

// flightKey collapses overlapping session-mutating actions into one flight:
// while an action is outstanding, any other receives that action's outcome
// instead of issuing a second provider round-trip.
const flightKey = "session-action"

// Coordinator serializes the user-facing auth actions and is the only writer
// of the session store. Screens call its methods and react to store changes;
// the returned error exists for logging and for the caller's one-shot
// success/failure acknowledgement, not as an alternative state channel.
//
// Provider-originated session events always win by arrival order: an event
// applied while an action is still in flight is simply overwritten if the
// action's outcome lands later, and vice versa. No reconciliation is
// attempted.
type Coordinator struct {
	gw    AuthGateway
	store *session.Store
	cache *cache.Cache
	log   logging.Logger

	flight      singleflight.Group
	unsubscribe func()
}

// NewCoordinator wires the coordinator to the store and subscribes it to the
// gateway's session events. Call Close to release the subscription.
func NewCoordinator(gw AuthGateway, store *session.Store, c *cache.Cache, log logging.Logger) *Coordinator {
	co := &Coordinator{gw: gw, store: store, cache: c, log: log}
	co.unsubscribe = gw.Subscribe(co.onSessionChange)
	return co
}

// onSessionChange applies provider-originated truth to the store. The very
// first event also ends the initial loading state.
func (c *Coordinator) onSessionChange(identity *models.Identity) {
	c.store.SetIdentity(identity)
	c.store.SetLoading(false)
}

// SignUp registers a new account. Validation failures are returned to the
// caller for field-level feedback and leave the store untouched.
func (c *Coordinator) SignUp(ctx context.Context, data models.SignUpData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	return c.run(ctx, "sign-up", func(ctx context.Context) (*models.Identity, error) {
		return c.gw.Register(ctx, data.Email, data.Password, data.DisplayName)
	}, func() {
		c.cache.Invalidate(cache.KeyUser)
	})
}

// SignIn authenticates an existing account. Validation failures are returned
// to the caller and leave the store untouched.
func (c *Coordinator) SignIn(ctx context.Context, data models.SignInData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	return c.run(ctx, "sign-in", func(ctx context.Context) (*models.Identity, error) {
		return c.gw.Authenticate(ctx, data.Email, data.Password)
	}, func() {
		c.cache.Invalidate(cache.KeyUser)
	})
}

// SignOut invalidates the current session. On failure the identity is left in
// place: the user stays signed in until the provider says otherwise.
func (c *Coordinator) SignOut(ctx context.Context) error {
	return c.run(ctx, "sign-out", func(ctx context.Context) (*models.Identity, error) {
		if err := c.gw.InvalidateSession(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}, func() {
		c.cache.Clear()
	})
}

// DismissError clears the last error without touching identity or loading.
func (c *Coordinator) DismissError() {
	c.store.ClearError()
}

// Close detaches the coordinator from the gateway's session events. Safe to
// call more than once.
func (c *Coordinator) Close() {
	c.unsubscribe()
}

// run executes one session-mutating action under the overlap guard: loading
// on and error cleared up front, then either the identity replaced wholesale
// (success) or the error recorded with the identity untouched (failure).
func (c *Coordinator) run(ctx context.Context, action string, call func(context.Context) (*models.Identity, error), onSuccess func()) error {
	_, err, shared := c.flight.Do(flightKey, func() (any, error) {
		c.store.SetLoading(true)
		c.store.ClearError()

		identity, err := call(ctx)
		if err != nil {
			c.store.SetError(gateway.Message(err))
			c.store.SetLoading(false)
			c.log.Warn(ctx, "auth action failed", "action", action, "err", err)
			return nil, err
		}

		c.store.SetIdentity(identity)
		c.store.SetLoading(false)
		onSuccess()
		c.log.Info(ctx, "auth action completed", "action", action)
		return nil, nil
	})
	if shared {
		c.log.Debug(ctx, "auth action suppressed, another is in flight", "action", action)
	}
	return err
}
