// Package gateway is the application's sole boundary to the identity
// provider. It holds no session state of its own: it translates calls and
// normalizes provider failures into a fixed taxonomy, so the rest of the
// client never sees raw provider codes.
package gateway

import (
	"context"
	"sync"

	"github.com/akarpovs/authflow/internal/client/models"
	"github.com/akarpovs/authflow/internal/client/provider"
	"github.com/akarpovs/authflow/internal/logging"
)

type Gateway struct {
	provider provider.Provider
	log      logging.Logger
}

func New(p provider.Provider, log logging.Logger) *Gateway {
	return &Gateway{provider: p, log: log}
}

// Register creates an account and immediately attaches the display name to
// the new profile, mirroring what the registration screen submits. If the
// profile update fails the account still exists provider-side; the session
// watcher remains the source of truth for what actually happened.
func (g *Gateway) Register(ctx context.Context, email, password, displayName string) (*models.Identity, error) {
	identity, err := g.provider.Register(ctx, email, password)
	if err != nil {
		return nil, normalize(err)
	}
	if displayName != "" {
		if err := g.provider.UpdateDisplayName(ctx, displayName); err != nil {
			g.log.Warn(ctx, "display name update failed after registration", "err", err)
			return nil, normalize(err)
		}
		updated := *identity
		updated.DisplayName = displayName
		identity = &updated
	}
	return identity, nil
}

func (g *Gateway) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	identity, err := g.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, normalize(err)
	}
	return identity, nil
}

func (g *Gateway) InvalidateSession(ctx context.Context) error {
	if err := g.provider.InvalidateSession(ctx); err != nil {
		return normalize(err)
	}
	return nil
}

// Subscribe registers a session-change listener with the provider. The
// listener fires once with the current state during registration and again on
// every change. The returned func detaches the listener and is safe to call
// multiple times.
func (g *Gateway) Subscribe(onChange func(*models.Identity)) (unsubscribe func()) {
	detach := g.provider.Watch(onChange)
	var once sync.Once
	return func() {
		once.Do(detach)
	}
}
