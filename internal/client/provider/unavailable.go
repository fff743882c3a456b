package provider

import (
	"context"

	"github.com/akarpovs/authflow/internal/client/models"
)

// Unavailable is the fail-soft Provider used when connection parameters are
// missing or invalid. Every operation fails with ErrUnavailable; Watch
// reports a signed-out state once and never fires again.
type Unavailable struct {
	hub *watchHub
}

func NewUnavailable() *Unavailable {
	return &Unavailable{hub: newWatchHub()}
}

func (u *Unavailable) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	return nil, ErrUnavailable
}

func (u *Unavailable) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	return nil, ErrUnavailable
}

func (u *Unavailable) UpdateDisplayName(ctx context.Context, displayName string) error {
	return ErrUnavailable
}

func (u *Unavailable) InvalidateSession(ctx context.Context) error {
	return ErrUnavailable
}

func (u *Unavailable) Watch(listener func(*models.Identity)) func() {
	return u.hub.add(listener)
}

func (u *Unavailable) Close() error { return nil }
