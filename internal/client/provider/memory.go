package provider

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/akarpovs/authflow/internal/client/models"
)

// Memory is an in-process Provider keeping accounts in a map. It backs the
// demo configuration and tests. Error codes match the hosted API so the
// gateway's mapping table covers both backends.
type Memory struct {
	hub *watchHub

	mu       sync.Mutex
	accounts map[string]*memoryAccount // keyed by email
	current  *models.Identity
}

type memoryAccount struct {
	id          string
	email       string
	password    string
	displayName string
	disabled    bool
}

func NewMemory() *Memory {
	return &Memory{
		hub:      newWatchHub(),
		accounts: make(map[string]*memoryAccount),
	}
}

func (m *Memory) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	m.mu.Lock()
	if _, exists := m.accounts[email]; exists {
		m.mu.Unlock()
		return nil, &APIError{Code: "EMAIL_EXISTS"}
	}
	account := &memoryAccount{id: uuid.NewString(), email: email, password: password}
	m.accounts[email] = account
	identity := account.identity()
	m.current = &identity
	m.mu.Unlock()

	m.hub.publish(&identity)
	result := identity
	return &result, nil
}

func (m *Memory) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	m.mu.Lock()
	account, exists := m.accounts[email]
	switch {
	case !exists:
		m.mu.Unlock()
		return nil, &APIError{Code: "EMAIL_NOT_FOUND"}
	case account.disabled:
		m.mu.Unlock()
		return nil, &APIError{Code: "USER_DISABLED"}
	case account.password != password:
		m.mu.Unlock()
		return nil, &APIError{Code: "INVALID_PASSWORD"}
	}
	identity := account.identity()
	m.current = &identity
	m.mu.Unlock()

	m.hub.publish(&identity)
	result := identity
	return &result, nil
}

func (m *Memory) UpdateDisplayName(ctx context.Context, displayName string) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	if account, ok := m.accounts[m.current.Email]; ok {
		account.displayName = displayName
	}
	identity := *m.current
	identity.DisplayName = displayName
	m.current = &identity
	m.mu.Unlock()

	m.hub.publish(&identity)
	return nil
}

func (m *Memory) InvalidateSession(ctx context.Context) error {
	m.mu.Lock()
	hadSession := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if hadSession {
		m.hub.publish(nil)
	}
	return nil
}

func (m *Memory) Watch(listener func(*models.Identity)) func() {
	return m.hub.add(listener)
}

func (m *Memory) Close() error { return nil }

// DisableAccount marks an account disabled; subsequent authentication fails
// with USER_DISABLED. Test/demo helper.
func (m *Memory) DisableAccount(email string) {
	m.mu.Lock()
	if account, ok := m.accounts[email]; ok {
		account.disabled = true
	}
	m.mu.Unlock()
}

// RevokeSession drops the current session as if the provider invalidated it
// out of band, notifying watchers. Test/demo helper.
func (m *Memory) RevokeSession() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	m.hub.publish(nil)
}

func (a *memoryAccount) identity() models.Identity {
	return models.Identity{ID: a.id, Email: a.email, DisplayName: a.displayName}
}
