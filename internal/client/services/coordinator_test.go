package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akarpovs/authflow/internal/client/cache"
	"github.com/akarpovs/authflow/internal/client/gateway"
	"github.com/akarpovs/authflow/internal/client/models"
	"github.com/akarpovs/authflow/internal/client/session"
	"github.com/akarpovs/authflow/internal/logging"
)

// fakeGateway implements AuthGateway with canned results, per-call counters
// and an optional block channel so tests can hold a call in flight.
type fakeGateway struct {
	mu sync.Mutex

	registerIdentity *models.Identity
	registerErr      error
	authIdentity     *models.Identity
	authErr          error
	invalidateErr    error

	registerCalls   int
	authCalls       int
	invalidateCalls int

	block chan struct{} // when non-nil, gateway calls wait on it

	listener   func(*models.Identity)
	unsubCalls int
}

func (f *fakeGateway) waitIfBlocked() {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (f *fakeGateway) Register(ctx context.Context, email, password, displayName string) (*models.Identity, error) {
	f.mu.Lock()
	f.registerCalls++
	f.mu.Unlock()
	f.waitIfBlocked()
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	identity := *f.registerIdentity
	identity.Email = email
	identity.DisplayName = displayName
	return &identity, nil
}

func (f *fakeGateway) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	f.mu.Lock()
	f.authCalls++
	f.mu.Unlock()
	f.waitIfBlocked()
	return f.authIdentity, f.authErr
}

func (f *fakeGateway) InvalidateSession(ctx context.Context) error {
	f.mu.Lock()
	f.invalidateCalls++
	f.mu.Unlock()
	f.waitIfBlocked()
	return f.invalidateErr
}

func (f *fakeGateway) Subscribe(onChange func(*models.Identity)) func() {
	f.listener = onChange
	onChange(nil) // current state replay, ends the initial loading
	var once sync.Once
	return func() {
		once.Do(func() {
			f.unsubCalls++
			f.listener = nil
		})
	}
}

// fireEvent delivers a provider-originated session change.
func (f *fakeGateway) fireEvent(identity *models.Identity) {
	if f.listener != nil {
		f.listener(identity)
	}
}

type fixture struct {
	gw    *fakeGateway
	store *session.Store
	cache *cache.Cache
	co    *Coordinator
}

func newFixture(t *testing.T, gw *fakeGateway) *fixture {
	t.Helper()
	store := session.NewStore()
	c := cache.New()
	co := NewCoordinator(gw, store, c, logging.NewDefault())
	t.Cleanup(co.Close)
	return &fixture{gw: gw, store: store, cache: c, co: co}
}

func waitLoading(t *testing.T, store *session.Store, want bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return store.Current().Loading == want
	}, time.Second, time.Millisecond)
}

var (
	signIn = models.SignInData{Email: "a@b.com", Password: "secret1"}
	signUp = models.SignUpData{Email: "x@y.com", Password: "secret1", Confirm: "secret1", DisplayName: "X"}
)

func TestCoordinator_InitialEventEndsLoading(t *testing.T) {
	fx := newFixture(t, &fakeGateway{})
	current := fx.store.Current()
	require.False(t, current.Loading)
	require.Nil(t, current.Identity)
}

func TestCoordinator_LoadingSpansExactlyTheAction(t *testing.T) {
	gw := &fakeGateway{authIdentity: &models.Identity{ID: "u1"}, block: make(chan struct{})}
	fx := newFixture(t, gw)

	done := make(chan error, 1)
	go func() { done <- fx.co.SignIn(context.Background(), signIn) }()

	waitLoading(t, fx.store, true)

	close(gw.block)
	require.NoError(t, <-done)
	require.False(t, fx.store.Current().Loading)
}

func TestCoordinator_SignInSuccessReplacesIdentityWholesale(t *testing.T) {
	gw := &fakeGateway{authIdentity: &models.Identity{ID: "u2", Email: "a@b.com", DisplayName: "A"}}
	fx := newFixture(t, gw)

	fx.store.SetIdentity(&models.Identity{ID: "old"})

	require.NoError(t, fx.co.SignIn(context.Background(), signIn))
	current := fx.store.Current()
	require.Equal(t, gw.authIdentity, current.Identity)
	require.False(t, current.Loading)
	require.Empty(t, current.LastError)
}

func TestCoordinator_SignInFailureLeavesIdentity(t *testing.T) {
	gw := &fakeGateway{authErr: gateway.ErrWrongPassword}
	fx := newFixture(t, gw)

	previous := &models.Identity{ID: "keep-me"}
	fx.store.SetIdentity(previous)

	err := fx.co.SignIn(context.Background(), signIn)
	require.ErrorIs(t, err, gateway.ErrWrongPassword)

	current := fx.store.Current()
	require.Equal(t, previous, current.Identity)
	require.False(t, current.Loading)
	require.Equal(t, gateway.Message(gateway.ErrWrongPassword), current.LastError)
}

func TestCoordinator_SignUpSuccess(t *testing.T) {
	gw := &fakeGateway{registerIdentity: &models.Identity{ID: "u3"}}
	fx := newFixture(t, gw)
	fx.cache.Set(cache.KeyUser, "stale profile")

	require.NoError(t, fx.co.SignUp(context.Background(), signUp))

	current := fx.store.Current()
	require.Equal(t, &models.Identity{ID: "u3", Email: "x@y.com", DisplayName: "X"}, current.Identity)
	require.False(t, current.Loading)
	require.Empty(t, current.LastError)
	require.Equal(t, 1, gw.registerCalls)

	_, ok := fx.cache.Get(cache.KeyUser)
	require.False(t, ok, "stale user data must be invalidated")
}

func TestCoordinator_SignOutSuccessClearsIdentityAndCache(t *testing.T) {
	gw := &fakeGateway{}
	fx := newFixture(t, gw)
	fx.store.SetIdentity(&models.Identity{ID: "u1"})
	fx.cache.Set(cache.KeyUser, "profile")
	fx.cache.Set("entries", []int{1, 2})

	require.NoError(t, fx.co.SignOut(context.Background()))

	current := fx.store.Current()
	require.Nil(t, current.Identity)
	require.False(t, current.Loading)
	require.Zero(t, fx.cache.Len())
}

func TestCoordinator_SignOutFailureKeepsSignedInState(t *testing.T) {
	gw := &fakeGateway{invalidateErr: gateway.ErrNetwork}
	fx := newFixture(t, gw)
	previous := &models.Identity{ID: "u1"}
	fx.store.SetIdentity(previous)
	fx.cache.Set(cache.KeyUser, "profile")

	err := fx.co.SignOut(context.Background())
	require.ErrorIs(t, err, gateway.ErrNetwork)

	current := fx.store.Current()
	require.Equal(t, previous, current.Identity)
	require.Equal(t, gateway.Message(gateway.ErrNetwork), current.LastError)
	require.Equal(t, 1, fx.cache.Len(), "cache survives a failed sign-out")
}

func TestCoordinator_DismissErrorTouchesOnlyError(t *testing.T) {
	gw := &fakeGateway{authErr: gateway.ErrWrongPassword}
	fx := newFixture(t, gw)
	fx.store.SetIdentity(&models.Identity{ID: "u1"})

	_ = fx.co.SignIn(context.Background(), signIn)
	require.NotEmpty(t, fx.store.Current().LastError)

	fx.co.DismissError()
	current := fx.store.Current()
	require.Empty(t, current.LastError)
	require.NotNil(t, current.Identity)
	require.False(t, current.Loading)
}

func TestCoordinator_ValidationFailureNeverReachesGateway(t *testing.T) {
	gw := &fakeGateway{}
	fx := newFixture(t, gw)

	err := fx.co.SignIn(context.Background(), models.SignInData{Email: "a@b.com", Password: "short"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	require.Zero(t, gw.authCalls)
	current := fx.store.Current()
	require.Empty(t, current.LastError, "validation feedback is local, not session state")
	require.False(t, current.Loading)
}

func TestCoordinator_OverlappingActionIsSuppressed(t *testing.T) {
	gw := &fakeGateway{authIdentity: &models.Identity{ID: "u1"}, block: make(chan struct{})}
	fx := newFixture(t, gw)
	fx.cache.Set("entries", "derived")

	first := make(chan error, 1)
	go func() { first <- fx.co.SignIn(context.Background(), signIn) }()
	waitLoading(t, fx.store, true)

	second := make(chan error, 1)
	go func() { second <- fx.co.SignOut(context.Background()) }()

	// give the second call the chance to join the in-flight action
	time.Sleep(50 * time.Millisecond)
	close(gw.block)

	require.NoError(t, <-first)
	require.NoError(t, <-second, "overlapping call shares the in-flight outcome")

	require.Equal(t, 1, gw.authCalls)
	require.Zero(t, gw.invalidateCalls, "no second provider round-trip")
	require.NotNil(t, fx.store.Current().Identity, "the sign-out never ran")
	_, ok := fx.cache.Get("entries")
	require.True(t, ok, "the sign-out's cache clear never ran")
}

func TestCoordinator_SubscriptionEventDuringFlightThenLateResultWins(t *testing.T) {
	gw := &fakeGateway{authIdentity: &models.Identity{ID: "late"}, block: make(chan struct{})}
	fx := newFixture(t, gw)

	done := make(chan error, 1)
	go func() { done <- fx.co.SignIn(context.Background(), signIn) }()
	waitLoading(t, fx.store, true)

	// the provider invalidates the session out of band while the call is
	// still in flight
	gw.fireEvent(nil)
	current := fx.store.Current()
	require.Nil(t, current.Identity)
	require.False(t, current.Loading)

	// the call outcome arrives later and overwrites: last arrival wins
	close(gw.block)
	require.NoError(t, <-done)
	require.Equal(t, "late", fx.store.Current().Identity.ID)
}

func TestCoordinator_SubscriptionEventAfterResolutionWins(t *testing.T) {
	gw := &fakeGateway{authIdentity: &models.Identity{ID: "u1"}}
	fx := newFixture(t, gw)

	require.NoError(t, fx.co.SignIn(context.Background(), signIn))
	require.NotNil(t, fx.store.Current().Identity)

	gw.fireEvent(nil)
	current := fx.store.Current()
	require.Nil(t, current.Identity)
	require.False(t, current.Loading)
}

func TestCoordinator_OutOfBandEventWhileIdle(t *testing.T) {
	gw := &fakeGateway{}
	fx := newFixture(t, gw)
	fx.store.SetIdentity(&models.Identity{ID: "u1"})

	gw.fireEvent(nil)
	current := fx.store.Current()
	require.Nil(t, current.Identity)
	require.False(t, current.Loading)

	identity := &models.Identity{ID: "other-device"}
	gw.fireEvent(identity)
	require.Equal(t, identity, fx.store.Current().Identity)
}

func TestCoordinator_CloseDetachesFromGateway(t *testing.T) {
	gw := &fakeGateway{}
	store := session.NewStore()
	co := NewCoordinator(gw, store, cache.New(), logging.NewDefault())

	co.Close()
	co.Close()
	require.Equal(t, 1, gw.unsubCalls)

	store.SetIdentity(&models.Identity{ID: "u1"})
	gw.fireEvent(nil) // detached, must not reach the store
	require.NotNil(t, store.Current().Identity)
}
