// Package session holds the process-wide view of the signed-in state: the
// current identity, a loading flag and the last user-facing error. It is a
// pure state container; the coordinator owns all writes.
package session

import (
	"sync"

	"github.com/akarpovs/authflow/internal/client/models"
)

// Session is the value observed by presentation consumers. Identity is nil
// while signed out. Loading starts true and stays true until the first
// provider session event arrives, and afterwards is true exactly while one
// session-mutating action is outstanding. LastError is empty when there is
// nothing to show.
type Session struct {
	Identity  *models.Identity
	Loading   bool
	LastError string
}

// SignedIn reports whether an identity is present.
func (s Session) SignedIn() bool { return s.Identity != nil }

// Store holds the single current Session value and notifies observers
// synchronously after every write.
//
// Writes issued from inside an observer callback (or by another goroutine
// while a notification round is running) are queued and applied after the
// round completes, so observers always see writes one at a time and in
// arrival order.
type Store struct {
	mu        sync.Mutex
	current   Session
	observers []observer
	nextID    int
	notifying bool
	pending   []func(*Session)
}

type observer struct {
	id int
	fn func(Session)
}

func NewStore() *Store {
	return &Store{current: Session{Loading: true}}
}

// Current returns the session value as of the last applied write.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers an observer called after every write with the resulting
// value. Observers are invoked in registration order. The returned func
// removes the observer; calling it more than once is a no-op.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i], s.observers[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
		})
	}
}

// SetIdentity replaces the identity wholesale.
func (s *Store) SetIdentity(identity *models.Identity) {
	s.apply(func(sess *Session) { sess.Identity = identity })
}

func (s *Store) SetLoading(loading bool) {
	s.apply(func(sess *Session) { sess.Loading = loading })
}

func (s *Store) SetError(message string) {
	s.apply(func(sess *Session) { sess.LastError = message })
}

func (s *Store) ClearError() {
	s.apply(func(sess *Session) { sess.LastError = "" })
}

// apply runs one mutation and notifies observers with the resulting value.
// If a round is already in progress the mutation is queued; the goroutine
// driving the round drains the queue before returning.
func (s *Store) apply(mutate func(*Session)) {
	s.mu.Lock()
	if s.notifying {
		s.pending = append(s.pending, mutate)
		s.mu.Unlock()
		return
	}
	s.notifying = true
	for {
		mutate(&s.current)
		snapshot := s.current
		observers := make([]func(Session), len(s.observers))
		for i, o := range s.observers {
			observers[i] = o.fn
		}
		s.mu.Unlock()

		for _, fn := range observers {
			fn(snapshot)
		}

		s.mu.Lock()
		if len(s.pending) == 0 {
			break
		}
		mutate = s.pending[0]
		s.pending = s.pending[1:]
	}
	s.notifying = false
	s.mu.Unlock()
}
