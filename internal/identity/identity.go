// Package identity carries the current signed-in user and notifies
// subscribers when it changes. Components that partition data by user
// (history, feature services) take a Provider at construction instead
// of reading global auth state.
package identity

import "sync"

// AnonymousUID is the owner recorded for unauthenticated flows that
// never reach persistent storage.
const AnonymousUID = "anonymous"

type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// Provider exposes the current identity and change notifications.
type Provider interface {
	// Current returns the signed-in identity, or ok=false when signed out.
	Current() (Identity, bool)
	// Subscribe registers fn for login/logout events. fn is called with
	// ok=false on logout. The returned cancel func removes the subscription.
	Subscribe(fn func(id Identity, ok bool)) (cancel func())
}

// Session is the in-process Provider implementation.
type Session struct {
	mu      sync.Mutex
	current Identity
	signed  bool
	nextID  int
	subs    map[int]func(Identity, bool)
}

func NewSession() *Session {
	return &Session{subs: make(map[int]func(Identity, bool))}
}

func (s *Session) Current() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.signed
}

func (s *Session) Subscribe(fn func(Identity, bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetUser records a login and notifies subscribers.
func (s *Session) SetUser(id Identity) {
	s.mu.Lock()
	s.current = id
	s.signed = true
	fns := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id, true)
	}
}

// Clear records a logout and notifies subscribers.
func (s *Session) Clear() {
	s.mu.Lock()
	s.current = Identity{}
	s.signed = false
	fns := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(Identity{}, false)
	}
}

func (s *Session) snapshotSubs() []func(Identity, bool) {
	fns := make([]func(Identity, bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}
