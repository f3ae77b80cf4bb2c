package auth

import "sync"

// Identity is the signed-in account as the session layer sees it.
type Identity struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Provider pushes session change notifications. The registered callback
// receives the current identity (or nil) immediately as the initial
// event, then again on every sign-in and sign-out.
type Provider interface {
	OnAuthStateChanged(fn func(*Identity)) (cancel func())
}

// SessionStore tracks the current signed-in identity and a loading flag.
// It subscribes once to the provider at construction and is only ever
// updated by the provider's notifications; sign-in and sign-out calls go
// to the provider directly and never touch this state, so the store can
// not diverge from the provider's view of the session.
type SessionStore struct {
	mu      sync.RWMutex
	current *Identity
	loading bool

	nextSub int
	subs    map[int]func(*Identity)

	cancel func()
}

// NewSessionStore builds a store subscribed to the provider. Loading
// starts true and flips false on the first provider event, after which
// it never reverts.
func NewSessionStore(provider Provider) *SessionStore {
	s := &SessionStore{
		loading: true,
		subs:    make(map[int]func(*Identity)),
	}
	s.cancel = provider.OnAuthStateChanged(s.onEvent)
	return s
}

func (s *SessionStore) onEvent(user *Identity) {
	s.mu.Lock()
	s.current = user
	s.loading = false
	fns := make([]func(*Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// CurrentUser returns the signed-in identity, or nil.
func (s *SessionStore) CurrentUser() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Loading reports whether the initial provider event has not arrived yet.
func (s *SessionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe registers fn for session transitions. The returned cancel
// function removes the subscription.
func (s *SessionStore) Subscribe(fn func(*Identity)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close tears down the provider subscription. The store keeps its last
// state but stops receiving events.
func (s *SessionStore) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
