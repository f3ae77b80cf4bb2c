// Package catalog holds the process-wide in-memory view of the game
// catalog. The store fetches the full list from its source at most once
// per process lifetime unless a caller explicitly forces a refresh; the
// catalog is small and changes rarely, so refetching on every request
// would be wasteful.
package catalog

import (
	"context"
	"sync"

	"retrodrome/backend/internal/models"
)

// Source supplies the full game list. Satisfied by the game repository.
type Source interface {
	List(ctx context.Context) ([]models.Game, error)
}

// Snapshot is one consistent view of the store's state.
type Snapshot struct {
	Games   []models.Game
	Loading bool
	Error   string
	Fetched bool
}

// Store is an injectable state container with subscribe/notify
// semantics. Construct one in the composition root and pass it by
// reference to consumers.
type Store struct {
	source Source

	mu      sync.RWMutex
	games   []models.Game
	loading bool
	err     string
	fetched bool

	nextSub int
	subs    map[int]func(Snapshot)
}

func NewStore(source Source) *Store {
	return &Store{
		source: source,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Fetch populates the store from the source. After one successful fetch
// it becomes a no-op unless force is true. A failed fetch records a
// human-readable error and leaves the previously cached games untouched.
//
// Concurrent forced fetches are not coalesced: both hit the source and
// the last response to land wins.
func (s *Store) Fetch(ctx context.Context, force bool) error {
	s.mu.Lock()
	if s.fetched && !force {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.err = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	games, err := s.source.List(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
	} else {
		s.games = games
		s.fetched = true
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	return err
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Games returns the cached game list.
func (s *Store) Games() []models.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Game(nil), s.games...)
}

// Featured derives the featured view from the current cache. It is
// recomputed on every call so it always reflects the latest state.
func (s *Store) Featured() []models.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var featured []models.Game
	for _, g := range s.games {
		if g.Featured {
			featured = append(featured, g)
		}
	}
	return featured
}

// Subscribe registers fn to be called with a snapshot on every state
// transition. The returned cancel function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
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

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Games:   append([]models.Game(nil), s.games...),
		Loading: s.loading,
		Error:   s.err,
		Fetched: s.fetched,
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
