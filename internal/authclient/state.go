package authclient

import (
	"sync"

	"authrelay/internal/domain"
)

// Status is the client's view of the session.
type Status int

const (
	// StatusUnknown means no sync has completed yet; protected content stays hidden.
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the client auth state.
type State struct {
	Status Status
	User   *domain.User
	// Path is the navigation the state was synchronized for.
	Path string
}

// Authenticated reports whether a user is known.
func (s State) Authenticated() bool { return s.Status == StatusAuthenticated && s.User != nil }

// Store holds the shared auth state. Only the owning Client writes it;
// everything else reads snapshots or subscribes.
type Store struct {
	// writeMu orders writes and their notifications; listeners must not write.
	writeMu sync.Mutex

	mu         sync.RWMutex
	state      State
	generation uint64
	listeners  map[int]func(State)
	nextID     int
}

func newStore() *Store {
	return &Store{listeners: make(map[int]func(State))}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnChange registers fn for every state change and returns an unsubscribe func.
// Listeners run synchronously on the writer's goroutine and must not block.
func (s *Store) OnChange(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// begin starts a sync and returns its generation. Any later begin or set
// supersedes it.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// set writes next unconditionally and supersedes in-flight syncs.
func (s *Store) set(next State) {
	s.write(next, 0)
}

// setIf writes next only if gen is still the latest generation.
func (s *Store) setIf(gen uint64, next State) bool {
	return s.write(next, gen)
}

// write stores next; gen 0 means unconditional.
func (s *Store) write(next State, gen uint64) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if gen != 0 && gen != s.generation {
		s.mu.Unlock()
		return false
	}
	if gen == 0 {
		s.generation++
	}
	s.state = next
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return true
}
