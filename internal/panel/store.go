package panel

import (
	"sync"
	"time"

	"github.com/streamoverlay/server/internal/domain"
)

// State is an immutable snapshot of the panel's mirror of the server list.
type State struct {
	Overlays  []domain.Overlay
	Err       error
	FetchedAt time.Time
	Seq       uint64
}

// Store owns the last fetched overlay list. It is only changed through Apply
// and Fail.
//
// Subscribers are called one state at a time and never see a Seq lower than
// one already delivered. They must not call Apply or Fail.
type Store struct {
	mu      sync.RWMutex
	state   State
	nextSub int
	subs    map[int]func(State)

	notifyMu sync.Mutex
	notified uint64
}

func NewStore() *Store {
	return &Store{
		state: State{Overlays: []domain.Overlay{}},
		subs:  make(map[int]func(State)),
	}
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Apply replaces the list with the result of fetch number seq and clears the
// error. Results older than the applied one are dropped; it reports whether
// the list was replaced.
func (s *Store) Apply(seq uint64, overlays []domain.Overlay) bool {
	s.mu.Lock()
	if seq <= s.state.Seq {
		s.mu.Unlock()
		return false
	}

	list := make([]domain.Overlay, len(overlays))
	copy(list, overlays)
	s.state = State{
		Overlays:  list,
		FetchedAt: time.Now(),
		Seq:       seq,
	}
	state := s.state
	s.mu.Unlock()

	s.notify(state)

	return true
}

// Fail records err and keeps the last known list.
func (s *Store) Fail(err error) {
	s.FailAt(0, err)
}

// FailAt records the failure of fetch number seq unless a newer fetch has
// already been applied. A zero seq always records.
func (s *Store) FailAt(seq uint64, err error) {
	s.mu.Lock()
	if seq != 0 && seq <= s.state.Seq {
		s.mu.Unlock()
		return
	}
	s.state.Err = err
	state := s.state
	s.mu.Unlock()

	s.notify(state)
}

// notify delivers state unless a newer one has been delivered in the
// meantime.
func (s *Store) notify(state State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if state.Seq < s.notified {
		return
	}
	s.notified = state.Seq

	s.mu.RLock()
	subs := s.subscribers()
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers fn for every state change and returns its cancel func.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) subscribers() []func(State) {
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// Find returns the overlay with id from the current snapshot.
func (s *Store) Find(id string) (domain.Overlay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.state.Overlays {
		if o.ID == id {
			return o, true
		}
	}

	return domain.Overlay{}, false
}
