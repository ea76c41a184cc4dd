package authclient

import "sync"

// State is the client-side authentication state.
type State struct {
	LoggedIn              bool
	Account               *Account
	InteractionInProgress bool
}

// Store holds the auth state. Every change goes through it and is fanned out to subscribers.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  map[int]chan State
	next  int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]chan State)}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Account() *Account {
	return s.State().Account
}

func (s *Store) SetAccount(a *Account) {
	s.update(func(st *State) {
		st.Account = a
		st.LoggedIn = a != nil
	})
}

func (s *Store) SetInteraction(inProgress bool) {
	s.update(func(st *State) { st.InteractionInProgress = inProgress })
}

// Subscribe returns a channel that receives the current state and then every change.
// Slow readers only see the latest state. Call cancel to unsubscribe.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan State, 1)
	ch <- s.state
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}
