package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/swipe"
	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

const subscriberBuffer = 16

// session is one deck plus the websocket subscribers watching it.
type session struct {
	deck *swipe.Deck

	// applyMu orders publishes the same way the deck applied the events.
	applyMu sync.Mutex

	mu   sync.Mutex
	subs map[chan swipe.Snapshot]struct{}
}

func (s *session) subscribe() chan swipe.Snapshot {
	ch := make(chan swipe.Snapshot, subscriberBuffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *session) unsubscribe(ch chan swipe.Snapshot) {
	s.mu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// publish fans snap out to subscribers. A full buffer loses its oldest frame,
// so every subscriber always receives the newest state last.
func (s *session) publish(snap swipe.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		// Only publish sends and it holds s.mu, so the slot freed above is ours.
		ch <- snap
	}
}

func (s *session) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

// apply delivers ev and publishes the resulting snapshot.
func (s *session) apply(ev swipe.Event) (bool, swipe.Snapshot, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	applied, snap, err := s.deck.Apply(ev)
	if err == nil {
		s.publish(snap)
	}
	return applied, snap, err
}

// sessionStore holds live decks by id.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: map[string]*session{}}
}

func (st *sessionStore) add(deck *swipe.Deck) *session {
	s := &session{deck: deck, subs: map[chan swipe.Snapshot]struct{}{}}
	st.mu.Lock()
	st.sessions[deck.ID] = s
	st.mu.Unlock()
	return s
}

func (st *sessionStore) get(id string) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, id)
	}
	return s, nil
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.closeAll()
	}
	return ok
}

// prune drops sessions created before cutoff and returns how many were removed.
func (st *sessionStore) prune(cutoff time.Time) int {
	st.mu.Lock()
	var stale []*session
	for id, s := range st.sessions {
		if s.deck.CreatedAt.Before(cutoff) {
			stale = append(stale, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range stale {
		s.closeAll()
	}
	return len(stale)
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *sessionStore) closeAllSessions() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = map[string]*session{}
	st.mu.Unlock()
	for _, s := range all {
		s.closeAll()
	}
}
