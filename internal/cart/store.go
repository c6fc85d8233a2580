package cart

import (
	"sync"
	"time"
)

const (
	// SessionTTL is how long an idle session keeps its cart before it is
	// dropped. Carts are deliberately volatile: there is no durability
	// guarantee for an unsubmitted cart.
	SessionTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 1 * time.Minute
)

type entry struct {
	cart     *Cart
	lastSeen time.Time
}

// Store keeps one Cart per browser session, in memory only. The mutex guards
// the session map; each cart itself is accessed under the same lock via With,
// which keeps per-session mutation serialized without per-cart locking.
type Store struct {
	mu    sync.Mutex
	carts map[string]*entry

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewStore() *Store {
	s := &Store{
		carts:       make(map[string]*entry),
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *Store) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) expireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-SessionTTL)
	for id, e := range s.carts {
		if e.lastSeen.Before(cutoff) {
			delete(s.carts, id)
		}
	}
}

// With runs fn against the session's cart, creating an empty cart on first
// use. fn must not retain the *Cart beyond the call.
func (s *Store) With(sessionID string, fn func(*Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.carts[sessionID]
	if !ok {
		e = &entry{cart: &Cart{}}
		s.carts[sessionID] = e
	}
	e.lastSeen = time.Now()
	fn(e.cart)
}

// Drop discards the session's cart, if any.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Close stops the background cleanup and waits for it to finish
func (s *Store) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
