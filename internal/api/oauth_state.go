package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// oauthStateTTL bounds how long a consent redirect stays redeemable.
const oauthStateTTL = 10 * time.Minute

// stateStore tracks the state values issued at /login so the callback can
// tell a genuine Google redirect from a forged one. States are single use.
type stateStore struct {
	mu     sync.Mutex
	issued map[string]time.Time
}

func newStateStore() *stateStore {
	return &stateStore{issued: make(map[string]time.Time)}
}

// Issue mints a new state value and remembers when it was handed out.
func (s *stateStore) Issue() string {
	state := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	for old, issuedAt := range s.issued {
		if time.Since(issuedAt) > oauthStateTTL {
			delete(s.issued, old)
		}
	}
	s.issued[state] = time.Now()

	return state
}

// Consume redeems a state value. It reports false for unknown, reused, or
// expired states.
func (s *stateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	issuedAt, ok := s.issued[state]
	if !ok {
		return false
	}
	delete(s.issued, state)

	return time.Since(issuedAt) <= oauthStateTTL
}
