package sweeper

import "sync"

// ActiveMintSet tracks mints with a sell currently in flight so concurrent
// notifications for the same mint do not race each other into duplicate
// transactions.
type ActiveMintSet struct {
	mu    sync.Mutex
	mints map[string]struct{}
}

// NewActiveMintSet creates an empty guard set
func NewActiveMintSet() *ActiveMintSet {
	return &ActiveMintSet{
		mints: make(map[string]struct{}),
	}
}

// TryAcquire marks the mint as in flight. It returns false when another
// goroutine already holds the mint.
func (s *ActiveMintSet) TryAcquire(mint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.mints[mint]; exists {
		return false
	}

	s.mints[mint] = struct{}{}
	return true
}

// Release removes the mint from the in-flight set. Safe to call for a mint
// that was never acquired.
func (s *ActiveMintSet) Release(mint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.mints, mint)
}

// Len returns the number of mints currently in flight
func (s *ActiveMintSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.mints)
}
