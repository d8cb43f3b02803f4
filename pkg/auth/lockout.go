package auth

import (
	"sync"
	"time"
)

// LockoutConfig defines the login lockout policy
type LockoutConfig struct {
	// Threshold is the number of consecutive failures before lockout
	Threshold int
	// Duration is how long a locked username stays locked
	Duration time.Duration
}

// DefaultLockoutConfig returns the default lockout policy
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Threshold: 5,
		Duration:  15 * time.Minute,
	}
}

// lockoutState tracks consecutive failures for one username
type lockoutState struct {
	failures    int
	lockedUntil time.Time
	lastFailure time.Time
	mu          sync.Mutex
}

// LockoutTracker tracks consecutive login failures per username and locks
// a username once the threshold is reached. State is process-wide and
// in-memory; a restart clears it, which is an accepted limitation.
type LockoutTracker struct {
	config LockoutConfig
	states map[string]*lockoutState
	mu     sync.Mutex
	now    func() time.Time
}

// NewLockoutTracker creates a lockout tracker with the given policy
func NewLockoutTracker(config LockoutConfig) *LockoutTracker {
	if config.Threshold < 1 {
		config = DefaultLockoutConfig()
	}
	return &LockoutTracker{
		config: config,
		states: make(map[string]*lockoutState),
		now:    time.Now,
	}
}

// state returns the entry for a username, creating it lazily.
// Mutation of the returned entry is serialized by its own mutex so two
// concurrent failed logins for the same username cannot under-count.
func (lt *LockoutTracker) state(username string) *lockoutState {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	s, ok := lt.states[username]
	if !ok {
		s = &lockoutState{}
		lt.states[username] = s
	}
	return s
}

// Allow reports whether login attempts for the username are currently
// permitted. An elapsed lockout resets the failure counter.
func (lt *LockoutTracker) Allow(username string) bool {
	s := lt.state(username)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockedUntil.IsZero() {
		return true
	}
	if lt.now().Before(s.lockedUntil) {
		return false
	}
	// Lockout elapsed; attempts start counting from zero again
	s.failures = 0
	s.lockedUntil = time.Time{}
	return true
}

// RecordFailure increments the consecutive-failure counter and returns true
// when this failure triggers a new lockout.
func (lt *LockoutTracker) RecordFailure(username string) bool {
	s := lt.state(username)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures++
	s.lastFailure = lt.now()
	if s.failures >= lt.config.Threshold && s.lockedUntil.IsZero() {
		s.lockedUntil = lt.now().Add(lt.config.Duration)
		return true
	}
	return false
}

// Reset clears the failure counter for a username after a successful login
func (lt *LockoutTracker) Reset(username string) {
	s := lt.state(username)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.lockedUntil = time.Time{}
}

// Failures returns the current consecutive-failure count for a username
func (lt *LockoutTracker) Failures(username string) int {
	s := lt.state(username)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Sweep removes entries that are unlocked and idle for longer than the
// lockout duration, bounding the tracked key set.
func (lt *LockoutTracker) Sweep() {
	cutoff := lt.now().Add(-lt.config.Duration)
	lt.mu.Lock()
	defer lt.mu.Unlock()
	for username, s := range lt.states {
		s.mu.Lock()
		stale := s.lockedUntil.Before(lt.now()) && s.lastFailure.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(lt.states, username)
		}
	}
}
