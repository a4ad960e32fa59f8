// Package lockout tracks per-user failed login attempts and time-boxed
// account locks. State is transient: a lock expires lazily when checked
// after the configured duration, and a successful login clears it.
package lockout

import (
	"sync"
	"time"
)

// Config holds the lockout policy.
type Config struct {
	Threshold int           // failures that trigger a lock
	Duration  time.Duration // how long a lock holds
}

type state struct {
	failures int
	lockedAt time.Time // zero while unlocked
}

// Tracker holds failure counters and lock timestamps keyed by user ID.
// Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	config Config
	states map[string]*state
}

// NewTracker creates a Tracker with the given policy.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		config: cfg,
		states: make(map[string]*state),
	}
}

// RecordFailure increments the failure counter for a user. When the counter
// reaches the threshold the account transitions to locked at now. Returns
// the new counter value and whether this call triggered the lock.
func (t *Tracker) RecordFailure(userID string, now time.Time) (attempts int, locked bool) {
	if userID == "" {
		return 0, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.states[userID]
	if s == nil {
		s = &state{}
		t.states[userID] = s
	}

	if !s.lockedAt.IsZero() {
		// Already locked; the counter does not advance past the threshold.
		return s.failures, false
	}

	s.failures++
	if s.failures >= t.config.Threshold {
		s.lockedAt = now
		return s.failures, true
	}
	return s.failures, false
}

// Status reports whether the user is currently locked and, if so, how long
// until the lock expires. A lock whose window has elapsed is cleared as a
// side effect of the check and the counter resets to zero.
func (t *Tracker) Status(userID string, now time.Time) (locked bool, remaining time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.states[userID]
	if s == nil || s.lockedAt.IsZero() {
		return false, 0
	}

	elapsed := now.Sub(s.lockedAt)
	if elapsed < t.config.Duration {
		return true, t.config.Duration - elapsed
	}

	delete(t.states, userID)
	return false, 0
}

// Reset clears the failure counter and any lock for a user, e.g. after a
// successful login.
func (t *Tracker) Reset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, userID)
}

// Failures returns the current failure count for a user.
func (t *Tracker) Failures(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s := t.states[userID]; s != nil {
		return s.failures
	}
	return 0
}
