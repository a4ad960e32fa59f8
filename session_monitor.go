package authkit

import (
	"sync"
	"time"
)

// sessionMonitor tracks idle time for the active session and logs it out
// after the configured timeout. At most one timer is live at a time; every
// recognized activity signal re-arms it. A cancel that races an
// about-to-fire timer is resolved by the generation check: the callback
// only runs if the firing timer still owns the current session.
type sessionMonitor struct {
	mu          sync.Mutex
	idleTimeout time.Duration
	onExpire    func(sessionID string)

	sessionID  string
	generation uint64
	timer      *time.Timer
}

func newSessionMonitor(idleTimeout time.Duration, onExpire func(sessionID string)) *sessionMonitor {
	return &sessionMonitor{
		idleTimeout: idleTimeout,
		onExpire:    onExpire,
	}
}

// StartOrReset arms the idle timer for sessionID, replacing any timer that
// was running (for this or a previous session).
func (m *sessionMonitor) StartOrReset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}

	m.sessionID = sessionID
	m.generation++
	gen := m.generation

	m.timer = time.AfterFunc(m.idleTimeout, func() {
		m.fire(sessionID, gen)
	})
}

// Touch re-arms the timer for the current session, if any. Called on every
// recognized user-interaction signal.
func (m *sessionMonitor) Touch() {
	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()

	if sessionID != "" {
		m.StartOrReset(sessionID)
	}
}

// Cancel disarms the timer if it still belongs to sessionID. Called on
// explicit logout.
func (m *sessionMonitor) Cancel(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionID != sessionID {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.sessionID = ""
}

// Active returns the session currently under idle tracking.
func (m *sessionMonitor) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

func (m *sessionMonitor) fire(sessionID string, generation uint64) {
	m.mu.Lock()
	if m.sessionID != sessionID || m.generation != generation {
		// Cancelled or re-armed between scheduling and firing.
		m.mu.Unlock()
		return
	}
	m.sessionID = ""
	m.timer = nil
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(sessionID)
	}
}
