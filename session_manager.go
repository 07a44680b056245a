package superpay

import "sync"

// SessionManager enforces the one-active-session-per-surface invariant.
// Starting a new request for a surface cancels and replaces any prior
// session before the new one is tracked, so two pollers can never race to
// update the same UI.
type SessionManager struct {
	mu     sync.Mutex
	active map[string]*ConfirmationSession
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		active: make(map[string]*ConfirmationSession),
	}
}

// Replace installs next as the active session for the surface, cancelling
// any prior session first. Returns the replaced session, or nil.
func (m *SessionManager) Replace(surface string, next *ConfirmationSession) *ConfirmationSession {
	m.mu.Lock()
	prev := m.active[surface]
	m.active[surface] = next
	m.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return prev
}

// Active returns the session currently tracked for the surface, or nil.
func (m *SessionManager) Active(surface string) *ConfirmationSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[surface]
}

// Release forgets the session for a surface if it is still the tracked one
// and cancels it. Called when the UI is dismissed.
func (m *SessionManager) Release(surface string, sess *ConfirmationSession) {
	m.mu.Lock()
	if m.active[surface] == sess {
		delete(m.active, surface)
	}
	m.mu.Unlock()

	if sess != nil {
		sess.Cancel()
	}
}
