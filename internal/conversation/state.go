package conversation

import (
	"sync"
	"time"
)

// State identifies a finite-state-machine step in an in-flight dialogue.
type State string

const (
	StateIdle State = "idle"

	// signup flow
	StateAwaitingName  State = "awaiting_name"
	StateAwaitingPhone State = "awaiting_phone"

	// admin flow
	StateAwaitingPassword State = "awaiting_admin_password"
	StateMenu             State = "awaiting_menu_choice"
	StateViewHistory      State = "awaiting_history_target"
	StateDeleteUser       State = "awaiting_delete_target"
)

// Session holds the in-progress state and partially collected fields for
// one dialogue. Sessions are transient: a restart silently aborts them.
type Session struct {
	State      State
	Name       string
	LastActive time.Time
}

// Sessions is an in-memory session manager keyed by external id.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// Get returns the live session for an external id, or nil.
func (m *Sessions) Get(externalID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[externalID]
}

// Begin replaces any existing session with a fresh one in the given state.
func (m *Sessions) Begin(externalID string, state State) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{State: state, LastActive: time.Now()}
	m.sessions[externalID] = s
	return s
}

// Touch refreshes the idle timer on a live session.
func (m *Sessions) Touch(externalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[externalID]; ok {
		s.LastActive = time.Now()
	}
}

func (m *Sessions) Clear(externalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, externalID)
}

func (m *Sessions) InProgress(externalID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[externalID]
	return ok && s.State != StateIdle
}

// ExpireIdle drops sessions whose last activity is older than maxAge and
// returns how many were removed.
func (m *Sessions) ExpireIdle(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, s := range m.sessions {
		if s.LastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
