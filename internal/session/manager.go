package session

import (
	"sort"
	"strings"
	"sync"
)

// key identifies one client process of an application. Windows of the same
// application started by different processes get separate sessions.
type key struct {
	appID string
	pid   int
}

// Manager maps client processes to sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[key]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[key]*Session)}
}

// Ensure returns the session for the appID process pid, creating a running
// one when it does not exist yet. An empty appID yields nil.
func (m *Manager) Ensure(appID string, pid int) *Session {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{appID: appID, pid: pid}
	if s, ok := m.sessions[k]; ok {
		return s
	}
	s := New(appID, pid)
	s.SetState(Running)
	m.sessions[k] = s
	return s
}

// Find returns the session of the appID process pid or nil.
func (m *Manager) Find(appID string, pid int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[key{appID: strings.TrimSpace(appID), pid: pid}]
}

// FindByPID returns the first session owned by pid or nil.
func (m *Manager) FindByPID(pid int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.PID() == pid {
			return s
		}
	}
	return nil
}

// Remove forgets s and destroys it. Sessions the manager does not hold are
// left alone.
func (m *Manager) Remove(s *Session) {
	if s == nil {
		return
	}
	k := key{appID: s.AppID(), pid: s.PID()}

	m.mu.Lock()
	held := m.sessions[k] == s
	if held {
		delete(m.sessions, k)
	}
	m.mu.Unlock()

	if held {
		s.Destroy()
	}
}

// List returns every session sorted by application id, then pid.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AppID() != out[j].AppID() {
			return out[i].AppID() < out[j].AppID()
		}
		return out[i].PID() < out[j].PID()
	})
	return out
}
