// Package session tracks the client processes that own surfaces.
package session

import (
	"fmt"
	"sync"

	"github.com/1broseidon/surfaced/internal/notify"
)

// State is the lifecycle state of a client session.
type State int

const (
	Starting State = iota
	Running
	Suspending
	Suspended
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Suspending:
		return "suspending"
	case Suspended:
		return "suspended"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Surface is what a session needs to know about the surfaces it owns.
type Surface interface {
	ID() uint64
}

// Session is one client application. Child sessions are trusted helpers
// (for example a modal prompt spawned by the app) that take focus control
// away from the parent's surfaces while they exist.
type Session struct {
	appID string
	pid   int

	mu        sync.Mutex
	state     State
	children  []*Session
	surfaces  []Surface
	destroyed bool

	destroyedSignal notify.Signal[*Session]
}

func New(appID string, pid int) *Session {
	return &Session{appID: appID, pid: pid, state: Starting}
}

func (s *Session) AppID() string { return s.appID }
func (s *Session) PID() int      { return s.pid }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// ChildSessionCount reports how many trusted child sessions are alive.
func (s *Session) ChildSessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children)
}

func (s *Session) AddChildSession(child *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.children {
		if c == child {
			return
		}
	}
	s.children = append(s.children, child)
}

func (s *Session) RemoveChildSession(child *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// RegisterSurface records a surface as belonging to this session.
func (s *Session) RegisterSurface(surf Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.surfaces {
		if existing.ID() == surf.ID() {
			return
		}
	}
	s.surfaces = append(s.surfaces, surf)
}

func (s *Session) UnregisterSurface(surf Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.surfaces {
		if existing.ID() == surf.ID() {
			s.surfaces = append(s.surfaces[:i], s.surfaces[i+1:]...)
			return
		}
	}
}

func (s *Session) Surfaces() []Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Surface(nil), s.surfaces...)
}

// OnDestroyed calls fn once the session is destroyed. The returned function
// disconnects fn.
func (s *Session) OnDestroyed(fn func()) (disconnect func()) {
	return s.destroyedSignal.Connect(func(*Session) { fn() })
}

// Destroy marks the session stopped and notifies observers. Only the first
// call has any effect.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.state = Stopped
	s.mu.Unlock()

	s.destroyedSignal.Emit(s)
}

func (s *Session) IsDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}
