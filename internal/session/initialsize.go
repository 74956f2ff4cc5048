package session

import (
	"sync"

	"github.com/1broseidon/surfaced/internal/scene"
)

// InitialSizes holds sizes requested for the first window of a process
// before that window exists. Entries are set by the shell (or the IPC
// "initial-size" command) and consumed once by the registry when the
// process's first top-level window is added.
//
// All methods are safe for concurrent use; the mutex is held only for the
// map access itself.
type InitialSizes struct {
	mu    sync.Mutex
	sizes map[int]scene.Size
}

func NewInitialSizes() *InitialSizes {
	return &InitialSizes{sizes: make(map[int]scene.Size)}
}

// Set registers size for pid, replacing any earlier entry.
func (s *InitialSizes) Set(pid int, size scene.Size) {
	s.mu.Lock()
	s.sizes[pid] = size
	s.mu.Unlock()
}

// Remove unregisters pid.
func (s *InitialSizes) Remove(pid int) {
	s.mu.Lock()
	delete(s.sizes, pid)
	s.mu.Unlock()
}

// Get returns the size registered for pid without consuming it.
func (s *InitialSizes) Get(pid int) (scene.Size, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.sizes[pid]
	return size, ok
}

// Take returns and unregisters the size for pid.
func (s *InitialSizes) Take(pid int) (scene.Size, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.sizes[pid]
	if ok {
		delete(s.sizes, pid)
	}
	return size, ok
}

// Len reports the number of registered entries.
func (s *InitialSizes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sizes)
}
