// Package notify provides a small typed observer mechanism used for all
// surface and registry notifications.
package notify

import "sync"

// Signal fans a value out to every connected handler. Emission is
// fire-and-forget: handlers cannot report failure back to the emitter.
type Signal[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []handler[T]
}

type handler[T any] struct {
	id uint64
	fn func(T)
}

// Connect registers fn and returns a function that disconnects it.
// Disconnecting more than once is harmless.
func (s *Signal[T]) Connect(fn func(T)) (disconnect func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, handler[T]{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every connected handler in connection order. The handler list
// is snapshotted first so handlers may connect or disconnect while running.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	handlers := make([]handler[T], len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h.fn(v)
	}
}

// Len reports the number of connected handlers.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}
