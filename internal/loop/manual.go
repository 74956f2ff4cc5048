package loop

import "sync"

// Manual is a Poster whose tasks only run when Drain is called. Tests use
// it to observe what was deferred and to step the owning context by hand.
type Manual struct {
	mu    sync.Mutex
	tasks []func()
}

var _ Poster = (*Manual)(nil)

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.tasks = append(m.tasks, fn)
	m.mu.Unlock()
}

// Pending reports how many tasks are queued.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Drain runs queued tasks, including ones posted while draining, until the
// queue is empty. It returns the number of tasks run.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.tasks) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}
