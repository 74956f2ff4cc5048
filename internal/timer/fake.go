package timer

import (
	"sync"
	"time"
)

// Fake is a manually driven Timer. Advance moves its clock forward and
// fires the timeout synchronously on the caller's goroutine.
type Fake struct {
	mu        sync.Mutex
	interval  time.Duration
	single    bool
	running   bool
	elapsed   time.Duration
	starts    int
	onTimeout func()
}

var _ Timer = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) SetInterval(d time.Duration) {
	f.mu.Lock()
	f.interval = d
	f.mu.Unlock()
}

func (f *Fake) Interval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

func (f *Fake) SetSingleShot(single bool) {
	f.mu.Lock()
	f.single = single
	f.mu.Unlock()
}

func (f *Fake) IsSingleShot() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.single
}

func (f *Fake) OnTimeout(fn func()) {
	f.mu.Lock()
	f.onTimeout = fn
	f.mu.Unlock()
}

func (f *Fake) Start() {
	f.mu.Lock()
	f.running = true
	f.elapsed = 0
	f.starts++
	f.mu.Unlock()
}

func (f *Fake) Stop() {
	f.mu.Lock()
	f.running = false
	f.elapsed = 0
	f.mu.Unlock()
}

func (f *Fake) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Starts reports how many times Start has been called.
func (f *Fake) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Advance moves the clock by d, firing once per elapsed interval while the
// timer keeps running.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.elapsed += d
	f.mu.Unlock()

	for {
		f.mu.Lock()
		if !f.running || f.interval <= 0 || f.elapsed < f.interval {
			f.mu.Unlock()
			return
		}
		f.elapsed -= f.interval
		if f.single {
			f.running = false
			f.elapsed = 0
		}
		fn := f.onTimeout
		f.mu.Unlock()

		if fn != nil {
			fn()
		}
	}
}

// Fire triggers one timeout immediately if the timer is running.
func (f *Fake) Fire() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	if f.single {
		f.running = false
	}
	f.elapsed = 0
	fn := f.onTimeout
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
}
