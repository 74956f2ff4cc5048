// Package timer provides the countdown abstraction used for close timeouts
// and frame dropping. Production code uses the time package; tests
// substitute Fake and advance it by hand.
package timer

import (
	"sync"
	"time"
)

// Timer is an interval or single-shot countdown.
type Timer interface {
	SetInterval(d time.Duration)
	Interval() time.Duration
	SetSingleShot(single bool)
	IsSingleShot() bool
	Start()
	Stop()
	IsRunning() bool
	// OnTimeout replaces the timeout callback.
	OnTimeout(fn func())
}

// Real is a Timer backed by time.AfterFunc. Timeouts are handed to post so
// they run on the goroutine that owns the timer's consumer; a nil post
// runs them on the timer goroutine.
type Real struct {
	post func(func())

	mu        sync.Mutex
	interval  time.Duration
	single    bool
	running   bool
	gen       uint64
	epoch     uint64
	t         *time.Timer
	onTimeout func()
}

var _ Timer = (*Real)(nil)

// New creates a stopped timer.
func New(post func(func())) *Real {
	return &Real{post: post}
}

func (r *Real) SetInterval(d time.Duration) {
	r.mu.Lock()
	r.interval = d
	r.mu.Unlock()
}

func (r *Real) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

func (r *Real) SetSingleShot(single bool) {
	r.mu.Lock()
	r.single = single
	r.mu.Unlock()
}

func (r *Real) IsSingleShot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.single
}

func (r *Real) OnTimeout(fn func()) {
	r.mu.Lock()
	r.onTimeout = fn
	r.mu.Unlock()
}

// Start (re)starts the countdown from the full interval.
func (r *Real) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.armLocked()
}

func (r *Real) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.gen++
	r.epoch++
	if r.t != nil {
		r.t.Stop()
		r.t = nil
	}
}

func (r *Real) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Real) armLocked() {
	if r.t != nil {
		r.t.Stop()
	}
	r.gen++
	gen := r.gen
	r.running = true
	r.t = time.AfterFunc(r.interval, func() { r.expire(gen) })
}

// expire runs on the time package goroutine. A stale generation means the
// timer was stopped or restarted after this countdown was armed.
func (r *Real) expire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || !r.running {
		r.mu.Unlock()
		return
	}
	if r.single {
		r.running = false
		r.t = nil
	} else {
		r.armLocked()
	}
	fn := r.onTimeout
	post := r.post
	epoch := r.epoch
	r.mu.Unlock()

	if fn == nil {
		return
	}
	if post == nil {
		fn()
		return
	}
	post(func() {
		// Stop or Start may have been called between expiry and dispatch.
		r.mu.Lock()
		stale := epoch != r.epoch
		r.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}
