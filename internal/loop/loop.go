// Package loop implements the owning execution context for surface state.
// Every surface and registry mutation and every notification runs on the
// loop goroutine; other goroutines hand work over with Post or Invoke.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"deedles.dev/xsync"
)

// ErrStopped is returned by Invoke when the loop has shut down.
var ErrStopped = errors.New("loop stopped")

// Poster is implemented by anything that can queue a task for later
// execution on its owning goroutine.
type Poster interface {
	Post(fn func())
}

// Loop is a serial task queue. Tasks posted from any goroutine run in
// posting order on the goroutine that calls Run.
type Loop struct {
	// mu guards stopped against sends racing the queue shutdown.
	mu      sync.RWMutex
	stopped bool
	queue   xsync.Queue[func()]
	done    chan struct{}
	logger  *slog.Logger
}

var _ Poster = (*Loop)(nil)

func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		done:   make(chan struct{}),
		logger: logger.With("component", "loop"),
	}
}

// Post queues fn without waiting for it. Posting after Stop drops fn.
func (l *Loop) Post(fn func()) {
	if !l.enqueue(fn) {
		l.logger.Debug("dropping task posted after stop")
	}
}

func (l *Loop) enqueue(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		return false
	}
	l.queue.Push() <- fn
	return true
}

const (
	taskPending int32 = iota
	taskRunning
	taskAbandoned
)

// Invoke runs fn on the loop and waits for it to finish. It must not be
// called from the loop goroutine itself. When ctx ends before the loop
// picks the task up, fn never runs and ctx's error is returned; once fn has
// started, Invoke waits for it and reports success.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	task := func() {
		if !state.CompareAndSwap(taskPending, taskRunning) {
			return
		}
		defer close(finished)
		fn()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if !l.enqueue(task) {
		return ErrStopped
	}

	var err error
	select {
	case <-finished:
		return nil
	case <-l.done:
		err = ErrStopped
	case <-ctx.Done():
		err = ctx.Err()
	}
	if state.CompareAndSwap(taskPending, taskAbandoned) {
		return err
	}
	<-finished
	return nil
}

// Run executes queued tasks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop started")
	pop := l.queue.Pop()
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn, ok := <-pop:
			if !ok {
				return nil
			}
			fn()
		}
	}
}

// Stop ends Run and releases the queue. Safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.done)
	l.queue.Stop()
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
