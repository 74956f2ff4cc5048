package input

import (
	"sync"
	"time"
)

// Timestamps turns 32-bit toolkit millisecond counters into native
// nanosecond timestamps. The counter wraps roughly every 49 days; a backwards
// jump of more than half the range is taken as a wrap, and a forward jump of
// more than half the range as a late event from before the last wrap.
type Timestamps struct {
	epoch time.Duration

	mu    sync.Mutex
	seen  bool
	last  uint32
	wraps uint64
}

// NewTimestamps returns a converter that adds epoch to every timestamp.
func NewTimestamps(epoch time.Duration) *Timestamps {
	return &Timestamps{epoch: epoch}
}

// Uncompress converts one toolkit timestamp.
func (t *Timestamps) Uncompress(ms uint32) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	wraps := t.wraps
	switch {
	case !t.seen:
		t.seen = true
		t.last = ms
	case ms < t.last && t.last-ms > 1<<31:
		t.wraps++
		wraps = t.wraps
		t.last = ms
	case ms > t.last && ms-t.last > 1<<31:
		if wraps > 0 {
			wraps--
		}
	default:
		t.last = ms
	}

	total := wraps<<32 + uint64(ms)
	return t.epoch + time.Duration(total)*time.Millisecond
}
