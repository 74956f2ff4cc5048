package scene

import (
	"fmt"
	"sync"
)

// PixelFormat describes the memory layout of a client buffer.
type PixelFormat int

const (
	FormatInvalid PixelFormat = iota
	FormatARGB8888
	FormatXRGB8888
	FormatABGR8888
	FormatXBGR8888
	FormatRGB565
)

func (f PixelFormat) String() string {
	switch f {
	case FormatARGB8888:
		return "argb8888"
	case FormatXRGB8888:
		return "xrgb8888"
	case FormatABGR8888:
		return "abgr8888"
	case FormatXBGR8888:
		return "xbgr8888"
	case FormatRGB565:
		return "rgb565"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Buffer is one client frame held by the compositor. Release hands it back
// to the client; a Buffer must not be used after Release.
type Buffer interface {
	ID() uint64
	Size() Size
	Format() PixelFormat
	Stride() int
	Pixels() []byte
	Release()
}

// Renderable is one drawable frame ready for compositing.
type Renderable struct {
	Buffer  Buffer
	TopLeft Point
}

// Frame is the client-side content of a buffer before it is queued.
type Frame struct {
	Size   Size
	Format PixelFormat
	Stride int
	Pixels []byte
}

// BufferQueue is a per-consumer frame queue. Each submitted frame is queued
// for every consumer; consumers first seen after a submission start with the
// latest frame so a new output never shows an empty surface.
type BufferQueue struct {
	mu        sync.Mutex
	capacity  int
	nextID    uint64
	latest    *Frame
	consumers map[ConsumerID]*consumerQueue
}

type consumerQueue struct {
	pending  []queuedFrame
	held     int
	maxHeld  int
	acquired int
	released int
}

type queuedFrame struct {
	id    uint64
	frame *Frame
}

// NewBufferQueue creates a queue allowing at most capacity frames per
// consumer to be pending or held at once.
func NewBufferQueue(capacity int) *BufferQueue {
	if capacity <= 0 {
		capacity = 3
	}
	return &BufferQueue{
		capacity:  capacity,
		consumers: make(map[ConsumerID]*consumerQueue),
	}
}

// Submit queues f for every known consumer. It returns false when some
// consumer had no free slot, which is where a real client would block in
// its swap call; that consumer skips the frame.
func (q *BufferQueue) Submit(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	frame := &f
	q.latest = frame
	ok := true
	for _, c := range q.consumers {
		if len(c.pending)+c.held >= q.capacity {
			ok = false
			continue
		}
		c.pending = append(c.pending, queuedFrame{id: q.nextID, frame: frame})
	}
	return ok
}

// Ready reports the number of frames queued for consumer.
func (q *BufferQueue) Ready(consumer ConsumerID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.consumerLocked(consumer).pending)
}

// Acquire pops the next frame for consumer, or returns nil.
func (q *BufferQueue) Acquire(consumer ConsumerID) Buffer {
	q.mu.Lock()
	defer q.mu.Unlock()

	c := q.consumerLocked(consumer)
	if len(c.pending) == 0 {
		return nil
	}
	next := c.pending[0]
	c.pending = c.pending[1:]
	c.held++
	c.acquired++
	if c.held > c.maxHeld {
		c.maxHeld = c.held
	}
	return &queuedBuffer{q: q, consumer: consumer, id: next.id, frame: next.frame}
}

// Renderables adapts Acquire to the Surface contract.
func (q *BufferQueue) Renderables(consumer ConsumerID, topLeft Point) []Renderable {
	b := q.Acquire(consumer)
	if b == nil {
		return nil
	}
	return []Renderable{{Buffer: b, TopLeft: topLeft}}
}

// Held reports how many acquired buffers consumer has not released.
func (q *BufferQueue) Held(consumer ConsumerID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.consumerLocked(consumer).held
}

// MaxHeld reports the largest number of buffers consumer ever held at once.
func (q *BufferQueue) MaxHeld(consumer ConsumerID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.consumerLocked(consumer).maxHeld
}

// Stats reports acquire and release totals for consumer.
func (q *BufferQueue) Stats(consumer ConsumerID) (acquired, released int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	c := q.consumerLocked(consumer)
	return c.acquired, c.released
}

// Forget drops all state for consumer.
func (q *BufferQueue) Forget(consumer ConsumerID) {
	q.mu.Lock()
	delete(q.consumers, consumer)
	q.mu.Unlock()
}

// Tracks reports whether the queue holds state for consumer.
func (q *BufferQueue) Tracks(consumer ConsumerID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.consumers[consumer]
	return ok
}

func (q *BufferQueue) consumerLocked(consumer ConsumerID) *consumerQueue {
	c, ok := q.consumers[consumer]
	if !ok {
		c = &consumerQueue{}
		if q.latest != nil {
			c.pending = append(c.pending, queuedFrame{id: q.nextID, frame: q.latest})
		}
		q.consumers[consumer] = c
	}
	return c
}

func (q *BufferQueue) release(consumer ConsumerID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	c, ok := q.consumers[consumer]
	if !ok {
		return
	}
	c.held--
	c.released++
}

type queuedBuffer struct {
	q        *BufferQueue
	consumer ConsumerID
	id       uint64
	frame    *Frame

	once sync.Once
}

func (b *queuedBuffer) ID() uint64          { return b.id }
func (b *queuedBuffer) Size() Size          { return b.frame.Size }
func (b *queuedBuffer) Format() PixelFormat { return b.frame.Format }
func (b *queuedBuffer) Stride() int         { return b.frame.Stride }
func (b *queuedBuffer) Pixels() []byte      { return b.frame.Pixels }

func (b *queuedBuffer) Release() {
	b.once.Do(func() {
		b.q.release(b.consumer)
	})
}
