package scene

import "testing"

func testFrame(w, h int) Frame {
	return Frame{
		Size:   Size{Width: w, Height: h},
		Format: FormatXRGB8888,
		Stride: w * 4,
		Pixels: make([]byte, w*h*4),
	}
}

func TestBufferQueue_NewConsumerSeededWithLatest(t *testing.T) {
	q := NewBufferQueue(3)
	q.Submit(testFrame(10, 10))
	q.Submit(testFrame(20, 20))

	if got := q.Ready(1); got != 1 {
		t.Fatalf("expected new consumer to see 1 frame, got %d", got)
	}
	b := q.Acquire(1)
	if b == nil {
		t.Fatalf("expected a buffer")
	}
	if b.Size() != (Size{Width: 20, Height: 20}) {
		t.Fatalf("expected latest frame, got %v", b.Size())
	}
}

func TestBufferQueue_CapacityCountsHeldBuffers(t *testing.T) {
	q := NewBufferQueue(2)
	q.Ready(7)

	if !q.Submit(testFrame(1, 1)) {
		t.Fatalf("first submit should fit")
	}
	held := q.Acquire(7)
	if !q.Submit(testFrame(1, 1)) {
		t.Fatalf("second submit should fit")
	}
	if q.Submit(testFrame(1, 1)) {
		t.Fatalf("third submit should report a full pool")
	}

	held.Release()
	held.Release()
	if q.Held(7) != 0 {
		t.Fatalf("expected double release to count once, held=%d", q.Held(7))
	}
	if !q.Submit(testFrame(1, 1)) {
		t.Fatalf("submit should fit after release")
	}
	acquired, released := q.Stats(7)
	if acquired != 1 || released != 1 {
		t.Fatalf("expected 1/1 acquire/release, got %d/%d", acquired, released)
	}
}

func TestBufferQueue_AcquireEmpty(t *testing.T) {
	q := NewBufferQueue(3)
	if b := q.Acquire(1); b != nil {
		t.Fatalf("expected nil buffer from empty queue")
	}
	if r := q.Renderables(1, Point{}); r != nil {
		t.Fatalf("expected no renderables, got %d", len(r))
	}
}
