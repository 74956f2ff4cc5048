package surface

import (
	"context"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/1broseidon/surfaced/internal/input"
	"github.com/1broseidon/surfaced/internal/loop"
	"github.com/1broseidon/surfaced/internal/scene"
	"github.com/1broseidon/surfaced/internal/scene/scenetest"
	"github.com/1broseidon/surfaced/internal/session"
	"github.com/1broseidon/surfaced/internal/timer"
)

const consumer scene.ConsumerID = 1

type harness struct {
	t       *testing.T
	loop    *loop.Manual
	ps      *scenetest.Surface
	ctl     *scenetest.Controller
	sess    *session.Session
	dropper *timer.Fake
	closer  *timer.Fake
	s       *Surface
	events  []Change
}

func newHarness(t *testing.T, configure ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		loop:    loop.NewManual(),
		ps:      scenetest.NewSurface("terminal", scene.Size{Width: 100, Height: 50}),
		ctl:     scenetest.NewController(),
		sess:    session.New("org.example.terminal", 1234),
		dropper: timer.NewFake(),
		closer:  timer.NewFake(),
	}
	h.sess.SetState(session.Running)

	opts := Options{
		Session:      h.sess,
		FrameDropper: h.dropper,
		CloseTimer:   h.closer,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.s = New(scene.Window{ID: 7, Surface: h.ps}, h.ctl, h.loop, opts)
	h.s.Changed.Connect(func(e Event) { h.events = append(h.events, e.Change) })
	return h
}

func withoutSession(o *Options) { o.Session = nil }

func (h *harness) count(c Change) int {
	n := 0
	for _, e := range h.events {
		if e == c {
			n++
		}
	}
	return n
}

// post queues n client frames of the protocol surface's size for consumer.
func (h *harness) post(n int) {
	h.ps.Queue.Ready(consumer)
	for i := 0; i < n; i++ {
		h.ps.Post(h.ps.Size())
	}
}

func TestUpdateTexture_ThreeBuffersReady(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.post(3)
	h.loop.Drain()
	h.dropper.Stop()

	if !h.s.UpdateTexture(consumer) {
		t.Fatalf("expected a bound buffer")
	}
	if got := h.s.CurrentFrameNumber(consumer); got != 1 {
		t.Fatalf("expected frame number 1, got %d", got)
	}
	if got := h.s.NumBuffersReadyForCompositor(consumer); got != 2 {
		t.Fatalf("expected 2 buffers still queued, got %d", got)
	}
	if got := h.ps.Queue.Held(consumer); got != 1 {
		t.Fatalf("expected exactly one held buffer, got %d", got)
	}

	if h.dropper.IsRunning() {
		t.Fatalf("frame dropper must be re-armed on the loop, not inline")
	}
	h.loop.Drain()
	if !h.dropper.IsRunning() {
		t.Fatalf("expected frame dropper to be re-armed with buffers pending")
	}
}

func TestUpdateTexture_AtMostOneBufferInFlight(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)

	for i := 0; i < 12; i++ {
		h.post(1 + i%3)
		h.s.OnCompositorSwappedBuffers()
		h.s.UpdateTexture(consumer)
		if held := h.ps.Queue.Held(consumer); held > 1 {
			t.Fatalf("iteration %d: %d buffers held at once", i, held)
		}
		h.loop.Drain()
	}

	if got := h.ps.Queue.MaxHeld(consumer); got != 1 {
		t.Fatalf("expected max 1 held buffer, got %d", got)
	}
	acquired, released := h.ps.Queue.Stats(consumer)
	if acquired-released != 1 {
		t.Fatalf("expected only the bound buffer outstanding, acquired=%d released=%d", acquired, released)
	}
}

func TestUpdateTexture_UpToDateIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.post(2)

	h.s.UpdateTexture(consumer)
	if !h.s.UpdateTexture(consumer) {
		t.Fatalf("expected bound buffer to be reported")
	}
	if got := h.s.CurrentFrameNumber(consumer); got != 1 {
		t.Fatalf("expected up-to-date texture to skip the queued frame, frame=%d", got)
	}

	h.s.OnCompositorSwappedBuffers()
	h.s.UpdateTexture(consumer)
	if got := h.s.CurrentFrameNumber(consumer); got != 2 {
		t.Fatalf("expected frame 2 after swap, got %d", got)
	}

	// Nothing queued: stale texture keeps its buffer.
	h.s.OnCompositorSwappedBuffers()
	if !h.s.UpdateTexture(consumer) {
		t.Fatalf("expected buffer to stay bound with nothing queued")
	}
	if got := h.s.CurrentFrameNumber(consumer); got != 2 {
		t.Fatalf("expected frame number to stay at 2, got %d", got)
	}
}

func TestUpdateTexture_UnknownConsumer(t *testing.T) {
	h := newHarness(t)
	h.post(1)
	if h.s.UpdateTexture(consumer) {
		t.Fatalf("expected false without a texture entry")
	}
	if h.s.WeakTexture(consumer) != nil {
		t.Fatalf("WeakTexture must not create an entry")
	}
	if h.s.CurrentFrameNumber(consumer) != 0 {
		t.Fatalf("expected frame 0 for unknown consumer")
	}
}

func TestUpdateTexture_SizeChangeIsPosted(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.ps.Queue.Ready(consumer)
	h.ps.Post(scene.Size{Width: 300, Height: 200})
	h.loop.Drain()

	h.s.UpdateTexture(consumer)
	if h.count(SizeChanged) != 0 {
		t.Fatalf("size change must not be emitted from the render path")
	}
	if got := h.s.Size(); got != (scene.Size{Width: 300, Height: 200}) {
		t.Fatalf("expected size to follow the bound buffer, got %v", got)
	}
	h.loop.Drain()
	if h.count(SizeChanged) != 1 {
		t.Fatalf("expected one size change, got %d", h.count(SizeChanged))
	}
	if got := h.s.WeakTexture(consumer).TextureSize(); got.Width != 300 {
		t.Fatalf("unexpected texture size %v", got)
	}
}

func TestUpdateTexture_UnsupportedFormatPanics(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.ps.Queue.Ready(consumer)
	h.ps.Queue.Submit(scene.Frame{Size: scene.Size{Width: 1, Height: 1}, Format: scene.FormatInvalid})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unsupported pixel format")
		}
	}()
	h.s.UpdateTexture(consumer)
}

func TestReleaseTexture(t *testing.T) {
	h := newHarness(t)
	tex := h.s.Texture(consumer)
	h.post(1)
	h.s.UpdateTexture(consumer)

	h.s.ReleaseTexture(consumer)
	if tex.Alive() || tex.HasBuffer() {
		t.Fatalf("expected released texture to be dead and empty")
	}
	if h.ps.Queue.Held(consumer) != 0 {
		t.Fatalf("expected buffer to be handed back")
	}
	if h.s.WeakTexture(consumer) != nil {
		t.Fatalf("expected entry to be removed")
	}
	if h.ps.Queue.Tracks(consumer) {
		t.Fatalf("expected the protocol queue to forget the consumer")
	}
}

func TestFrameDropper_DropsPendingFramesThenStops(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.post(2)
	h.loop.Drain()
	if !h.dropper.IsRunning() {
		t.Fatalf("expected frames posted to start the dropper")
	}

	h.dropper.Fire()
	h.loop.Drain()
	if h.count(FrameDropped) != 1 || h.s.CurrentFrameNumber(consumer) != 1 {
		t.Fatalf("expected one dropped frame, dropped=%d frame=%d", h.count(FrameDropped), h.s.CurrentFrameNumber(consumer))
	}

	h.dropper.Fire()
	h.loop.Drain()
	if h.count(FrameDropped) != 2 || h.s.CurrentFrameNumber(consumer) != 2 {
		t.Fatalf("expected two dropped frames, dropped=%d frame=%d", h.count(FrameDropped), h.s.CurrentFrameNumber(consumer))
	}

	h.dropper.Fire()
	if h.count(FrameDropped) != 2 {
		t.Fatalf("expected no drop with nothing queued")
	}
	if h.dropper.IsRunning() {
		t.Fatalf("expected dropper to stop once caught up")
	}
	if h.ps.Queue.MaxHeld(consumer) != 1 {
		t.Fatalf("dropping must not hold more than one buffer")
	}
}

// lockCheckHandler counts log records emitted while the surface's texture
// lock is held.
type lockCheckHandler struct {
	surface **Surface
	held    *int
}

func (h lockCheckHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h lockCheckHandler) Handle(context.Context, slog.Record) error {
	if s := *h.surface; s != nil {
		if s.mu.TryLock() {
			s.mu.Unlock()
		} else {
			*h.held++
		}
	}
	return nil
}

func (h lockCheckHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h lockCheckHandler) WithGroup(string) slog.Handler      { return h }

func TestFrameDropper_LogsOutsideTextureLock(t *testing.T) {
	var s *Surface
	held := 0
	h := newHarness(t, func(o *Options) {
		o.Logger = slog.New(lockCheckHandler{surface: &s, held: &held})
	})
	s = h.s
	h.s.Texture(consumer)
	h.post(3)
	h.loop.Drain()

	h.dropper.Fire()
	h.loop.Drain()
	h.dropper.Fire()
	h.loop.Drain()

	if h.count(FrameDropped) != 2 {
		t.Fatalf("expected two dropped frames, got %d", h.count(FrameDropped))
	}
	if held != 0 {
		t.Fatalf("%d log records written while holding the texture lock", held)
	}
}

// The renderer runs on its own goroutine while the client posts frames from
// another and the loop runs the frame dropper. Run with -race.
func TestTexture_RenderGoroutineAgainstLoop(t *testing.T) {
	l := loop.New(nil)
	ps := scenetest.NewSurface("terminal", scene.Size{Width: 8, Height: 8})
	sess := session.New("org.example.terminal", 1234)
	sess.SetState(session.Running)
	s := New(scene.Window{ID: 7, Surface: ps}, scenetest.NewController(), l, Options{
		Session:           sess,
		FrameDropInterval: time.Millisecond,
	})
	var dropped atomic.Int64
	s.Changed.Connect(func(e Event) {
		if e.Change == FrameDropped {
			dropped.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		l.Run(ctx)
	}()

	if s.Texture(consumer) == nil {
		t.Fatalf("expected a texture for a live surface")
	}
	ps.Queue.Ready(consumer)

	stop := make(chan struct{})
	var renderer sync.WaitGroup
	renderer.Add(1)
	go func() {
		defer renderer.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if s.Texture(consumer) == nil {
				t.Errorf("texture vanished while the surface is alive")
				return
			}
			s.UpdateTexture(consumer)
			s.OnCompositorSwappedBuffers()
			time.Sleep(50 * time.Microsecond)
		}
	}()

	const frames = 2000
	for i := 0; i < frames; i++ {
		ps.Post(ps.Size())
		if i%100 == 0 {
			time.Sleep(2 * time.Millisecond)
		}
	}
	close(stop)
	renderer.Wait()

	if err := l.Invoke(ctx, s.StopFrameDropper); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	cancel()
	<-runDone

	if got := ps.Queue.MaxHeld(consumer); got != 1 {
		t.Fatalf("expected at most one buffer in flight, max held = %d", got)
	}
	if s.CurrentFrameNumber(consumer) == 0 {
		t.Fatalf("expected the renderer to bind frames")
	}
	t.Logf("frames=%d bound=%d dropped=%d", frames, s.CurrentFrameNumber(consumer), dropped.Load())
}

func TestFrameDropper_IdleTicksAreSilent(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.s.StartFrameDropper()
	h.s.StartFrameDropper()
	if h.dropper.Starts() != 1 {
		t.Fatalf("expected StartFrameDropper to be idempotent, starts=%d", h.dropper.Starts())
	}

	h.dropper.Advance(DefaultFrameDropInterval)
	if h.count(FrameDropped) != 0 {
		t.Fatalf("expected no frame dropped notifications")
	}
	if h.dropper.IsRunning() {
		t.Fatalf("expected idle dropper to stop itself")
	}
}

func TestFrameDropper_SuspendHoldsRestarts(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.s.StopFrameDropper()

	h.post(2)
	h.loop.Drain()
	h.s.UpdateTexture(consumer)
	h.loop.Drain()
	if h.dropper.IsRunning() {
		t.Fatalf("expected suspended dropper to stay stopped")
	}

	h.s.StartFrameDropper()
	if !h.dropper.IsRunning() {
		t.Fatalf("expected dropper to run after StartFrameDropper")
	}
}

func TestClose_EscalatesAfterTimeout(t *testing.T) {
	h := newHarness(t)

	h.s.Close()
	h.s.Close()
	if h.count(CloseRequested) != 1 || h.ps.CloseRequests() != 1 {
		t.Fatalf("expected a single close request, emitted=%d requested=%d", h.count(CloseRequested), h.ps.CloseRequests())
	}
	if h.s.ClosingState() != Closing {
		t.Fatalf("expected closing state, got %v", h.s.ClosingState())
	}
	if h.closer.Interval() != DefaultCloseTimeout || !h.closer.IsSingleShot() {
		t.Fatalf("unexpected close timer setup: %v single=%v", h.closer.Interval(), h.closer.IsSingleShot())
	}

	h.closer.Advance(2999 * time.Millisecond)
	if len(h.ctl.ForceCloses()) != 0 {
		t.Fatalf("forced close before timeout")
	}
	h.closer.Advance(time.Millisecond)
	if h.s.ClosingState() != CloseOverdue {
		t.Fatalf("expected close overdue, got %v", h.s.ClosingState())
	}
	if got := h.ctl.ForceCloses(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected one forced close of window 7, got %v", got)
	}

	h.closer.Advance(10 * time.Second)
	h.s.Close()
	if len(h.ctl.ForceCloses()) != 1 || h.count(CloseRequested) != 1 {
		t.Fatalf("expected escalation to happen exactly once")
	}
}

func TestSetCloseTimer_PreservesRunningCountdown(t *testing.T) {
	h := newHarness(t)
	h.s.Close()

	replacement := timer.NewFake()
	h.s.SetCloseTimer(replacement)
	if h.closer.IsRunning() {
		t.Fatalf("expected old timer to be stopped")
	}
	if !replacement.IsRunning() {
		t.Fatalf("expected countdown to carry over")
	}

	h.closer.Fire()
	if len(h.ctl.ForceCloses()) != 0 {
		t.Fatalf("old timer must be disconnected")
	}
	replacement.Fire()
	if h.s.ClosingState() != CloseOverdue {
		t.Fatalf("expected replacement timer to escalate")
	}
}

func TestFocus_DedupAndFirstUnfocus(t *testing.T) {
	h := newHarness(t)

	h.s.SetViewActiveFocus(1, false)
	h.s.SetViewActiveFocus(1, false)
	if got := h.ctl.Attribs(scene.AttribFocus); len(got) != 1 || got[0].Value != scene.Unfocused {
		t.Fatalf("expected the first unfocus to be pushed once, got %v", got)
	}

	h.s.SetViewActiveFocus(1, true)
	h.s.SetViewActiveFocus(1, true)
	got := h.ctl.Attribs(scene.AttribFocus)
	if len(got) != 2 || got[1].Value != scene.Focused || got[1].Window != 7 {
		t.Fatalf("expected a single focus push, got %v", got)
	}

	h.s.SetViewActiveFocus(2, true)
	h.s.SetViewActiveFocus(1, false)
	got = h.ctl.Attribs(scene.AttribFocus)
	if got[len(got)-1].Value != scene.Focused {
		t.Fatalf("expected surface to stay focused while view 2 is active")
	}
}

func TestFocus_SuppressedByChildSession(t *testing.T) {
	h := newHarness(t)
	h.sess.AddChildSession(session.New("org.example.prompt", 99))

	h.s.SetViewActiveFocus(1, true)
	if got := h.ctl.Attribs(scene.AttribFocus); len(got) != 0 {
		t.Fatalf("expected no focus change with a trusted child session, got %v", got)
	}
}

func TestFocus_IgnoredWithoutSession(t *testing.T) {
	h := newHarness(t, withoutSession)
	h.s.SetViewActiveFocus(1, true)
	if len(h.ctl.Attribs()) != 0 {
		t.Fatalf("expected no controller calls without a session")
	}
	if h.s.AppID() != "-" {
		t.Fatalf("expected placeholder app id, got %q", h.s.AppID())
	}
}

func TestSetFocused_EmitsOnChange(t *testing.T) {
	h := newHarness(t)
	h.s.SetFocused(true)
	h.s.SetFocused(true)
	h.s.SetFocused(false)
	if h.count(FocusChanged) != 2 {
		t.Fatalf("expected 2 focus changes, got %d", h.count(FocusChanged))
	}
}

func TestViews_LastViewDestroysDeadSurface(t *testing.T) {
	h := newHarness(t)
	h.s.RegisterView(1)
	h.s.RegisterView(2)
	if h.count(BeingDisplayedChanged) != 1 {
		t.Fatalf("expected one displayed change, got %d", h.count(BeingDisplayedChanged))
	}

	h.s.UnregisterView(1)
	if !h.s.IsBeingDisplayed() {
		t.Fatalf("expected surface still displayed by view 2")
	}

	h.s.SetLive(false)
	h.loop.Drain()
	if h.s.Destroyed() {
		t.Fatalf("surface with a view must not be destroyed")
	}

	h.s.UnregisterView(2)
	if h.s.IsBeingDisplayed() {
		t.Fatalf("expected surface no longer displayed")
	}
	if h.s.Destroyed() {
		t.Fatalf("destruction must be deferred")
	}
	h.loop.Drain()
	if !h.s.Destroyed() || h.count(Destroyed) != 1 {
		t.Fatalf("expected surface destroyed once, destroyed=%v count=%d", h.s.Destroyed(), h.count(Destroyed))
	}
}

func TestViews_LiveSurfacePersistsWithoutViews(t *testing.T) {
	h := newHarness(t)
	h.s.RegisterView(1)
	h.s.UnregisterView(1)
	h.loop.Drain()
	if h.s.Destroyed() {
		t.Fatalf("live surface with a session must persist without views")
	}
}

func TestDestroy_RunsExactlyOnce(t *testing.T) {
	h := newHarness(t)
	tex := h.s.Texture(consumer)
	h.post(1)
	h.s.UpdateTexture(consumer)

	h.s.SetLive(false)
	h.sess.Destroy()
	h.s.SetLive(true)
	h.s.SetLive(false)
	h.loop.Drain()

	if h.count(Destroyed) != 1 {
		t.Fatalf("expected exactly one destruction, got %d", h.count(Destroyed))
	}
	if tex.Alive() {
		t.Fatalf("expected texture handle to be dead")
	}
	if h.ps.Queue.Held(consumer) != 0 {
		t.Fatalf("expected bound buffer released on destruction")
	}
	if len(h.ps.Observers()) != 0 {
		t.Fatalf("expected observer detached")
	}
	if h.s.Texture(consumer) != nil {
		t.Fatalf("expected no textures after destruction")
	}
	if h.dropper.IsRunning() || h.closer.IsRunning() {
		t.Fatalf("expected timers stopped")
	}
}

func TestSessionDestroyed(t *testing.T) {
	h := newHarness(t)
	h.s.RegisterView(1)
	h.sess.Destroy()
	h.loop.Drain()
	if h.s.Destroyed() {
		t.Fatalf("displayed surface must survive its session")
	}
	if h.s.Session() != nil {
		t.Fatalf("expected session reference cleared")
	}

	h.s.UnregisterView(1)
	h.loop.Drain()
	if !h.s.Destroyed() {
		t.Fatalf("expected surface without session or views to be destroyed")
	}
}

func TestVisibilityAggregation(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.VisibilityAggregation = true })
	h.s.RegisterView(1)
	h.s.RegisterView(2)

	h.s.SetViewVisibility(1, false)
	got := h.ps.Configures()
	if len(got) != 1 || got[0].Attrib != scene.AttribVisibility || got[0].Value != scene.Occluded {
		t.Fatalf("expected surface occluded, got %v", got)
	}

	h.s.SetViewVisibility(2, true)
	h.s.SetViewVisibility(1, true)
	got = h.ps.Configures()
	if len(got) != 2 || got[1].Value != scene.Exposed {
		t.Fatalf("expected a single exposure, got %v", got)
	}
	if !h.s.Visible() {
		t.Fatalf("expected surface visible")
	}

	h.s.SetViewVisibility(99, false)
	if len(h.ps.Configures()) != 2 {
		t.Fatalf("unknown view must be ignored")
	}
}

func TestVisibilityAggregationDisabled(t *testing.T) {
	h := newHarness(t)
	h.s.RegisterView(1)
	h.s.SetViewVisibility(1, false)
	if len(h.ps.Configures()) != 0 {
		t.Fatalf("expected no visibility push when aggregation is off")
	}
}

func TestConstraints_ChangeDetecting(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Hints = scene.CreationHints{MinWidth: 100, MaxHeight: 900, ShellChrome: scene.LowChrome}
	})
	if h.s.MinimumWidth() != 100 || h.s.MaximumHeight() != 900 || h.s.ShellChrome() != scene.LowChrome {
		t.Fatalf("expected creation hints to seed constraints")
	}

	h.s.SetMinimumWidth(100)
	h.s.SetMinimumWidth(120)
	h.s.SetWidthIncrement(8)
	h.s.SetWidthIncrement(8)
	h.s.SetShellChrome(scene.LowChrome)
	if h.count(MinimumWidthChanged) != 1 || h.count(WidthIncrementChanged) != 1 || h.count(ShellChromeChanged) != 0 {
		t.Fatalf("unexpected constraint events: %v", h.events)
	}
}

func TestSetOrientationAngle(t *testing.T) {
	h := newHarness(t)
	h.s.SetOrientationAngle(Angle90)
	h.s.SetOrientationAngle(Angle90)
	h.s.SetOrientationAngle(Angle270)

	got := h.ps.Orientations()
	if len(got) != 2 || got[0] != scene.OrientationRight || got[1] != scene.OrientationLeft {
		t.Fatalf("unexpected orientations %v", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unsupported angle")
		}
		if h.s.OrientationAngle() != Angle270 {
			t.Fatalf("unsupported angle must not change state")
		}
	}()
	h.s.SetOrientationAngle(45)
}

func TestSetKeymap(t *testing.T) {
	h := newHarness(t)
	h.s.SetKeymap("us+dvorak")
	h.s.SetKeymap("us+dvorak")
	h.s.SetKeymap("")
	h.s.SetKeymap("+")
	h.s.SetKeymap("de")

	got := h.ps.Keymaps()
	if len(got) != 2 || got[0] != [2]string{"us", "dvorak"} || got[1] != [2]string{"de", ""} {
		t.Fatalf("unexpected keymaps applied: %v", got)
	}
	if h.s.Keymap() != "de" || h.count(KeymapChanged) != 2 {
		t.Fatalf("unexpected keymap state %q changes=%d", h.s.Keymap(), h.count(KeymapChanged))
	}
}

func TestResize(t *testing.T) {
	h := newHarness(t)
	h.s.Resize(100, 50)
	h.s.Resize(200, 100)
	if got := h.ps.Resizes(); len(got) != 1 || got[0] != (scene.Size{Width: 200, Height: 100}) {
		t.Fatalf("unexpected resizes %v", got)
	}

	h.sess.SetState(session.Suspended)
	h.s.Resize(300, 100)
	if len(h.ps.Resizes()) != 1 {
		t.Fatalf("suspended client must not be resized")
	}

	noSession := newHarness(t, withoutSession)
	noSession.s.Resize(10, 10)
	if len(noSession.ps.Resizes()) != 1 {
		t.Fatalf("client without a session counts as running")
	}
}

func TestSetState_GoesThroughController(t *testing.T) {
	h := newHarness(t)
	h.s.SetState(scene.StateMaximized)
	got := h.ctl.Attribs(scene.AttribState)
	if len(got) != 1 || scene.State(got[0].Value) != scene.StateMaximized {
		t.Fatalf("unexpected state attribute writes %v", got)
	}
	if h.s.State() != scene.StateRestored {
		t.Fatalf("state must only change when the window model reports it")
	}

	h.s.UpdateState(scene.StateMaximized)
	h.s.UpdateState(scene.StateMaximized)
	if h.count(StateChanged) != 1 {
		t.Fatalf("expected one state change, got %d", h.count(StateChanged))
	}
}

func TestMetadataSetters(t *testing.T) {
	h := newHarness(t)
	h.s.SetReady()
	h.s.SetReady()
	h.s.SetPosition(scene.Point{X: 5, Y: 6})
	h.s.SetPosition(scene.Point{X: 5, Y: 6})
	h.s.RequestFocus()
	h.s.Raise()

	if h.count(ReadyChanged) != 1 || h.count(PositionChanged) != 1 {
		t.Fatalf("expected change-detecting ready/position, events=%v", h.events)
	}
	if h.count(FocusRequested) != 1 || h.count(RaiseRequested) != 1 {
		t.Fatalf("expected focus and raise requests, events=%v", h.events)
	}
	info := h.s.Describe()
	if info.ID != 7 || info.AppID != "org.example.terminal" || !info.Ready || info.X != 5 {
		t.Fatalf("unexpected description %+v", info)
	}
}

func TestMoveTo(t *testing.T) {
	h := newHarness(t)
	h.s.MoveTo(scene.Point{X: 0, Y: 0})
	h.s.MoveTo(scene.Point{X: 12, Y: 8})
	if moves := h.ps.Moves(); len(moves) != 1 || moves[0] != (scene.Point{X: 12, Y: 8}) {
		t.Fatalf("expected one move request, got %v", moves)
	}
	if h.count(PositionChanged) != 0 {
		t.Fatalf("position must follow the window model, not the request")
	}

	h.s.SetLive(false)
	h.s.MoveTo(scene.Point{X: 1, Y: 1})
	if moves := h.ps.Moves(); len(moves) != 1 {
		t.Fatalf("a dead surface must not move, got %v", moves)
	}
}

func TestUnregisterLastViewResetsTouches(t *testing.T) {
	h := newHarness(t)
	h.s.RegisterView(1)
	h.s.RegisterView(2)
	h.s.Touch(input.TouchEvent{Points: []input.TouchPoint{{ID: 3, State: input.TouchPointPressed}}})
	if h.s.translator.ActiveTouches() != 1 {
		t.Fatalf("expected one active touch")
	}

	h.s.UnregisterView(1)
	if h.s.translator.ActiveTouches() != 1 {
		t.Fatalf("touches must survive while a view remains")
	}
	h.s.UnregisterView(2)
	if h.s.translator.ActiveTouches() != 0 {
		t.Fatalf("expected touches to be forgotten with the last view")
	}
}

func TestObserverCallbacksArePosted(t *testing.T) {
	h := newHarness(t)
	obs := h.ps.Observers()
	if len(obs) != 1 {
		t.Fatalf("expected surface to observe its protocol surface")
	}

	obs[0].NameChanged("vim")
	obs[0].CursorChanged("text")
	obs[0].MinimumHeightChanged(40)
	obs[0].AttributeChanged(scene.AttribState, int(scene.StateFullscreen))
	if len(h.events) != 0 {
		t.Fatalf("observer callbacks must not emit on the windowing goroutine")
	}

	h.loop.Drain()
	if h.count(NameChanged) != 1 || h.count(CursorChanged) != 1 || h.count(MinimumHeightChanged) != 1 {
		t.Fatalf("unexpected events %v", h.events)
	}
	if h.s.Cursor() != "text" || h.s.MinimumHeight() != 40 || h.s.State() != scene.StateFullscreen {
		t.Fatalf("observer changes not applied")
	}

	h.post(2)
	h.loop.Drain()
	if h.count(FirstFrameDrawn) != 1 || h.count(FramesPosted) != 2 {
		t.Fatalf("expected first frame once and two frames posted, events=%v", h.events)
	}
}

func TestInputIsConsumedSynchronously(t *testing.T) {
	h := newHarness(t)
	h.s.MousePress(input.MouseEvent{Buttons: input.LeftButton, X: 1, Y: 2})
	h.s.KeyRelease(input.KeyEvent{NativeVirtualKey: 65})
	h.s.Touch(input.TouchEvent{Points: []input.TouchPoint{{ID: 3, State: input.TouchPointMoved}}})

	got := h.ps.Consumed()
	if len(got) != 2 {
		t.Fatalf("expected 2 consumed events, got %d", len(got))
	}
	if pe, ok := got[0].(*scene.PointerEvent); !ok || pe.Action != scene.PointerButtonDown || pe.Buttons != scene.ButtonPrimary {
		t.Fatalf("unexpected pointer event %#v", got[0])
	}
	if ke, ok := got[1].(*scene.KeyboardEvent); !ok || ke.Action != scene.KeyUp || ke.KeyCode != 65 {
		t.Fatalf("unexpected keyboard event %#v", got[1])
	}
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t)
	if _, err := h.s.Snapshot(consumer, 0); err != ErrNoBuffer {
		t.Fatalf("expected ErrNoBuffer, got %v", err)
	}

	h.s.Texture(consumer)
	h.ps.Queue.Ready(consumer)
	pix := make([]byte, 4*4*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2] = 0x10, 0x20, 0x30 // B, G, R
	}
	h.ps.Queue.Submit(scene.Frame{
		Size:   scene.Size{Width: 4, Height: 4},
		Format: scene.FormatXRGB8888,
		Stride: 16,
		Pixels: pix,
	})
	h.s.UpdateTexture(consumer)

	img, err := h.s.Snapshot(consumer, 0)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	r, g, b, a := img.At(1, 1).RGBA()
	if r>>8 != 0x30 || g>>8 != 0x20 || b>>8 != 0x10 || a>>8 != 0xff {
		t.Fatalf("unexpected pixel %x %x %x %x", r>>8, g>>8, b>>8, a>>8)
	}

	scaled, err := h.s.Snapshot(consumer, 2)
	if err != nil {
		t.Fatalf("Snapshot() scaled error = %v", err)
	}
	if got := scaled.Bounds().Dx(); got != 2 {
		t.Fatalf("expected scaled width 2, got %d", got)
	}
}

func TestSnapshotPackedARGB(t *testing.T) {
	h := newHarness(t)
	h.s.Texture(consumer)
	h.ps.Queue.Ready(consumer)
	pix := make([]byte, 3*2*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = 0x40, 0x50, 0x60, 0xff // B, G, R, A
	}
	h.ps.Queue.Submit(scene.Frame{
		Size:   scene.Size{Width: 3, Height: 2},
		Format: scene.FormatARGB8888,
		Stride: 12,
		Pixels: pix,
	})
	h.s.UpdateTexture(consumer)

	img, err := h.s.Snapshot(consumer, 0)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("unexpected bounds %v", b)
	}
	r, g, b, a := img.At(2, 1).RGBA()
	if r>>8 != 0x60 || g>>8 != 0x50 || b>>8 != 0x40 || a>>8 != 0xff {
		t.Fatalf("unexpected pixel %x %x %x %x", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestSnapshotKeepsStraightAlpha(t *testing.T) {
	want := color.NRGBA{R: 0x80, G: 0x40, B: 0x20, A: 0x80}
	tests := []struct {
		name   string
		format scene.PixelFormat
		stride int
		pixel  [4]byte
		slack  uint8
	}{
		{"abgr", scene.FormatABGR8888, 8, [4]byte{0x80, 0x40, 0x20, 0x80}, 0},
		{"argb padded", scene.FormatARGB8888, 12, [4]byte{0x20, 0x40, 0x80, 0x80}, 0},
		{"argb packed", scene.FormatARGB8888, 8, [4]byte{0x20, 0x40, 0x80, 0x80}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.s.Texture(consumer)
			h.ps.Queue.Ready(consumer)
			pix := make([]byte, tt.stride*2)
			for y := 0; y < 2; y++ {
				for x := 0; x < 2; x++ {
					copy(pix[y*tt.stride+x*4:], tt.pixel[:])
				}
			}
			h.ps.Queue.Submit(scene.Frame{
				Size:   scene.Size{Width: 2, Height: 2},
				Format: tt.format,
				Stride: tt.stride,
				Pixels: pix,
			})
			h.s.UpdateTexture(consumer)

			img, err := h.s.Snapshot(consumer, 0)
			if err != nil {
				t.Fatalf("Snapshot() error = %v", err)
			}
			got := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA)
			near := func(a, b uint8) bool {
				d := int(a) - int(b)
				return d >= -int(tt.slack) && d <= int(tt.slack)
			}
			if got.A != want.A || !near(got.R, want.R) || !near(got.G, want.G) || !near(got.B, want.B) {
				t.Fatalf("pixel = %#v, want %#v", got, want)
			}
		})
	}
}

func TestChildList(t *testing.T) {
	parent := newHarness(t)
	child := newHarness(t, func(o *Options) { o.Parent = parent.s })
	parent.s.Children().Prepend(child.s)
	parent.s.Children().Prepend(child.s)
	if parent.s.Children().Len() != 1 || child.s.Parent() != parent.s {
		t.Fatalf("unexpected child list")
	}

	child.s.SetLive(false)
	child.loop.Drain()
	if parent.s.Children().Len() != 0 {
		t.Fatalf("expected destroyed child to leave its parent's list")
	}
}
