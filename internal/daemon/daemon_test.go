package daemon

import (
	"errors"
	"testing"

	"github.com/1broseidon/surfaced/internal/loop"
	"github.com/1broseidon/surfaced/internal/registry"
	"github.com/1broseidon/surfaced/internal/scene"
	"github.com/1broseidon/surfaced/internal/scene/scenetest"
	"github.com/1broseidon/surfaced/internal/session"
	"github.com/1broseidon/surfaced/internal/surface"
	"github.com/1broseidon/surfaced/internal/timer"
)

type fixture struct {
	loop     *loop.Manual
	ctl      *scenetest.Controller
	sessions *session.Manager
	reg      *registry.Registry
	comp     *Compositor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		loop:     loop.NewManual(),
		ctl:      scenetest.NewController(),
		sessions: session.NewManager(),
	}
	f.reg = registry.New(f.ctl, f.loop, registry.Options{
		Sessions: f.sessions,
		NewTimer: func() timer.Timer { return timer.NewFake() },
	})
	f.comp = NewCompositor(f.reg, nil)
	f.comp.Attach()
	return f
}

func (f *fixture) add(t *testing.T, id scene.WindowID, app string, pid int) (*scenetest.Surface, *surface.Surface) {
	t.Helper()
	ps := scenetest.NewSurface("w", scene.Size{Width: 4, Height: 4})
	if app != "" {
		f.sessions.Ensure(app, pid)
	}
	f.reg.Notify(scene.Added(scene.NewWindow{
		Window: scene.Window{ID: id, Surface: ps},
		App:    app,
		PID:    pid,
	}))
	f.loop.Drain()
	s := f.reg.Find(id)
	if s == nil {
		t.Fatalf("no surface for window %d", id)
	}
	return ps, s
}

func TestCompositor_ShowsNewSurfaces(t *testing.T) {
	f := newFixture(t)
	_, s := f.add(t, 1, "", 0)

	if !f.comp.Showing(s) {
		t.Fatalf("expected the compositor to show the new surface")
	}
	if s.ViewCount() != 1 || !s.IsBeingDisplayed() {
		t.Fatalf("expected one view, got %d", s.ViewCount())
	}
	if s.WeakTexture(CompositorConsumer) == nil {
		t.Fatalf("expected a texture for the compositor consumer")
	}
}

func TestCompositor_BindsPostedFrames(t *testing.T) {
	f := newFixture(t)
	ps, s := f.add(t, 1, "", 0)

	if _, err := s.Snapshot(CompositorConsumer, 0); !errors.Is(err, surface.ErrNoBuffer) {
		t.Fatalf("expected ErrNoBuffer before any frame, got %v", err)
	}

	ps.Post(scene.Size{Width: 6, Height: 3})
	f.loop.Drain()

	if f.comp.Frames() != 1 {
		t.Fatalf("expected one bound frame, got %d", f.comp.Frames())
	}
	if !s.IsFirstFrameDrawn() {
		t.Fatalf("expected first frame drawn")
	}
	img, err := s.Snapshot(CompositorConsumer, 0)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 3 {
		t.Fatalf("unexpected snapshot bounds %v", b)
	}
}

func TestCompositor_BatchesDuringModifications(t *testing.T) {
	f := newFixture(t)
	ps, _ := f.add(t, 1, "", 0)

	f.reg.Notify(scene.Notification{Kind: scene.ModificationsStarted})
	f.loop.Drain()
	ps.Post(scene.Size{Width: 4, Height: 4})
	f.loop.Drain()
	if f.comp.Frames() != 0 {
		t.Fatalf("frames must wait for the batch to end, got %d", f.comp.Frames())
	}

	f.reg.Notify(scene.Notification{Kind: scene.ModificationsEnded})
	f.loop.Drain()
	if f.comp.Frames() != 1 {
		t.Fatalf("expected the deferred frame to bind, got %d", f.comp.Frames())
	}
}

func TestCompositor_RemovedWindowIsDestroyed(t *testing.T) {
	f := newFixture(t)
	ps, s := f.add(t, 1, "app", 10)

	f.reg.Notify(scene.Removed(scene.Window{ID: 1, Surface: ps}))
	f.loop.Drain()

	if f.comp.Showing(s) {
		t.Fatalf("a dead surface must leave the view")
	}
	if !s.Destroyed() {
		t.Fatalf("expected the surface to be destroyed once its last view went away")
	}
	if f.reg.Len() != 0 {
		t.Fatalf("expected the registry to forget the surface")
	}
}

func TestCompositor_ForwardsFocusAndRaiseRequests(t *testing.T) {
	f := newFixture(t)
	ps, s := f.add(t, 5, "", 0)

	f.reg.Notify(scene.RequestedRaise(scene.Window{ID: 5, Surface: ps}))
	f.loop.Drain()
	if got := f.ctl.Activates(); len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected focus request to activate window 5, got %v", got)
	}

	s.Raise()
	if got := f.ctl.Raises(); len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected raise request to reach the controller, got %v", got)
	}
}

func TestCompositor_Detach(t *testing.T) {
	f := newFixture(t)
	ps, s := f.add(t, 1, "app", 10)

	f.comp.Detach()
	if f.comp.Showing(s) || s.ViewCount() != 0 {
		t.Fatalf("expected Detach to hide every surface")
	}
	if s.WeakTexture(CompositorConsumer) != nil {
		t.Fatalf("expected the compositor texture to be released")
	}
	if ps.Queue.Tracks(CompositorConsumer) {
		t.Fatalf("expected the protocol queue to forget the compositor")
	}

	f.add(t, 2, "", 0)
	if f.comp.Showing(f.reg.Find(2)) {
		t.Fatalf("a detached compositor must ignore new surfaces")
	}
}

func TestReconciler_ResyncAndPrune(t *testing.T) {
	f := newFixture(t)
	f.add(t, 1, "dead.app", 100)
	f.add(t, 2, "live.app", 200)

	resyncs := 0
	r := NewReconciler(ReconcilerConfig{PruneSessions: true},
		func() (int, error) {
			resyncs++
			return 0, nil
		},
		f.sessions,
		func(pid int) bool { return pid == 200 },
	)
	r.ReconcileNow()
	f.loop.Drain()

	if resyncs != 1 {
		t.Fatalf("expected one resync, got %d", resyncs)
	}
	if f.sessions.Find("dead.app", 100) != nil {
		t.Fatalf("expected the dead session to be removed")
	}
	if f.sessions.Find("live.app", 200) == nil {
		t.Fatalf("expected the live session to stay")
	}
	// The compositor still shows the surface, so it outlives its session.
	if s := f.reg.Find(1); s == nil || s.Session() != nil {
		t.Fatalf("expected window 1 to survive without a session")
	}
}

func TestReconciler_PrunesOnlyTheExitedProcess(t *testing.T) {
	f := newFixture(t)
	_, first := f.add(t, 1, "xterm", 100)
	_, second := f.add(t, 2, "xterm", 200)
	if first.Session() == second.Session() {
		t.Fatalf("windows of different processes must not share a session")
	}

	r := NewReconciler(ReconcilerConfig{PruneSessions: true}, nil, f.sessions,
		func(pid int) bool { return pid == 200 })
	r.ReconcileNow()
	f.loop.Drain()

	if first.Session() != nil {
		t.Fatalf("expected window 1 to lose the session of the exited process")
	}
	sess, _ := second.Session().(*session.Session)
	if sess == nil || sess.PID() != 200 {
		t.Fatalf("expected window 2 to keep the session of live pid 200, got %v", sess)
	}
	if second.Destroyed() || f.reg.Find(2) == nil {
		t.Fatalf("window 2 must survive while its process runs")
	}
}

func TestReconciler_RecoversFromPanic(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{}, func() (int, error) {
		panic("boom")
	}, nil, nil)
	r.ReconcileNow()
}

func TestReconciler_ResyncErrorStillPrunes(t *testing.T) {
	sessions := session.NewManager()
	sessions.Ensure("gone", 7)
	r := NewReconciler(ReconcilerConfig{PruneSessions: true},
		func() (int, error) { return 0, errors.New("no client list") },
		sessions,
		func(int) bool { return false },
	)
	r.ReconcileNow()
	if len(sessions.List()) != 0 {
		t.Fatalf("expected the session to be pruned")
	}
}

func TestProcessAlive(t *testing.T) {
	if processAlive(0) || processAlive(-1) {
		t.Fatalf("non-positive pids are never alive")
	}
	if !processAlive(1) {
		t.Fatalf("pid 1 should always exist")
	}
}

func TestActions(t *testing.T) {
	f := newFixture(t)
	ps1, s1 := f.add(t, 1, "", 0)
	f.add(t, 2, "", 0)
	actions := Actions(f.reg, f.loop, nil)

	actions.CloseActive()
	f.loop.Drain()
	if ps1.CloseRequests() != 0 {
		t.Fatalf("nothing is focused, close must do nothing")
	}

	s1.SetFocused(true)
	actions.CloseActive()
	f.loop.Drain()
	if ps1.CloseRequests() != 1 || s1.ClosingState() != surface.Closing {
		t.Fatalf("expected the focused surface to start closing")
	}

	actions.RaiseAll()
	f.loop.Drain()
	if got := f.ctl.Raises(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected both windows raised in order, got %v", got)
	}

	actions.ToggleFrameDropper()
	f.loop.Drain()
	if !f.reg.FrameDroppersSuspended() {
		t.Fatalf("expected frame droppers suspended")
	}
	actions.ToggleFrameDropper()
	f.loop.Drain()
	if f.reg.FrameDroppersSuspended() {
		t.Fatalf("expected frame droppers resumed")
	}
}
