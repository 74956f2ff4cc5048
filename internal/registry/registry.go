// Package registry keeps the authoritative map from protocol windows to
// surfaces and turns window-model notifications into surface changes.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/surfaced/internal/input"
	"github.com/1broseidon/surfaced/internal/loop"
	"github.com/1broseidon/surfaced/internal/notify"
	"github.com/1broseidon/surfaced/internal/scene"
	"github.com/1broseidon/surfaced/internal/session"
	"github.com/1broseidon/surfaced/internal/surface"
	"github.com/1broseidon/surfaced/internal/timer"
)

// ErrSurfaceNotFound is returned when a window id has no surface.
var ErrSurfaceNotFound = errors.New("surface not found")

// Options configures a Registry and the surfaces it creates.
type Options struct {
	// Sessions resolves a new window's owner by application id. Nil means
	// every surface is created without a session.
	Sessions *session.Manager
	// InitialSizes holds sizes waiting for a process's first window.
	InitialSizes *session.InitialSizes

	FrameDropInterval     time.Duration
	CloseTimeout          time.Duration
	VisibilityAggregation bool
	// NewTimer replaces the real timers handed to surfaces.
	NewTimer func() timer.Timer

	Logger *slog.Logger
}

// Registry owns every Surface. All methods except Notify must run on the
// loop goroutine.
type Registry struct {
	controller   scene.Controller
	poster       loop.Poster
	sessions     *session.Manager
	initialSizes *session.InitialSizes
	opts         Options
	timestamps   *input.Timestamps
	logger       *slog.Logger

	surfaces          []*surface.Surface
	droppersSuspended bool

	SurfaceCreated       notify.Signal[*surface.Surface]
	SurfacesRaised       notify.Signal[[]*surface.Surface]
	ModificationsStarted notify.Signal[struct{}]
	ModificationsEnded   notify.Signal[struct{}]
}

var _ scene.Sink = (*Registry)(nil)

func New(controller scene.Controller, poster loop.Poster, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	initialSizes := opts.InitialSizes
	if initialSizes == nil {
		initialSizes = session.NewInitialSizes()
	}
	return &Registry{
		controller:   controller,
		poster:       poster,
		sessions:     opts.Sessions,
		initialSizes: initialSizes,
		opts:         opts,
		timestamps:   input.NewTimestamps(0),
		logger:       logger.With("component", "registry"),
	}
}

// InitialSizes returns the shared pending-size table.
func (r *Registry) InitialSizes() *session.InitialSizes {
	return r.initialSizes
}

// Notify queues n for handling on the loop. It is safe to call from any
// goroutine and never blocks on surface work.
func (r *Registry) Notify(n scene.Notification) {
	r.poster.Post(func() { r.handle(n) })
}

func (r *Registry) handle(n scene.Notification) {
	switch n.Kind {
	case scene.WindowAdded:
		r.onWindowAdded(n.New)
	case scene.WindowRemoved:
		r.onWindowRemoved(n.Window)
	case scene.WindowReady:
		if s := r.lookup(n); s != nil {
			s.SetReady()
		}
	case scene.WindowMoved:
		if s := r.lookup(n); s != nil {
			s.SetPosition(n.TopLeft)
		}
	case scene.WindowStateChanged:
		if s := r.lookup(n); s != nil {
			s.UpdateState(n.State)
		}
	case scene.WindowFocusChanged:
		if s := r.lookup(n); s != nil {
			s.SetFocused(n.Focused)
		}
	case scene.WindowsRaised:
		r.onWindowsRaised(n.Windows)
	case scene.WindowRequestedRaise:
		if s := r.lookup(n); s != nil {
			s.RequestFocus()
		}
	case scene.ModificationsStarted:
		r.ModificationsStarted.Emit(struct{}{})
	case scene.ModificationsEnded:
		r.ModificationsEnded.Emit(struct{}{})
	default:
		r.logger.Warn("unknown notification", "kind", n.Kind.String())
	}
}

func (r *Registry) lookup(n scene.Notification) *surface.Surface {
	s := r.Find(n.Window.ID)
	if s == nil {
		r.logger.Debug("no surface for notification", "kind", n.Kind.String(), "window", uint64(n.Window.ID))
	}
	return s
}

func (r *Registry) onWindowAdded(nw scene.NewWindow) {
	w := nw.Window
	if !w.Valid() {
		r.logger.Warn("ignoring invalid window", "window", uint64(w.ID))
		return
	}
	if r.Find(w.ID) != nil {
		r.logger.Warn("window already has a surface", "window", uint64(w.ID))
		return
	}

	var sess *session.Session
	if r.sessions != nil && nw.App != "" {
		sess = r.sessions.Find(nw.App, nw.PID)
	}
	if sess == nil {
		r.logger.Debug("no session for window", "window", uint64(w.ID), "app", nw.App, "pid", nw.PID)
	}

	var parent *surface.Surface
	if nw.Parent != 0 {
		parent = r.Find(nw.Parent)
		if parent == nil {
			r.logger.Debug("parent surface not found", "window", uint64(w.ID), "parent", uint64(nw.Parent))
		}
	}

	opts := surface.Options{
		Parent:                parent,
		Hints:                 nw.Hints,
		FrameDropInterval:     r.opts.FrameDropInterval,
		CloseTimeout:          r.opts.CloseTimeout,
		VisibilityAggregation: r.opts.VisibilityAggregation,
		FrameDropperSuspended: r.droppersSuspended,
		Translator:            input.NewTranslator(r.timestamps, r.opts.Logger),
		Logger:                r.opts.Logger,
	}
	if sess != nil {
		opts.Session = sess
	}
	if r.opts.NewTimer != nil {
		opts.FrameDropper = r.opts.NewTimer()
		opts.CloseTimer = r.opts.NewTimer()
	}

	s := surface.New(w, r.controller, r.poster, opts)
	r.surfaces = append(r.surfaces, s)
	s.Changed.Connect(func(e surface.Event) {
		if e.Change == surface.Destroyed {
			r.forget(e.Surface)
		}
	})

	if parent != nil {
		parent.Children().Prepend(s)
	}
	if sess != nil {
		sess.RegisterSurface(s)
	}
	if nw.Parent == 0 && nw.PID > 0 {
		if size, ok := r.initialSizes.Take(nw.PID); ok {
			r.logger.Debug("applying initial size", "window", uint64(w.ID), "pid", nw.PID, "size", size.String())
			s.Resize(size.Width, size.Height)
		}
	}

	r.logger.Debug("surface created",
		"window", uint64(w.ID),
		"type", w.Surface.Type().String(),
		"state", w.Surface.State().String(),
		"parent", uint64(nw.Parent))
	r.SurfaceCreated.Emit(s)
}

// onWindowRemoved unmaps the surface before marking it dead, so nothing
// reacting to the liveness change can find it through the registry.
func (r *Registry) onWindowRemoved(w scene.Window) {
	s := r.Find(w.ID)
	if s == nil {
		r.logger.Warn("removed window has no surface", "window", uint64(w.ID))
		return
	}
	r.forget(s)
	s.SetLive(false)
}

func (r *Registry) onWindowsRaised(windows []scene.Window) {
	r.logger.Debug("windows raised", "count", len(windows))
	raised := make([]*surface.Surface, 0, len(windows))
	for _, w := range windows {
		s := r.Find(w.ID)
		if s == nil {
			r.logger.Warn("could not find surface for raised window", "window", uint64(w.ID))
			continue
		}
		raised = append(raised, s)
	}
	r.SurfacesRaised.Emit(raised)
}

func (r *Registry) forget(s *surface.Surface) {
	for i, existing := range r.surfaces {
		if existing == s {
			r.surfaces = append(r.surfaces[:i], r.surfaces[i+1:]...)
			return
		}
	}
}

// Find returns the surface for id, or nil.
func (r *Registry) Find(id scene.WindowID) *surface.Surface {
	for _, s := range r.surfaces {
		if s.Window().ID == id {
			return s
		}
	}
	return nil
}

// FindSurface returns the surface wrapping ps, or nil.
func (r *Registry) FindSurface(ps scene.Surface) *surface.Surface {
	for _, s := range r.surfaces {
		if s.Window().Surface == ps {
			return s
		}
	}
	return nil
}

// Get is Find with an error for callers that report failures.
func (r *Registry) Get(id scene.WindowID) (*surface.Surface, error) {
	s := r.Find(id)
	if s == nil {
		return nil, fmt.Errorf("window %d: %w", uint64(id), ErrSurfaceNotFound)
	}
	return s, nil
}

// Surfaces returns every mapped surface in creation order.
func (r *Registry) Surfaces() []*surface.Surface {
	return append([]*surface.Surface(nil), r.surfaces...)
}

func (r *Registry) Len() int { return len(r.surfaces) }

// Raise asks the window controller to raise s.
func (r *Registry) Raise(s *surface.Surface) error {
	r.logger.Debug("raise", "window", s.ID())
	return r.controller.Raise(s.Window())
}

// Activate focuses s through the window controller; nil clears activation.
func (r *Registry) Activate(s *surface.Surface) error {
	if s == nil {
		return r.controller.Activate(scene.Window{})
	}
	return r.controller.Activate(s.Window())
}

// StartFrameDroppers resumes frame dropping on every surface.
func (r *Registry) StartFrameDroppers() {
	r.droppersSuspended = false
	for _, s := range r.surfaces {
		s.StartFrameDropper()
	}
}

// StopFrameDroppers suspends frame dropping on every surface, including
// ones created until StartFrameDroppers is called.
func (r *Registry) StopFrameDroppers() {
	r.droppersSuspended = true
	for _, s := range r.surfaces {
		s.StopFrameDropper()
	}
}

// FrameDroppersSuspended reports whether frame dropping is held.
func (r *Registry) FrameDroppersSuspended() bool {
	return r.droppersSuspended
}
