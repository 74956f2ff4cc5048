// Package surface implements the compositor-side state machine for one
// client window: buffer delivery into per-consumer textures, the frame
// dropper, the close handshake, focus arbitration, view tracking and the
// presentation metadata the shell exposes.
//
// A Surface is owned by a single loop goroutine. Everything except the
// texture methods must be called on that goroutine; the texture methods
// are safe from the render goroutine and are serialized by a per-surface
// mutex.
package surface

import (
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/surfaced/internal/input"
	"github.com/1broseidon/surfaced/internal/loop"
	"github.com/1broseidon/surfaced/internal/notify"
	"github.com/1broseidon/surfaced/internal/scene"
	"github.com/1broseidon/surfaced/internal/session"
	"github.com/1broseidon/surfaced/internal/timer"
)

const (
	DefaultFrameDropInterval = 200 * time.Millisecond
	DefaultCloseTimeout      = 3000 * time.Millisecond
)

// Session is the part of a client session a surface depends on.
type Session interface {
	AppID() string
	State() session.State
	ChildSessionCount() int
	OnDestroyed(fn func()) (disconnect func())
	RegisterSurface(s session.Surface)
	UnregisterSurface(s session.Surface)
}

// ClosingState tracks the cooperative close handshake.
type ClosingState int

const (
	NotClosing ClosingState = iota
	Closing
	CloseOverdue
)

func (c ClosingState) String() string {
	switch c {
	case NotClosing:
		return "not-closing"
	case Closing:
		return "closing"
	case CloseOverdue:
		return "close-overdue"
	default:
		return "unknown"
	}
}

// ViewID identifies a view currently rendering a surface.
type ViewID uintptr

type viewState struct {
	visible bool
}

// Options configures a new Surface. Zero values select the defaults.
type Options struct {
	// Session may be nil for windows without a known owner.
	Session Session
	Parent  *Surface
	Hints   scene.CreationHints

	FrameDropInterval time.Duration
	CloseTimeout      time.Duration
	// FrameDropper and CloseTimer replace the real timers.
	FrameDropper timer.Timer
	CloseTimer   timer.Timer

	// VisibilityAggregation pushes the union of view visibility down to
	// the protocol surface.
	VisibilityAggregation bool
	// FrameDropperSuspended starts the surface with frame dropping held.
	FrameDropperSuspended bool

	Translator *input.Translator
	Logger     *slog.Logger
}

// Surface wraps one protocol window.
type Surface struct {
	window     scene.Window
	controller scene.Controller
	poster     loop.Poster
	logger     *slog.Logger
	translator *input.Translator
	observer   *observer

	parent   *Surface
	children *ChildList

	// Changed carries every notification this surface emits.
	Changed notify.Signal[Event]

	// Owned by the loop goroutine.
	session               Session
	disconnectSession     func()
	live                  bool
	closing               ClosingState
	views                 map[ViewID]*viewState
	activeFocusViews      map[ViewID]struct{}
	neverSetSurfaceFocus  bool
	focused               bool
	ready                 bool
	firstFrameDrawn       bool
	state                 scene.State
	position              scene.Point
	orientation           OrientationAngle
	shellChrome           scene.ShellChrome
	cursor                scene.CursorShape
	keymap                string
	minWidth, minHeight   int
	maxWidth, maxHeight   int
	widthInc, heightInc   int
	visibilityAggregation bool
	frameDropper          timer.Timer
	dropperSuspended      bool
	closeTimer            timer.Timer
	closeTimeout          time.Duration
	destroyScheduled      bool
	destroyed             bool

	// Guarded by mu; touched by the render goroutine.
	mu       sync.Mutex
	textures map[scene.ConsumerID]*compositorTexture
	size     scene.Size
	released bool
}

// New wraps w. The surface starts live with no views. poster must run
// tasks on the goroutine that owns the surface.
func New(w scene.Window, controller scene.Controller, poster loop.Poster, opts Options) *Surface {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	translator := opts.Translator
	if translator == nil {
		translator = input.NewTranslator(nil, logger)
	}

	s := &Surface{
		window:                w,
		controller:            controller,
		poster:                poster,
		translator:            translator,
		parent:                opts.Parent,
		children:              &ChildList{},
		session:               opts.Session,
		live:                  true,
		views:                 make(map[ViewID]*viewState),
		activeFocusViews:      make(map[ViewID]struct{}),
		neverSetSurfaceFocus:  true,
		state:                 w.Surface.State(),
		position:              w.Surface.TopLeft(),
		shellChrome:           opts.Hints.ShellChrome,
		cursor:                scene.CursorDefault,
		minWidth:              opts.Hints.MinWidth,
		minHeight:             opts.Hints.MinHeight,
		maxWidth:              opts.Hints.MaxWidth,
		maxHeight:             opts.Hints.MaxHeight,
		widthInc:              opts.Hints.WidthIncrement,
		heightInc:             opts.Hints.HeightIncrement,
		visibilityAggregation: opts.VisibilityAggregation,
		dropperSuspended:      opts.FrameDropperSuspended,
		textures:              make(map[scene.ConsumerID]*compositorTexture),
		size:                  w.Surface.Size(),
	}
	s.logger = logger.With("component", "surface", "surface", uint64(w.ID), "app_id", s.AppID())

	interval := opts.FrameDropInterval
	if interval <= 0 {
		interval = DefaultFrameDropInterval
	}
	s.frameDropper = opts.FrameDropper
	if s.frameDropper == nil {
		s.frameDropper = timer.New(poster.Post)
	}
	s.frameDropper.SetInterval(interval)
	s.frameDropper.SetSingleShot(false)
	s.frameDropper.OnTimeout(s.dropPendingBuffers)

	s.closeTimeout = opts.CloseTimeout
	if s.closeTimeout <= 0 {
		s.closeTimeout = DefaultCloseTimeout
	}
	closeTimer := opts.CloseTimer
	if closeTimer == nil {
		closeTimer = timer.New(poster.Post)
	}
	s.SetCloseTimer(closeTimer)

	if s.session != nil {
		s.disconnectSession = s.session.OnDestroyed(func() {
			s.poster.Post(s.onSessionDestroyed)
		})
	}

	s.observer = &observer{s: s}
	w.Surface.AddObserver(s.observer)

	s.logger.Debug("surface created", "hints", opts.Hints.String())
	return s
}

// Window returns the wrapped protocol window.
func (s *Surface) Window() scene.Window { return s.window }

// ID implements session.Surface.
func (s *Surface) ID() uint64 { return uint64(s.window.ID) }

func (s *Surface) Name() string { return s.window.Surface.Name() }

func (s *Surface) Type() scene.Type { return s.window.Surface.Type() }

// AppID returns the owning session's application id, or "-".
func (s *Surface) AppID() string {
	if s.session == nil || s.session.AppID() == "" {
		return "-"
	}
	return s.session.AppID()
}

// Session returns the owning session, or nil once it is gone.
func (s *Surface) Session() Session { return s.session }

func (s *Surface) Parent() *Surface { return s.parent }

// Children lists child surfaces, newest first.
func (s *Surface) Children() *ChildList { return s.children }

func (s *Surface) Live() bool { return s.live }

func (s *Surface) ClosingState() ClosingState { return s.closing }

func (s *Surface) Focused() bool { return s.focused }

func (s *Surface) IsReady() bool { return s.ready }

func (s *Surface) IsFirstFrameDrawn() bool { return s.firstFrameDrawn }

func (s *Surface) State() scene.State { return s.state }

func (s *Surface) Position() scene.Point { return s.position }

// Destroyed reports whether teardown has run.
func (s *Surface) Destroyed() bool { return s.destroyed }

// Size is the size of the most recently bound buffer, or the protocol size
// before any frame arrived.
func (s *Surface) Size() scene.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Visible reports the protocol-side visibility attribute.
func (s *Surface) Visible() bool {
	return s.window.Surface.Query(scene.AttribVisibility) == scene.Exposed
}

// SetLive records whether the protocol window still exists. A dead surface
// without views is destroyed.
func (s *Surface) SetLive(live bool) {
	if live == s.live {
		return
	}
	s.logger.Debug("live changed", "live", live)
	s.live = live
	s.emit(LiveChanged)
	if len(s.views) == 0 && !s.live {
		s.scheduleDestroy()
	}
}

func (s *Surface) onSessionDestroyed() {
	if s.destroyed {
		return
	}
	s.logger.Debug("session destroyed", "views", len(s.views))
	s.session = nil
	if s.disconnectSession != nil {
		s.disconnectSession()
		s.disconnectSession = nil
	}
	if len(s.views) == 0 {
		s.scheduleDestroy()
	}
}

// scheduleDestroy queues teardown for a later turn of the loop. Handlers
// running now never see a half-destroyed surface.
func (s *Surface) scheduleDestroy() {
	if s.destroyScheduled {
		return
	}
	s.destroyScheduled = true
	s.poster.Post(s.destroy)
}

func (s *Surface) destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.logger.Debug("destroying surface", "views", len(s.views))

	s.window.Surface.RemoveObserver(s.observer)
	s.frameDropper.Stop()
	s.closeTimer.Stop()
	if s.disconnectSession != nil {
		s.disconnectSession()
		s.disconnectSession = nil
	}
	if s.session != nil {
		s.session.UnregisterSurface(s)
	}

	s.mu.Lock()
	for consumer, ct := range s.textures {
		ct.texture.freeBufferLocked()
		ct.texture.alive = false
		delete(s.textures, consumer)
	}
	s.released = true
	s.mu.Unlock()

	if s.parent != nil {
		s.parent.children.Remove(s)
	}

	s.emit(Destroyed)
}

// emit must not be called with mu held.
func (s *Surface) emit(c Change) {
	s.Changed.Emit(Event{Surface: s, Change: c})
}

// postAlive runs fn on the loop unless the surface has been destroyed by
// then.
func (s *Surface) postAlive(fn func()) {
	s.poster.Post(func() {
		if s.destroyed {
			return
		}
		fn()
	})
}

func (s *Surface) clientIsRunning() bool {
	if s.session == nil {
		return true
	}
	switch s.session.State() {
	case session.Running, session.Starting, session.Suspending:
		return true
	default:
		return false
	}
}
