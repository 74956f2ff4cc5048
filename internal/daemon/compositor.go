package daemon

import (
	"log/slog"

	"github.com/1broseidon/surfaced/internal/registry"
	"github.com/1broseidon/surfaced/internal/scene"
	"github.com/1broseidon/surfaced/internal/surface"
)

const (
	// CompositorConsumer is the consumer id the headless compositor binds
	// buffers under. Snapshots of what the daemon shows use it.
	CompositorConsumer scene.ConsumerID = 1
	compositorView     surface.ViewID   = 1
)

// Compositor is a headless renderer. It shows every surface in a single
// view and binds each newly posted frame, which keeps client buffers
// flowing and gives snapshots something to read. All methods run on the
// loop goroutine.
type Compositor struct {
	reg    *registry.Registry
	logger *slog.Logger

	tracked  map[*surface.Surface]func()
	batching bool
	dirty    map[*surface.Surface]struct{}
	frames   uint64

	disconnects []func()
}

func NewCompositor(reg *registry.Registry, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{
		reg:     reg,
		logger:  logger.With("component", "compositor"),
		tracked: make(map[*surface.Surface]func()),
		dirty:   make(map[*surface.Surface]struct{}),
	}
}

// Attach starts following the registry.
func (c *Compositor) Attach() {
	c.disconnects = append(c.disconnects,
		c.reg.SurfaceCreated.Connect(c.show),
		c.reg.SurfacesRaised.Connect(func(raised []*surface.Surface) {
			c.logger.Debug("surfaces raised", "count", len(raised))
		}),
		c.reg.ModificationsStarted.Connect(func(struct{}) { c.batching = true }),
		c.reg.ModificationsEnded.Connect(func(struct{}) { c.flush() }),
	)
}

// Detach stops following the registry and hides every surface.
func (c *Compositor) Detach() {
	for _, disconnect := range c.disconnects {
		disconnect()
	}
	c.disconnects = nil
	for s := range c.tracked {
		c.hide(s)
	}
}

// Frames reports how many frames have been bound since Attach.
func (c *Compositor) Frames() uint64 { return c.frames }

// Showing reports whether s is in the compositor's view.
func (c *Compositor) Showing(s *surface.Surface) bool {
	_, ok := c.tracked[s]
	return ok
}

func (c *Compositor) show(s *surface.Surface) {
	if _, ok := c.tracked[s]; ok {
		return
	}
	c.tracked[s] = s.Changed.Connect(c.onChange)
	s.RegisterView(compositorView)
	s.SetViewVisibility(compositorView, true)
	s.Texture(CompositorConsumer)
	c.logger.Debug("showing surface", "surface", s.ID())
	c.composite(s)
}

func (c *Compositor) hide(s *surface.Surface) {
	disconnect, ok := c.tracked[s]
	if !ok {
		return
	}
	delete(c.tracked, s)
	delete(c.dirty, s)
	disconnect()
	s.ReleaseTexture(CompositorConsumer)
	s.UnregisterView(compositorView)
	c.logger.Debug("hid surface", "surface", s.ID())
}

func (c *Compositor) onChange(e surface.Event) {
	s := e.Surface
	switch e.Change {
	case surface.FramesPosted:
		c.composite(s)
	case surface.LiveChanged:
		if !s.Live() {
			c.hide(s)
		}
	case surface.FocusChanged:
		s.SetViewActiveFocus(compositorView, s.Focused())
	case surface.FocusRequested:
		if err := c.reg.Activate(s); err != nil {
			c.logger.Warn("activate failed", "surface", s.ID(), "error", err)
		}
	case surface.RaiseRequested:
		if err := c.reg.Raise(s); err != nil {
			c.logger.Warn("raise failed", "surface", s.ID(), "error", err)
		}
	case surface.Destroyed:
		if disconnect, ok := c.tracked[s]; ok {
			disconnect()
			delete(c.tracked, s)
			delete(c.dirty, s)
		}
	}
}

// composite binds the newest frame for s. Inside a modification batch the
// work waits for the batch to end.
func (c *Compositor) composite(s *surface.Surface) {
	if c.batching {
		c.dirty[s] = struct{}{}
		return
	}
	before := s.CurrentFrameNumber(CompositorConsumer)
	s.UpdateTexture(CompositorConsumer)
	if after := s.CurrentFrameNumber(CompositorConsumer); after != before {
		c.frames += uint64(after - before)
	}
	s.OnCompositorSwappedBuffers()
}

func (c *Compositor) flush() {
	c.batching = false
	for s := range c.dirty {
		delete(c.dirty, s)
		c.composite(s)
	}
}
