package x11

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/surfaced/internal/scene"
)

// Surface is the protocol surface for one top-level X client window. The
// window system updates it from the X event goroutine; the core reads it
// from the loop and render goroutines.
type Surface struct {
	conn   *Connection
	win    xproto.Window
	queue  *scene.BufferQueue
	logger *slog.Logger

	mu        sync.Mutex
	name      string
	typ       scene.Type
	state     scene.State
	size      scene.Size
	topLeft   scene.Point
	depth     byte
	attrs     map[scene.Attrib]int
	observers []scene.Observer
}

var (
	_ scene.Surface           = (*Surface)(nil)
	_ scene.ConsumerForgetter = (*Surface)(nil)
)

func newSurface(conn *Connection, win xproto.Window, poolSize int, logger *slog.Logger) *Surface {
	return &Surface{
		conn:   conn,
		win:    win,
		queue:  scene.NewBufferQueue(poolSize),
		logger: logger.With("window", uint32(win)),
		typ:    scene.TypeNormal,
		state:  scene.StateRestored,
		depth:  24,
		attrs: map[scene.Attrib]int{
			scene.AttribVisibility: scene.Exposed,
			scene.AttribFocus:      scene.Unfocused,
		},
	}
}

// XID returns the X window id.
func (s *Surface) XID() xproto.Window { return s.win }

func (s *Surface) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Surface) Type() scene.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typ
}

func (s *Surface) State() scene.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Surface) Size() scene.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Surface) TopLeft() scene.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topLeft
}

func (s *Surface) BuffersReadyForCompositor(consumer scene.ConsumerID) int {
	return s.queue.Ready(consumer)
}

func (s *Surface) GenerateRenderables(consumer scene.ConsumerID) []scene.Renderable {
	return s.queue.Renderables(consumer, s.TopLeft())
}

func (s *Surface) ForgetConsumer(consumer scene.ConsumerID) {
	s.queue.Forget(consumer)
}

// Consume replays ev into the client as synthetic core events. Touch has
// no core protocol equivalent and is dropped.
func (s *Surface) Consume(ev scene.Event) {
	var err error
	switch e := ev.(type) {
	case *scene.KeyboardEvent:
		err = s.sendKey(e)
	case *scene.PointerEvent:
		err = s.sendPointer(e)
	case *scene.TouchEvent:
		s.logger.Debug("dropping touch event", "points", len(e.Touches))
		return
	default:
		s.logger.Debug("dropping unknown event", "type", fmt.Sprintf("%T", ev))
		return
	}
	if err != nil {
		s.logger.Warn("failed to forward input", "error", err)
	}
}

func (s *Surface) sendKey(e *scene.KeyboardEvent) error {
	press := xproto.KeyPressEvent{
		Detail:     xproto.Keycode(e.KeyCode),
		Time:       xproto.TimeCurrentTime,
		Root:       s.conn.Root,
		Event:      s.win,
		State:      uint16(e.Modifiers),
		SameScreen: true,
	}
	switch e.Action {
	case scene.KeyDown:
		return s.send(xproto.EventMaskKeyPress, press.Bytes())
	case scene.KeyRepeat:
		release := xproto.KeyReleaseEvent(press)
		if err := s.send(xproto.EventMaskKeyRelease, release.Bytes()); err != nil {
			return err
		}
		return s.send(xproto.EventMaskKeyPress, press.Bytes())
	default:
		release := xproto.KeyReleaseEvent(press)
		return s.send(xproto.EventMaskKeyRelease, release.Bytes())
	}
}

func (s *Surface) sendPointer(e *scene.PointerEvent) error {
	origin := s.TopLeft()
	x, y := int16(e.X), int16(e.Y)
	state := keyState(e.Modifiers) | buttonState(e.Buttons)
	button := func(detail xproto.Button) xproto.ButtonPressEvent {
		return xproto.ButtonPressEvent{
			Detail:     detail,
			Time:       xproto.TimeCurrentTime,
			Root:       s.conn.Root,
			Event:      s.win,
			RootX:      int16(origin.X) + x,
			RootY:      int16(origin.Y) + y,
			EventX:     x,
			EventY:     y,
			State:      state,
			SameScreen: true,
		}
	}

	switch e.Action {
	case scene.PointerButtonDown:
		ev := button(buttonDetail(e.Buttons))
		return s.send(xproto.EventMaskButtonPress, ev.Bytes())
	case scene.PointerButtonUp:
		ev := xproto.ButtonReleaseEvent(button(buttonDetail(e.Buttons)))
		return s.send(xproto.EventMaskButtonRelease, ev.Bytes())
	case scene.PointerEnter, scene.PointerLeave:
		ev := xproto.EnterNotifyEvent{
			Detail:          xproto.NotifyDetailNonlinear,
			Time:            xproto.TimeCurrentTime,
			Root:            s.conn.Root,
			Event:           s.win,
			RootX:           int16(origin.X) + x,
			RootY:           int16(origin.Y) + y,
			EventX:          x,
			EventY:          y,
			Mode:            xproto.NotifyModeNormal,
			SameScreenFocus: 1,
		}
		if e.Action == scene.PointerLeave {
			leave := xproto.LeaveNotifyEvent(ev)
			return s.send(xproto.EventMaskLeaveWindow, leave.Bytes())
		}
		return s.send(xproto.EventMaskEnterWindow, ev.Bytes())
	default:
		for _, b := range scrollButtons(e.HScroll, e.VScroll) {
			press := button(b)
			if err := s.send(xproto.EventMaskButtonPress, press.Bytes()); err != nil {
				return err
			}
			release := xproto.ButtonReleaseEvent(press)
			if err := s.send(xproto.EventMaskButtonRelease, release.Bytes()); err != nil {
				return err
			}
		}
		motion := xproto.MotionNotifyEvent{
			Detail:     xproto.MotionNormal,
			Time:       xproto.TimeCurrentTime,
			Root:       s.conn.Root,
			Event:      s.win,
			RootX:      int16(origin.X) + x,
			RootY:      int16(origin.Y) + y,
			EventX:     x,
			EventY:     y,
			State:      state,
			SameScreen: true,
		}
		return s.send(xproto.EventMaskPointerMotion, motion.Bytes())
	}
}

func (s *Surface) send(mask int, ev []byte) error {
	return xproto.SendEventChecked(s.conn.XUtil.Conn(), false, s.win, uint32(mask), string(ev)).Check()
}

// Resize asks the window manager for a new client size, falling back to a
// direct configure request.
func (s *Surface) Resize(size scene.Size) {
	if err := ewmh.ResizeWindow(s.conn.XUtil, s.win, size.Width, size.Height); err != nil {
		xwindow.New(s.conn.XUtil, s.win).Resize(size.Width, size.Height)
	}
}

func (s *Surface) MoveTo(p scene.Point) {
	if err := ewmh.MoveWindow(s.conn.XUtil, s.win, p.X, p.Y); err != nil {
		xwindow.New(s.conn.XUtil, s.win).Move(p.X, p.Y)
	}
}

// SetOrientation publishes the hint as _SURFACED_ORIENTATION (0-3).
func (s *Surface) SetOrientation(o scene.Orientation) {
	if err := xprop.ChangeProp32(s.conn.XUtil, s.win, "_SURFACED_ORIENTATION", "CARDINAL", uint(o)); err != nil {
		s.logger.Warn("failed to set orientation", "error", err)
	}
}

// SetKeymap publishes "layout+variant" as _SURFACED_KEYMAP.
func (s *Surface) SetKeymap(layout, variant string) {
	value := layout
	if variant != "" {
		value += "+" + variant
	}
	if err := xprop.ChangeProp(s.conn.XUtil, s.win, 8, "_SURFACED_KEYMAP", "UTF8_STRING", []byte(value)); err != nil {
		s.logger.Warn("failed to set keymap", "error", err)
	}
}

func (s *Surface) RequestClientClose() {
	if err := s.conn.DeleteWindow(s.win); err != nil {
		s.logger.Warn("failed to request close", "error", err)
	}
}

func (s *Surface) Query(attrib scene.Attrib) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch attrib {
	case scene.AttribType:
		return int(s.typ)
	case scene.AttribState:
		return int(s.state)
	default:
		return s.attrs[attrib]
	}
}

// Configure records attributes that have no X request of their own.
func (s *Surface) Configure(attrib scene.Attrib, value int) {
	s.mu.Lock()
	s.attrs[attrib] = value
	s.mu.Unlock()
}

func (s *Surface) AddObserver(o scene.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Surface) RemoveObserver(o scene.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.observers {
		if existing == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Surface) eachObserver(fn func(scene.Observer)) {
	s.mu.Lock()
	observers := append([]scene.Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		fn(o)
	}
}

func (s *Surface) setName(name string) {
	s.mu.Lock()
	changed := s.name != name
	s.name = name
	s.mu.Unlock()
	if changed {
		s.eachObserver(func(o scene.Observer) { o.NameChanged(name) })
	}
}

func (s *Surface) setType(t scene.Type) {
	s.mu.Lock()
	changed := s.typ != t
	s.typ = t
	s.mu.Unlock()
	if changed {
		s.eachObserver(func(o scene.Observer) { o.AttributeChanged(scene.AttribType, int(t)) })
	}
}

// setState records state and reports whether it changed.
func (s *Surface) setState(state scene.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.state != state
	s.state = state
	return changed
}

func (s *Surface) setVisibility(v int) {
	s.mu.Lock()
	changed := s.attrs[scene.AttribVisibility] != v
	s.attrs[scene.AttribVisibility] = v
	s.mu.Unlock()
	if changed {
		s.eachObserver(func(o scene.Observer) { o.AttributeChanged(scene.AttribVisibility, v) })
	}
}

func (s *Surface) setChrome(c scene.ShellChrome) {
	s.eachObserver(func(o scene.Observer) { o.ShellChromeChanged(c) })
}

func (s *Surface) setHints(h scene.CreationHints) {
	s.eachObserver(func(o scene.Observer) {
		o.MinimumWidthChanged(h.MinWidth)
		o.MinimumHeightChanged(h.MinHeight)
		o.MaximumWidthChanged(h.MaxWidth)
		o.MaximumHeightChanged(h.MaxHeight)
		o.WidthIncrementChanged(h.WidthIncrement)
		o.HeightIncrementChanged(h.HeightIncrement)
	})
}

// setGeometry records the window rectangle and reports whether the origin
// and size changed.
func (s *Surface) setGeometry(topLeft scene.Point, size scene.Size, depth byte) (moved, resized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved = s.topLeft != topLeft
	resized = s.size != size
	s.topLeft = topLeft
	s.size = size
	if depth != 0 {
		s.depth = depth
	}
	return moved, resized
}

// capture copies the window contents into the buffer queue and tells
// observers a frame was posted.
func (s *Surface) capture() error {
	s.mu.Lock()
	size := s.size
	s.mu.Unlock()
	if size.Empty() {
		return nil
	}

	reply, err := xproto.GetImage(s.conn.XUtil.Conn(), xproto.ImageFormatZPixmap, xproto.Drawable(s.win),
		0, 0, uint16(size.Width), uint16(size.Height), 0xffffffff).Reply()
	if err != nil {
		return fmt.Errorf("get image: %w", err)
	}
	frame, ok := frameFromImage(size, reply.Depth, reply.Data)
	if !ok {
		return fmt.Errorf("unsupported image depth %d for %s", reply.Depth, size)
	}
	if !s.queue.Submit(frame) {
		s.logger.Debug("consumer queue full, frame skipped")
	}
	s.eachObserver(func(o scene.Observer) { o.FramesPosted() })
	return nil
}
