package x11

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/surfaced/internal/scene"
	"github.com/1broseidon/surfaced/internal/session"
)

// Options configures a WindowSystem.
type Options struct {
	// PoolSize bounds each consumer's captured frame queue.
	PoolSize int
	// Capture copies window contents on expose and resize.
	Capture bool
	// Sessions receives one session per WM_CLASS before the window is
	// announced, so the registry can resolve it.
	Sessions *session.Manager
	Logger   *slog.Logger
}

// WindowSystem follows the EWMH client list and turns X events into
// window-model notifications for sink.
type WindowSystem struct {
	conn   *Connection
	sink   scene.Sink
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	windows  map[xproto.Window]*Surface
	order    []xproto.Window
	active   xproto.Window
	stacking []xproto.Window
}

func NewWindowSystem(conn *Connection, sink scene.Sink, opts Options) *WindowSystem {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowSystem{
		conn:    conn,
		sink:    sink,
		opts:    opts,
		logger:  logger.With("component", "x11"),
		windows: make(map[xproto.Window]*Surface),
	}
}

// Start subscribes to root window changes and announces every existing
// client. Events are delivered once the connection's EventLoop runs.
func (ws *WindowSystem) Start() error {
	root := xwindow.New(ws.conn.XUtil, ws.conn.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskSubstructureNotify); err != nil {
		return fmt.Errorf("listen on root window: %w", err)
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		ws.onRootProperty(ev)
	}).Connect(ws.conn.XUtil, ws.conn.Root)

	if _, err := ws.Resync(); err != nil {
		return err
	}
	ws.syncActive()
	ws.mu.Lock()
	ws.stacking, _ = ewmh.ClientListStackingGet(ws.conn.XUtil)
	ws.mu.Unlock()
	return nil
}

// Windows returns the tracked client windows in the order they appeared.
func (ws *WindowSystem) Windows() []xproto.Window {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]xproto.Window(nil), ws.order...)
}

// Resync diffs the tracked windows against _NET_CLIENT_LIST, announcing
// new clients and removing ones that vanished without an event. It returns
// how many windows changed. Safe to call from any goroutine.
func (ws *WindowSystem) Resync() (int, error) {
	clients, err := ewmh.ClientListGet(ws.conn.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get client list: %w", err)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	added, removed := diffClients(ws.order, clients)
	if len(added) == 0 && len(removed) == 0 {
		return 0, nil
	}

	ws.sink.Notify(scene.Notification{Kind: scene.ModificationsStarted})
	for _, win := range removed {
		ws.removeLocked(win)
	}
	for _, win := range added {
		ws.addLocked(win)
	}
	ws.sink.Notify(scene.Notification{Kind: scene.ModificationsEnded})
	return len(added) + len(removed), nil
}

func (ws *WindowSystem) addLocked(win xproto.Window) {
	xu := ws.conn.XUtil
	s := newSurface(ws.conn, win, ws.opts.PoolSize, ws.logger)

	if err := xwindow.New(xu, win).Listen(
		xproto.EventMaskPropertyChange,
		xproto.EventMaskStructureNotify,
		xproto.EventMaskExposure,
		xproto.EventMaskVisibilityChange,
	); err != nil {
		ws.logger.Debug("window vanished before it was tracked", "window", uint32(win), "error", err)
		return
	}

	types, _ := ewmh.WmWindowTypeGet(xu, win)
	states, _ := ewmh.WmStateGet(xu, win)
	s.name = windowTitle(xu, win)
	s.typ = typeFromEWMH(types)
	s.state = stateFromEWMH(states)
	if rect, depth, ok := ws.windowRect(win); ok {
		s.setGeometry(scene.Point{X: rect.X, Y: rect.Y}, scene.Size{Width: rect.Width, Height: rect.Height}, depth)
	}

	nw := scene.NewWindow{
		Window: scene.Window{ID: scene.WindowID(win), Surface: s},
		App:    windowAppID(xu, win),
	}
	if pid, err := ewmh.WmPidGet(xu, win); err == nil {
		nw.PID = int(pid)
	}
	if parent, err := icccm.WmTransientForGet(xu, win); err == nil && parent != 0 && parent != ws.conn.Root {
		nw.Parent = scene.WindowID(parent)
	}
	if nh, err := icccm.WmNormalHintsGet(xu, win); err == nil {
		nw.Hints = hintsFromNormalHints(nh)
	}
	nw.Hints.ShellChrome = chromeFromEWMH(states)
	if ws.opts.Sessions != nil {
		ws.opts.Sessions.Ensure(nw.App, nw.PID)
	}

	ws.connectWindow(s)
	ws.windows[win] = s
	ws.order = append(ws.order, win)

	ws.logger.Debug("window added", "window", uint32(win), "app", nw.App, "pid", nw.PID, "type", s.typ.String())
	ws.sink.Notify(scene.Added(nw))
	ws.sink.Notify(scene.Ready(nw.Window))
	if ws.opts.Capture {
		ws.captureLater(s)
	}
}

func (ws *WindowSystem) removeLocked(win xproto.Window) {
	s, ok := ws.windows[win]
	if !ok {
		return
	}
	delete(ws.windows, win)
	for i, w := range ws.order {
		if w == win {
			ws.order = append(ws.order[:i], ws.order[i+1:]...)
			break
		}
	}
	xevent.Detach(ws.conn.XUtil, win)
	if ws.active == win {
		ws.active = 0
	}
	ws.logger.Debug("window removed", "window", uint32(win))
	ws.sink.Notify(scene.Removed(scene.Window{ID: scene.WindowID(win), Surface: s}))
}

func (ws *WindowSystem) connectWindow(s *Surface) {
	xu := ws.conn.XUtil
	win := s.win

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		ws.onConfigure(s)
	}).Connect(xu, win)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		ws.onWindowProperty(s, ev)
	}).Connect(xu, win)

	xevent.ExposeFun(func(xu *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count == 0 && ws.opts.Capture {
			ws.captureLater(s)
		}
	}).Connect(xu, win)

	xevent.VisibilityNotifyFun(func(xu *xgbutil.XUtil, ev xevent.VisibilityNotifyEvent) {
		if ev.State == xproto.VisibilityFullyObscured {
			s.setVisibility(scene.Occluded)
		} else {
			s.setVisibility(scene.Exposed)
		}
	}).Connect(xu, win)

	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		s.setVisibility(scene.Occluded)
	}).Connect(xu, win)

	xevent.MapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
		s.setVisibility(scene.Exposed)
		if ws.opts.Capture {
			ws.captureLater(s)
		}
	}).Connect(xu, win)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		ws.sink.Notify(scene.Notification{Kind: scene.ModificationsStarted})
		ws.removeLocked(win)
		ws.sink.Notify(scene.Notification{Kind: scene.ModificationsEnded})
	}).Connect(xu, win)
}

func (ws *WindowSystem) onRootProperty(ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(ws.conn.XUtil, ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_CLIENT_LIST":
		if _, err := ws.Resync(); err != nil {
			ws.logger.Warn("client list resync failed", "error", err)
		}
	case "_NET_ACTIVE_WINDOW":
		ws.syncActive()
	case "_NET_CLIENT_LIST_STACKING":
		ws.syncStacking()
	}
}

func (ws *WindowSystem) syncActive() {
	active, err := ewmh.ActiveWindowGet(ws.conn.XUtil)
	if err != nil {
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if active == ws.active {
		return
	}
	if old, ok := ws.windows[ws.active]; ok {
		ws.sink.Notify(scene.FocusChanged(scene.Window{ID: scene.WindowID(ws.active), Surface: old}, false))
	}
	ws.active = active
	if s, ok := ws.windows[active]; ok {
		s.Configure(scene.AttribFocus, scene.Focused)
		ws.sink.Notify(scene.FocusChanged(scene.Window{ID: scene.WindowID(active), Surface: s}, true))
	}
}

func (ws *WindowSystem) syncStacking() {
	stacking, err := ewmh.ClientListStackingGet(ws.conn.XUtil)
	if err != nil {
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	raised := raisedSince(ws.stacking, stacking)
	ws.stacking = stacking
	if len(raised) == 0 {
		return
	}
	batch := make([]scene.Window, 0, len(raised))
	for _, win := range raised {
		var ps scene.Surface
		if s, ok := ws.windows[win]; ok {
			ps = s
		}
		batch = append(batch, scene.Window{ID: scene.WindowID(win), Surface: ps})
	}
	ws.sink.Notify(scene.Raised(batch))
}

func (ws *WindowSystem) onConfigure(s *Surface) {
	rect, depth, ok := ws.windowRect(s.win)
	if !ok {
		return
	}
	topLeft := scene.Point{X: rect.X, Y: rect.Y}
	moved, resized := s.setGeometry(topLeft, scene.Size{Width: rect.Width, Height: rect.Height}, depth)
	if moved {
		ws.sink.Notify(scene.Moved(scene.Window{ID: scene.WindowID(s.win), Surface: s}, topLeft))
	}
	if resized && ws.opts.Capture {
		ws.captureLater(s)
	}
}

func (ws *WindowSystem) onWindowProperty(s *Surface, ev xevent.PropertyNotifyEvent) {
	xu := ws.conn.XUtil
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_WM_NAME", "WM_NAME":
		s.setName(windowTitle(xu, s.win))
	case "_NET_WM_WINDOW_TYPE":
		types, _ := ewmh.WmWindowTypeGet(xu, s.win)
		s.setType(typeFromEWMH(types))
	case "_NET_WM_STATE":
		states, _ := ewmh.WmStateGet(xu, s.win)
		if s.setState(stateFromEWMH(states)) {
			ws.sink.Notify(scene.StateChanged(scene.Window{ID: scene.WindowID(s.win), Surface: s}, stateFromEWMH(states)))
		}
		s.setChrome(chromeFromEWMH(states))
	case "WM_NORMAL_HINTS":
		if nh, err := icccm.WmNormalHintsGet(xu, s.win); err == nil {
			s.setHints(hintsFromNormalHints(nh))
		}
	}
}

// captureLater grabs the window contents on a separate goroutine so a slow
// GetImage round trip never stalls event dispatch.
func (ws *WindowSystem) captureLater(s *Surface) {
	go func() {
		if err := s.capture(); err != nil {
			ws.logger.Debug("capture failed", "window", uint32(s.win), "error", err)
		}
	}()
}

type rect struct {
	X, Y, Width, Height int
}

func (ws *WindowSystem) windowRect(win xproto.Window) (rect, byte, bool) {
	conn := ws.conn.XUtil.Conn()
	geom, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return rect{}, 0, false
	}
	translate, err := xproto.TranslateCoordinates(conn, win, ws.conn.Root, 0, 0).Reply()
	if err != nil {
		return rect{}, 0, false
	}
	return rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, geom.Depth, true
}

func windowAppID(xu *xgbutil.XUtil, win xproto.Window) string {
	wmClass, err := icccm.WmClassGet(xu, win)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

func windowTitle(xu *xgbutil.XUtil, win xproto.Window) string {
	title, err := ewmh.WmNameGet(xu, win)
	if err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	title, err = icccm.WmNameGet(xu, win)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
