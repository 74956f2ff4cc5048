package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/surfaced/internal/scene"
)

const (
	wmStateRemove = 0
	wmStateAdd    = 1
)

// Controller performs window-management requests through the EWMH-aware
// window manager, or directly against the X server when there is none.
type Controller struct {
	conn   *Connection
	logger *slog.Logger
}

var _ scene.Controller = (*Controller)(nil)

func NewController(conn *Connection, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{conn: conn, logger: logger.With("component", "x11")}
}

func (c *Controller) SetAttribute(w scene.Window, attrib scene.Attrib, value int) error {
	win := xproto.Window(w.ID)
	switch attrib {
	case scene.AttribState:
		return c.setState(win, scene.State(value))
	case scene.AttribFocus:
		if value == scene.Focused {
			return c.conn.FocusWindow(win)
		}
		return nil
	default:
		if w.Surface != nil {
			w.Surface.Configure(attrib, value)
		}
		return nil
	}
}

func (c *Controller) setState(win xproto.Window, state scene.State) error {
	if state == scene.StateMinimized || state == scene.StateHidden {
		return c.conn.MinimizeWindow(win)
	}

	want := make(map[string]bool)
	for _, atom := range ewmhStateAtoms(state) {
		want[atom] = true
	}
	for _, atom := range managedStateAtoms {
		action := wmStateRemove
		if want[atom] {
			action = wmStateAdd
		}
		if err := ewmh.WmStateReq(c.conn.XUtil, win, action, atom); err != nil {
			return fmt.Errorf("window %d: set %s: %w", uint32(win), atom, err)
		}
	}
	if state == scene.StateRestored {
		// De-iconify as well.
		return c.conn.FocusWindow(win)
	}
	return nil
}

// ForceClose kills the client owning w.
func (c *Controller) ForceClose(w scene.Window) error {
	c.logger.Info("killing unresponsive client", "window", uint64(w.ID))
	return xproto.KillClientChecked(c.conn.XUtil.Conn(), uint32(w.ID)).Check()
}

// Raise restacks w above its siblings.
func (c *Controller) Raise(w scene.Window) error {
	return xproto.ConfigureWindowChecked(c.conn.XUtil.Conn(), xproto.Window(w.ID),
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
}

// Activate focuses w; the zero window returns focus to the root.
func (c *Controller) Activate(w scene.Window) error {
	if w.ID == 0 {
		return xproto.SetInputFocusChecked(c.conn.XUtil.Conn(), xproto.InputFocusPointerRoot,
			c.conn.Root, xproto.TimeCurrentTime).Check()
	}
	return c.conn.FocusWindow(xproto.Window(w.ID))
}
