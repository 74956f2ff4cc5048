package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection connects to display, or $DISPLAY when it is empty, and
// initializes the keybind module used for global hotkeys.
func NewConnection(display string) (*Connection, error) {
	var (
		xu  *xgbutil.XUtil
		err error
	)
	if display == "" {
		xu, err = xgbutil.NewConn()
	} else {
		xu, err = xgbutil.NewConnDisplay(display)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// EventLoop runs the X11 event loop until Quit is called.
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit makes EventLoop return after the current event.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

func (c *Connection) internAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

// sendClientMessage sends a 32-bit client message about win. With toRoot
// the message goes to the root window for the window manager; otherwise it
// goes to the client itself.
func (c *Connection) sendClientMessage(win xproto.Window, typ string, toRoot bool, data ...uint32) error {
	atom, err := c.internAtom(typ)
	if err != nil {
		return err
	}
	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}

	dest := win
	mask := uint32(xproto.EventMaskNoEvent)
	if toRoot {
		dest = c.Root
		mask = xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify
	}
	return xproto.SendEventChecked(c.XUtil.Conn(), false, dest, mask, string(ev.Bytes())).Check()
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The message is built by hand because the xgbutil ewmh request helpers
// panic on this library version.
func (c *Connection) FocusWindow(win xproto.Window) error {
	const sourceIndication = 2 // pager/direct action
	return c.sendClientMessage(win, "_NET_ACTIVE_WINDOW", true, sourceIndication)
}

// DeleteWindow asks the client to close win via WM_DELETE_WINDOW.
func (c *Connection) DeleteWindow(win xproto.Window) error {
	deleteAtom, err := c.internAtom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	return c.sendClientMessage(win, "WM_PROTOCOLS", false, uint32(deleteAtom), uint32(xproto.TimeCurrentTime))
}

// MinimizeWindow iconifies win via WM_CHANGE_STATE.
func (c *Connection) MinimizeWindow(win xproto.Window) error {
	const iconicState = 3
	return c.sendClientMessage(win, "WM_CHANGE_STATE", true, iconicState)
}
