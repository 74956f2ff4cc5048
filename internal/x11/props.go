package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/surfaced/internal/scene"
)

// stateFromEWMH maps _NET_WM_STATE atoms onto a window state. Hidden wins
// over fullscreen, which wins over maximization.
func stateFromEWMH(states []string) scene.State {
	var hidden, fullscreen, maxH, maxV bool
	for _, s := range states {
		switch s {
		case "_NET_WM_STATE_HIDDEN":
			hidden = true
		case "_NET_WM_STATE_FULLSCREEN":
			fullscreen = true
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			maxH = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			maxV = true
		}
	}
	switch {
	case hidden:
		return scene.StateMinimized
	case fullscreen:
		return scene.StateFullscreen
	case maxH && maxV:
		return scene.StateMaximized
	case maxV:
		return scene.StateVertMaximized
	case maxH:
		return scene.StateHorizMaximized
	default:
		return scene.StateRestored
	}
}

// ewmhStateAtoms lists the _NET_WM_STATE atoms that make up state.
func ewmhStateAtoms(state scene.State) []string {
	switch state {
	case scene.StateMaximized:
		return []string{"_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT"}
	case scene.StateVertMaximized:
		return []string{"_NET_WM_STATE_MAXIMIZED_VERT"}
	case scene.StateHorizMaximized:
		return []string{"_NET_WM_STATE_MAXIMIZED_HORZ"}
	case scene.StateFullscreen:
		return []string{"_NET_WM_STATE_FULLSCREEN"}
	case scene.StateHidden, scene.StateMinimized:
		return []string{"_NET_WM_STATE_HIDDEN"}
	default:
		return nil
	}
}

// managedStateAtoms are the atoms SetAttribute adds or removes.
var managedStateAtoms = []string{
	"_NET_WM_STATE_MAXIMIZED_HORZ",
	"_NET_WM_STATE_MAXIMIZED_VERT",
	"_NET_WM_STATE_FULLSCREEN",
}

// typeFromEWMH maps _NET_WM_WINDOW_TYPE atoms onto a window type. The first
// recognised atom wins, following the EWMH preference order.
func typeFromEWMH(types []string) scene.Type {
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return scene.TypeNormal
		case "_NET_WM_WINDOW_TYPE_UTILITY", "_NET_WM_WINDOW_TYPE_TOOLBAR":
			return scene.TypeUtility
		case "_NET_WM_WINDOW_TYPE_DIALOG":
			return scene.TypeDialog
		case "_NET_WM_WINDOW_TYPE_SPLASH":
			return scene.TypeGloss
		case "_NET_WM_WINDOW_TYPE_MENU", "_NET_WM_WINDOW_TYPE_DROPDOWN_MENU", "_NET_WM_WINDOW_TYPE_POPUP_MENU":
			return scene.TypeMenu
		case "_NET_WM_WINDOW_TYPE_TOOLTIP", "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return scene.TypeTip
		case "_NET_WM_WINDOW_TYPE_DOCK", "_NET_WM_WINDOW_TYPE_DESKTOP":
			return scene.TypeSatellite
		}
	}
	if len(types) == 0 {
		return scene.TypeNormal
	}
	return scene.TypeUnknown
}

// chromeFromEWMH asks for low chrome when the window is fullscreen.
func chromeFromEWMH(states []string) scene.ShellChrome {
	for _, s := range states {
		if s == "_NET_WM_STATE_FULLSCREEN" {
			return scene.LowChrome
		}
	}
	return scene.NormalChrome
}

// hintsFromNormalHints converts WM_NORMAL_HINTS into creation hints. Fields
// whose flag is unset stay zero.
func hintsFromNormalHints(nh *icccm.NormalHints) scene.CreationHints {
	var h scene.CreationHints
	if nh == nil {
		return h
	}
	if nh.Flags&icccm.SizeHintPMinSize != 0 {
		h.MinWidth = int(nh.MinWidth)
		h.MinHeight = int(nh.MinHeight)
	}
	if nh.Flags&icccm.SizeHintPMaxSize != 0 {
		h.MaxWidth = int(nh.MaxWidth)
		h.MaxHeight = int(nh.MaxHeight)
	}
	if nh.Flags&icccm.SizeHintPResizeInc != 0 {
		h.WidthIncrement = int(nh.WidthInc)
		h.HeightIncrement = int(nh.HeightInc)
	}
	return h
}

// diffClients compares two client lists and returns what appeared and what
// went away, each in the order of the list it came from.
func diffClients(known, current []xproto.Window) (added, removed []xproto.Window) {
	inCurrent := make(map[xproto.Window]struct{}, len(current))
	for _, w := range current {
		inCurrent[w] = struct{}{}
	}
	inKnown := make(map[xproto.Window]struct{}, len(known))
	for _, w := range known {
		inKnown[w] = struct{}{}
		if _, ok := inCurrent[w]; !ok {
			removed = append(removed, w)
		}
	}
	for _, w := range current {
		if _, ok := inKnown[w]; !ok {
			added = append(added, w)
		}
	}
	return added, removed
}

// raisedSince returns the windows whose stacking position moved up between
// two bottom-to-top stacking lists, bottom first.
func raisedSince(before, after []xproto.Window) []xproto.Window {
	pos := make(map[xproto.Window]int, len(before))
	for i, w := range before {
		pos[w] = i
	}
	var raised []xproto.Window
	for i, w := range after {
		old, ok := pos[w]
		if !ok {
			continue
		}
		// Something above it before is now below it.
		for _, above := range before[old+1:] {
			if j := indexOf(after, above); j >= 0 && j < i {
				raised = append(raised, w)
				break
			}
		}
	}
	return raised
}

func indexOf(list []xproto.Window, w xproto.Window) int {
	for i, v := range list {
		if v == w {
			return i
		}
	}
	return -1
}

// frameFromImage wraps a ZPixmap GetImage reply. 24 and 32 bit visuals
// store pixels as little-endian 0xAARRGGBB words.
func frameFromImage(size scene.Size, depth byte, data []byte) (scene.Frame, bool) {
	stride := size.Width * 4
	if size.Empty() || len(data) < stride*size.Height {
		return scene.Frame{}, false
	}
	format := scene.FormatXRGB8888
	switch depth {
	case 32:
		format = scene.FormatARGB8888
	case 24:
	default:
		return scene.Frame{}, false
	}
	return scene.Frame{
		Size:   size,
		Format: format,
		Stride: stride,
		Pixels: data[:stride*size.Height],
	}, true
}

// keyState converts native modifiers into an X key/button state mask.
func keyState(mods scene.InputModifiers) uint16 {
	var state uint16
	if mods&scene.ModifierShift != 0 {
		state |= xproto.ModMaskShift
	}
	if mods&scene.ModifierCtrl != 0 {
		state |= xproto.ModMaskControl
	}
	if mods&scene.ModifierAlt != 0 {
		state |= xproto.ModMask1
	}
	if mods&scene.ModifierMeta != 0 {
		state |= xproto.ModMask4
	}
	return state
}

// buttonState converts held pointer buttons into X button mask bits.
func buttonState(buttons scene.PointerButtons) uint16 {
	var state uint16
	if buttons&scene.ButtonPrimary != 0 {
		state |= xproto.ButtonMask1
	}
	if buttons&scene.ButtonTertiary != 0 {
		state |= xproto.ButtonMask2
	}
	if buttons&scene.ButtonSecondary != 0 {
		state |= xproto.ButtonMask3
	}
	return state
}

// buttonDetail picks the core X button number for a press or release.
// Back and forward are buttons 8 and 9 by convention.
func buttonDetail(buttons scene.PointerButtons) xproto.Button {
	switch {
	case buttons&scene.ButtonPrimary != 0:
		return 1
	case buttons&scene.ButtonTertiary != 0:
		return 2
	case buttons&scene.ButtonSecondary != 0:
		return 3
	case buttons&scene.ButtonBack != 0:
		return 8
	case buttons&scene.ButtonForward != 0:
		return 9
	default:
		return 0
	}
}

// scrollButtons returns the wheel buttons for a scroll delta: 4/5 for
// vertical and 6/7 for horizontal.
func scrollButtons(hscroll, vscroll float64) []xproto.Button {
	var out []xproto.Button
	switch {
	case vscroll > 0:
		out = append(out, 4)
	case vscroll < 0:
		out = append(out, 5)
	}
	switch {
	case hscroll > 0:
		out = append(out, 6)
	case hscroll < 0:
		out = append(out, 7)
	}
	return out
}
