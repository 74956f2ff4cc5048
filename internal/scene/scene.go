// Package scene defines the windowing-protocol layer that the surface core
// consumes: protocol surfaces, the window controller, buffers, native input
// events and window-model notifications.
package scene

import "fmt"

// WindowID is the protocol's stable window handle.
type WindowID uint64

// ConsumerID identifies a renderer-side viewport or output requesting a
// texture for a surface.
type ConsumerID uintptr

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Point is a position in screen coordinates.
type Point struct {
	X int
	Y int
}

// Window pairs a handle with its protocol surface. Two Windows are the same
// window when their IDs match.
type Window struct {
	ID      WindowID
	Surface Surface
}

// Valid reports whether w refers to a window at all.
func (w Window) Valid() bool {
	return w.ID != 0 && w.Surface != nil
}

// Attrib is a protocol surface attribute.
type Attrib int

const (
	AttribType Attrib = iota
	AttribState
	AttribFocus
	AttribVisibility
)

func (a Attrib) String() string {
	switch a {
	case AttribType:
		return "type"
	case AttribState:
		return "state"
	case AttribFocus:
		return "focus"
	case AttribVisibility:
		return "visibility"
	default:
		return fmt.Sprintf("attrib(%d)", int(a))
	}
}

// Values for AttribFocus.
const (
	Unfocused = 0
	Focused   = 1
)

// Values for AttribVisibility.
const (
	Occluded = 0
	Exposed  = 1
)

// State is the protocol-level window state.
type State int

const (
	StateUnknown State = iota
	StateRestored
	StateMinimized
	StateMaximized
	StateVertMaximized
	StateFullscreen
	StateHorizMaximized
	StateHidden
)

var stateNames = [...]string{
	StateUnknown:        "unknown",
	StateRestored:       "restored",
	StateMinimized:      "minimized",
	StateMaximized:      "maximized",
	StateVertMaximized:  "vert-maximized",
	StateFullscreen:     "fullscreen",
	StateHorizMaximized: "horiz-maximized",
	StateHidden:         "hidden",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Type is the protocol-level window type.
type Type int

const (
	TypeNormal Type = iota
	TypeUtility
	TypeDialog
	TypeGloss
	TypeFreeStyle
	TypeMenu
	TypeInputMethod
	TypeSatellite
	TypeTip
	TypeUnknown
)

var typeNames = [...]string{
	TypeNormal:      "normal",
	TypeUtility:     "utility",
	TypeDialog:      "dialog",
	TypeGloss:       "gloss",
	TypeFreeStyle:   "freestyle",
	TypeMenu:        "menu",
	TypeInputMethod: "input-method",
	TypeSatellite:   "satellite",
	TypeTip:         "tip",
	TypeUnknown:     "unknown",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Orientation is the protocol's client orientation hint.
type Orientation int

const (
	OrientationNormal Orientation = iota
	OrientationLeft
	OrientationInverted
	OrientationRight
)

// ShellChrome describes how much shell decoration a window asks for.
type ShellChrome int

const (
	NormalChrome ShellChrome = iota
	LowChrome
)

func (c ShellChrome) String() string {
	switch c {
	case NormalChrome:
		return "normal"
	case LowChrome:
		return "low"
	default:
		return fmt.Sprintf("chrome(%d)", int(c))
	}
}

// CursorShape is the pointer shape a client requests over its surface.
type CursorShape string

const CursorDefault CursorShape = "default"

// CreationHints are the advisory constraints a client supplies when the
// window is created.
type CreationHints struct {
	MinWidth        int
	MinHeight       int
	MaxWidth        int
	MaxHeight       int
	WidthIncrement  int
	HeightIncrement int
	ShellChrome     ShellChrome
}

func (h CreationHints) String() string {
	return fmt.Sprintf("CreationHints{min=%dx%d max=%dx%d inc=%dx%d chrome=%s}",
		h.MinWidth, h.MinHeight, h.MaxWidth, h.MaxHeight,
		h.WidthIncrement, h.HeightIncrement, h.ShellChrome)
}
