package scene

import "time"

// Event is a native input event consumed by a protocol surface. It is one
// of *PointerEvent, *KeyboardEvent or *TouchEvent.
type Event interface {
	EventTime() time.Duration
}

// InputModifiers is the native modifier bit set.
type InputModifiers uint32

const ModifierNone InputModifiers = 0

const (
	ModifierShift InputModifiers = 1 << iota
	ModifierCtrl
	ModifierAlt
	ModifierMeta
)

// PointerButtons is the native pointer button bit set.
type PointerButtons uint32

const (
	ButtonPrimary PointerButtons = 1 << iota
	ButtonSecondary
	ButtonTertiary
	ButtonBack
	ButtonForward
)

type PointerAction int

const (
	PointerButtonUp PointerAction = iota
	PointerButtonDown
	PointerEnter
	PointerLeave
	PointerMotion
)

func (a PointerAction) String() string {
	switch a {
	case PointerButtonUp:
		return "button-up"
	case PointerButtonDown:
		return "button-down"
	case PointerEnter:
		return "enter"
	case PointerLeave:
		return "leave"
	case PointerMotion:
		return "motion"
	default:
		return "unknown"
	}
}

type PointerEvent struct {
	DeviceID  int64
	Timestamp time.Duration
	Modifiers InputModifiers
	Action    PointerAction
	Buttons   PointerButtons
	X, Y      float64
	HScroll   float64
	VScroll   float64
	RelX      float64
	RelY      float64
}

func (e *PointerEvent) EventTime() time.Duration { return e.Timestamp }

type KeyboardAction int

const (
	KeyUp KeyboardAction = iota
	KeyDown
	KeyRepeat
)

type KeyboardEvent struct {
	DeviceID  int64
	Timestamp time.Duration
	Action    KeyboardAction
	KeyCode   uint32
	ScanCode  uint32
	Modifiers uint32
}

func (e *KeyboardEvent) EventTime() time.Duration { return e.Timestamp }

type TouchAction int

const (
	TouchUp TouchAction = iota
	TouchDown
	TouchChange
)

type TouchTooltype int

const (
	TooltypeFinger TouchTooltype = iota
	TooltypeStylus
)

type Touch struct {
	ID         int
	Action     TouchAction
	Tooltype   TouchTooltype
	X, Y       float64
	Pressure   float64
	TouchMajor float64
	TouchMinor float64
	Size       float64
}

type TouchEvent struct {
	DeviceID  int64
	Timestamp time.Duration
	Modifiers InputModifiers
	Touches   []Touch
}

func (e *TouchEvent) EventTime() time.Duration { return e.Timestamp }
