// Package input converts toolkit input events into the native events that
// protocol surfaces consume.
package input

// Modifiers is the toolkit keyboard modifier set.
type Modifiers uint32

const (
	ShiftModifier Modifiers = 1 << iota
	ControlModifier
	AltModifier
	MetaModifier
	KeypadModifier
)

// MouseButtons is the toolkit mouse button set.
type MouseButtons uint32

const (
	LeftButton MouseButtons = 1 << iota
	RightButton
	MiddleButton
	BackButton
	ForwardButton
)

// Timestamps on toolkit events are 32-bit millisecond counters.

type MouseEvent struct {
	Timestamp uint32
	Modifiers Modifiers
	Buttons   MouseButtons
	X, Y      float64
}

type HoverEvent struct {
	Timestamp uint32
	X, Y      float64
}

type WheelEvent struct {
	Timestamp uint32
	Modifiers Modifiers
	Buttons   MouseButtons
	X, Y      float64
	// AngleDeltaX and AngleDeltaY are in eighths of a degree.
	AngleDeltaX float64
	AngleDeltaY float64
}

type KeyType int

const (
	KeyPress KeyType = iota
	KeyRelease
)

type KeyEvent struct {
	Type             KeyType
	Timestamp        uint32
	AutoRepeat       bool
	NativeVirtualKey uint32
	NativeScanCode   uint32
	NativeModifiers  uint32
}

type TouchPointState int

const (
	TouchPointPressed TouchPointState = iota
	TouchPointMoved
	TouchPointStationary
	TouchPointReleased
)

type TouchPoint struct {
	ID       int
	State    TouchPointState
	Pen      bool
	X, Y     float64
	Pressure float64
	Width    float64
	Height   float64
}

type TouchEvent struct {
	Timestamp uint32
	Modifiers Modifiers
	Points    []TouchPoint
}
