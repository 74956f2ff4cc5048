package surface

import "fmt"

// Change identifies what changed on a Surface.
type Change int

const (
	SizeChanged Change = iota
	StateChanged
	TypeChanged
	VisibleChanged
	FocusChanged
	LiveChanged
	NameChanged
	CursorChanged
	KeymapChanged
	ShellChromeChanged
	OrientationAngleChanged
	MinimumWidthChanged
	MinimumHeightChanged
	MaximumWidthChanged
	MaximumHeightChanged
	WidthIncrementChanged
	HeightIncrementChanged
	BeingDisplayedChanged
	PositionChanged
	ReadyChanged
	FirstFrameDrawn
	FramesPosted
	FrameDropped
	CloseRequested
	FocusRequested
	RaiseRequested
	Destroyed
)

var changeNames = [...]string{
	SizeChanged:             "size-changed",
	StateChanged:            "state-changed",
	TypeChanged:             "type-changed",
	VisibleChanged:          "visible-changed",
	FocusChanged:            "focus-changed",
	LiveChanged:             "live-changed",
	NameChanged:             "name-changed",
	CursorChanged:           "cursor-changed",
	KeymapChanged:           "keymap-changed",
	ShellChromeChanged:      "shell-chrome-changed",
	OrientationAngleChanged: "orientation-angle-changed",
	MinimumWidthChanged:     "minimum-width-changed",
	MinimumHeightChanged:    "minimum-height-changed",
	MaximumWidthChanged:     "maximum-width-changed",
	MaximumHeightChanged:    "maximum-height-changed",
	WidthIncrementChanged:   "width-increment-changed",
	HeightIncrementChanged:  "height-increment-changed",
	BeingDisplayedChanged:   "being-displayed-changed",
	PositionChanged:         "position-changed",
	ReadyChanged:            "ready-changed",
	FirstFrameDrawn:         "first-frame-drawn",
	FramesPosted:            "frames-posted",
	FrameDropped:            "frame-dropped",
	CloseRequested:          "close-requested",
	FocusRequested:          "focus-requested",
	RaiseRequested:          "raise-requested",
	Destroyed:               "destroyed",
}

func (c Change) String() string {
	if c >= 0 && int(c) < len(changeNames) {
		return changeNames[c]
	}
	return fmt.Sprintf("change(%d)", int(c))
}

// Event is emitted on Surface.Changed. Listeners read the new value from
// the surface itself.
type Event struct {
	Surface *Surface
	Change  Change
}
