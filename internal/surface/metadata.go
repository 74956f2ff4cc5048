package surface

import (
	"fmt"
	"strings"

	"github.com/1broseidon/surfaced/internal/scene"
)

// OrientationAngle is a client content rotation in degrees.
type OrientationAngle int

const (
	Angle0   OrientationAngle = 0
	Angle90  OrientationAngle = 90
	Angle180 OrientationAngle = 180
	Angle270 OrientationAngle = 270
)

func (a OrientationAngle) orientation() (scene.Orientation, bool) {
	switch a {
	case Angle0:
		return scene.OrientationNormal, true
	case Angle90:
		return scene.OrientationRight, true
	case Angle180:
		return scene.OrientationInverted, true
	case Angle270:
		return scene.OrientationLeft, true
	default:
		return 0, false
	}
}

// Valid reports whether a is one of the four right angles.
func (a OrientationAngle) Valid() bool {
	_, ok := a.orientation()
	return ok
}

func (s *Surface) OrientationAngle() OrientationAngle { return s.orientation }

// SetOrientationAngle rotates the client. Angles other than the four right
// angles panic.
func (s *Surface) SetOrientationAngle(angle OrientationAngle) {
	o, ok := angle.orientation()
	if !ok {
		panic(fmt.Sprintf("surface: unsupported orientation angle %d", int(angle)))
	}
	if angle == s.orientation {
		return
	}
	s.orientation = angle
	s.window.Surface.SetOrientation(o)
	s.emit(OrientationAngleChanged)
}

func (s *Surface) ShellChrome() scene.ShellChrome { return s.shellChrome }

func (s *Surface) SetShellChrome(c scene.ShellChrome) {
	if c == s.shellChrome {
		return
	}
	s.shellChrome = c
	s.emit(ShellChromeChanged)
}

func (s *Surface) Cursor() scene.CursorShape { return s.cursor }

func (s *Surface) setCursor(shape scene.CursorShape) {
	s.logger.Debug("cursor changed", "shape", string(shape))
	s.cursor = shape
	s.emit(CursorChanged)
}

func (s *Surface) Keymap() string { return s.keymap }

// SetKeymap applies a "layout" or "layout+variant" keymap. A keymap without
// a layout is ignored.
func (s *Surface) SetKeymap(layoutPlusVariant string) {
	layout, variant, ok := splitKeymap(layoutPlusVariant)
	if !ok {
		s.logger.Warn("setting keymap with empty layout is not supported", "keymap", layoutPlusVariant)
		return
	}
	if layoutPlusVariant == s.keymap {
		return
	}
	s.logger.Debug("keymap changed", "keymap", layoutPlusVariant)
	s.keymap = layoutPlusVariant
	s.emit(KeymapChanged)
	s.window.Surface.SetKeymap(layout, variant)
}

func splitKeymap(keymap string) (layout, variant string, ok bool) {
	var parts []string
	for _, p := range strings.Split(keymap, "+") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", "", false
	}
	if len(parts) > 1 {
		variant = parts[1]
	}
	return parts[0], variant, true
}

// Resize asks the client for a new size. Nothing happens unless the client
// is running and the size actually differs.
func (s *Surface) Resize(width, height int) {
	current := s.window.Surface.Size()
	if current.Width == width && current.Height == height {
		return
	}
	if !s.clientIsRunning() {
		s.logger.Debug("ignoring resize, client not running", "size", scene.Size{Width: width, Height: height}.String())
		return
	}
	s.logger.Debug("resizing", "old", current.String(), "new", scene.Size{Width: width, Height: height}.String())
	s.window.Surface.Resize(scene.Size{Width: width, Height: height})
}

// SetState requests a window state change through the window controller.
// The state itself changes when the window model reports back.
func (s *Surface) SetState(state scene.State) {
	if err := s.controller.SetAttribute(s.window, scene.AttribState, int(state)); err != nil {
		s.logger.Warn("set state attribute failed", "state", state.String(), "error", err)
	}
}

// UpdateState records a state reported by the window model.
func (s *Surface) UpdateState(state scene.State) {
	if state == s.state {
		return
	}
	s.state = state
	s.emit(StateChanged)
}

func (s *Surface) SetPosition(p scene.Point) {
	if p == s.position {
		return
	}
	s.position = p
	s.emit(PositionChanged)
}

// MoveTo asks the client window to move its top-left corner to p. The
// position itself follows when the window model reports the move.
func (s *Surface) MoveTo(p scene.Point) {
	if !s.live || s.destroyed {
		return
	}
	if p == s.position {
		return
	}
	s.logger.Debug("moving", "x", p.X, "y", p.Y)
	s.window.Surface.MoveTo(p)
}

// SetReady marks the surface as having shown its first frame to the user.
func (s *Surface) SetReady() {
	if s.ready {
		return
	}
	s.ready = true
	s.emit(ReadyChanged)
}

// RequestFocus asks the shell to focus this surface.
func (s *Surface) RequestFocus() {
	s.logger.Debug("focus requested")
	s.emit(FocusRequested)
}

// Raise asks the shell to raise this surface.
func (s *Surface) Raise() {
	s.logger.Debug("raise requested")
	s.emit(RaiseRequested)
}

func (s *Surface) MinimumWidth() int    { return s.minWidth }
func (s *Surface) MinimumHeight() int   { return s.minHeight }
func (s *Surface) MaximumWidth() int    { return s.maxWidth }
func (s *Surface) MaximumHeight() int   { return s.maxHeight }
func (s *Surface) WidthIncrement() int  { return s.widthInc }
func (s *Surface) HeightIncrement() int { return s.heightInc }

func (s *Surface) SetMinimumWidth(v int)    { s.setConstraint(&s.minWidth, v, MinimumWidthChanged) }
func (s *Surface) SetMinimumHeight(v int)   { s.setConstraint(&s.minHeight, v, MinimumHeightChanged) }
func (s *Surface) SetMaximumWidth(v int)    { s.setConstraint(&s.maxWidth, v, MaximumWidthChanged) }
func (s *Surface) SetMaximumHeight(v int)   { s.setConstraint(&s.maxHeight, v, MaximumHeightChanged) }
func (s *Surface) SetWidthIncrement(v int)  { s.setConstraint(&s.widthInc, v, WidthIncrementChanged) }
func (s *Surface) SetHeightIncrement(v int) { s.setConstraint(&s.heightInc, v, HeightIncrementChanged) }

func (s *Surface) setConstraint(field *int, v int, c Change) {
	if *field == v {
		return
	}
	*field = v
	s.emit(c)
}
