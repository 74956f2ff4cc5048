package surface

import "github.com/1broseidon/surfaced/internal/scene"

// observer receives protocol callbacks on the windowing goroutine and
// replays them on the surface's loop.
type observer struct {
	s *Surface
}

var _ scene.Observer = (*observer)(nil)

func (o *observer) FramesPosted() {
	o.s.postAlive(o.s.onFramesPosted)
}

func (o *observer) AttributeChanged(attrib scene.Attrib, value int) {
	o.s.postAlive(func() { o.s.onAttributeChanged(attrib, value) })
}

func (o *observer) NameChanged(string) {
	o.s.postAlive(func() { o.s.emit(NameChanged) })
}

func (o *observer) CursorChanged(shape scene.CursorShape) {
	o.s.postAlive(func() { o.s.setCursor(shape) })
}

func (o *observer) MinimumWidthChanged(v int) {
	o.s.postAlive(func() { o.s.SetMinimumWidth(v) })
}

func (o *observer) MinimumHeightChanged(v int) {
	o.s.postAlive(func() { o.s.SetMinimumHeight(v) })
}

func (o *observer) MaximumWidthChanged(v int) {
	o.s.postAlive(func() { o.s.SetMaximumWidth(v) })
}

func (o *observer) MaximumHeightChanged(v int) {
	o.s.postAlive(func() { o.s.SetMaximumHeight(v) })
}

func (o *observer) WidthIncrementChanged(v int) {
	o.s.postAlive(func() { o.s.SetWidthIncrement(v) })
}

func (o *observer) HeightIncrementChanged(v int) {
	o.s.postAlive(func() { o.s.SetHeightIncrement(v) })
}

func (o *observer) ShellChromeChanged(c scene.ShellChrome) {
	o.s.postAlive(func() { o.s.SetShellChrome(c) })
}

func (s *Surface) onFramesPosted() {
	if !s.firstFrameDrawn {
		s.firstFrameDrawn = true
		s.emit(FirstFrameDrawn)
	}
	// Give views a full interval to fetch the new frame.
	s.restartFrameDropper()
	s.emit(FramesPosted)
}

func (s *Surface) onAttributeChanged(attrib scene.Attrib, value int) {
	switch attrib {
	case scene.AttribType:
		s.emit(TypeChanged)
	case scene.AttribState:
		s.UpdateState(scene.State(value))
	case scene.AttribVisibility:
		s.emit(VisibleChanged)
	}
}
