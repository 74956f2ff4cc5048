package surface

import (
	"github.com/1broseidon/surfaced/internal/input"
	"github.com/1broseidon/surfaced/internal/scene"
)

// Input methods translate toolkit events and hand them to the client
// synchronously.

func (s *Surface) MousePress(ev input.MouseEvent) {
	s.consume(s.translator.Mouse(ev, scene.PointerButtonDown))
}

func (s *Surface) MouseMove(ev input.MouseEvent) {
	s.consume(s.translator.Mouse(ev, scene.PointerMotion))
}

func (s *Surface) MouseRelease(ev input.MouseEvent) {
	s.consume(s.translator.Mouse(ev, scene.PointerButtonUp))
}

func (s *Surface) HoverEnter(ev input.HoverEvent) {
	s.consume(s.translator.Hover(ev, scene.PointerEnter))
}

func (s *Surface) HoverLeave(ev input.HoverEvent) {
	s.consume(s.translator.Hover(ev, scene.PointerLeave))
}

func (s *Surface) HoverMove(ev input.HoverEvent) {
	s.consume(s.translator.Hover(ev, scene.PointerMotion))
}

func (s *Surface) Wheel(ev input.WheelEvent) {
	s.consume(s.translator.Wheel(ev))
}

func (s *Surface) KeyPress(ev input.KeyEvent) {
	ev.Type = input.KeyPress
	s.consume(s.translator.Key(ev))
}

func (s *Surface) KeyRelease(ev input.KeyEvent) {
	ev.Type = input.KeyRelease
	s.consume(s.translator.Key(ev))
}

// Touch delivers a touch event unless every point in it was stray.
func (s *Surface) Touch(ev input.TouchEvent) {
	if tev := s.translator.Touch(ev); tev != nil {
		s.consume(tev)
	}
}

func (s *Surface) consume(ev scene.Event) {
	if s.destroyed {
		return
	}
	s.window.Surface.Consume(ev)
}
