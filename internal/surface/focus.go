package surface

import "github.com/1broseidon/surfaced/internal/scene"

// SetFocused records the focus the window model assigned.
func (s *Surface) SetFocused(focused bool) {
	if s.focused == focused {
		return
	}
	s.focused = focused
	s.emit(FocusChanged)
}

// SetViewActiveFocus records whether view holds active focus for this
// surface. Focus is only pushed to the protocol when the set of actively
// focusing views changes, except that the very first unfocus always goes
// through.
func (s *Surface) SetViewActiveFocus(view ViewID, active bool) {
	_, has := s.activeFocusViews[view]
	switch {
	case active && !has:
		s.activeFocusViews[view] = struct{}{}
		s.updateActiveFocus()
	case !active && (has || s.neverSetSurfaceFocus):
		delete(s.activeFocusViews, view)
		s.updateActiveFocus()
	}
}

// HasActiveFocus reports whether any view holds active focus.
func (s *Surface) HasActiveFocus() bool {
	return len(s.activeFocusViews) > 0
}

func (s *Surface) updateActiveFocus() {
	if s.session == nil {
		return
	}
	// A trusted child session keeps exclusive control of focus.
	if s.session.ChildSessionCount() > 0 {
		s.logger.Debug("ignoring focus change, session has child sessions")
		return
	}

	value := scene.Unfocused
	if len(s.activeFocusViews) > 0 {
		value = scene.Focused
	}
	s.logger.Debug("pushing focus", "focused", value == scene.Focused)
	if err := s.controller.SetAttribute(s.window, scene.AttribFocus, value); err != nil {
		s.logger.Warn("set focus attribute failed", "error", err)
	}
	s.neverSetSurfaceFocus = false
}

// RegisterView adds view to the set of views rendering this surface.
func (s *Surface) RegisterView(view ViewID) {
	if _, ok := s.views[view]; ok {
		return
	}
	s.views[view] = &viewState{}
	s.logger.Debug("view registered", "view", uint64(view), "views", len(s.views))
	if len(s.views) == 1 {
		s.emit(BeingDisplayedChanged)
	}
}

// UnregisterView removes view. When the last view goes and the surface has
// no session or is no longer live, the surface is destroyed.
func (s *Surface) UnregisterView(view ViewID) {
	if _, ok := s.views[view]; !ok {
		s.logger.Debug("unregistering unknown view", "view", uint64(view))
		return
	}
	delete(s.views, view)
	s.logger.Debug("view unregistered", "view", uint64(view), "views", len(s.views), "live", s.live)

	if len(s.views) == 0 {
		s.translator.Reset()
		s.emit(BeingDisplayedChanged)
		if s.session == nil || !s.live {
			s.scheduleDestroy()
		}
	}
	s.updateVisibility()
	s.SetViewActiveFocus(view, false)
}

// SetViewVisibility records whether view currently shows the surface.
func (s *Surface) SetViewVisibility(view ViewID, visible bool) {
	v, ok := s.views[view]
	if !ok {
		return
	}
	v.visible = visible
	s.updateVisibility()
}

// IsBeingDisplayed reports whether any view is registered.
func (s *Surface) IsBeingDisplayed() bool {
	return len(s.views) > 0
}

// ViewCount reports the number of registered views.
func (s *Surface) ViewCount() int {
	return len(s.views)
}

// updateVisibility exposes the protocol surface iff some view shows it.
func (s *Surface) updateVisibility() {
	if !s.visibilityAggregation || !s.live {
		return
	}

	visible := false
	for _, v := range s.views {
		if v.visible {
			visible = true
			break
		}
	}
	if visible == s.Visible() {
		return
	}

	value := scene.Occluded
	if visible {
		value = scene.Exposed
	}
	s.logger.Debug("visibility changed", "visible", visible)
	s.window.Surface.Configure(scene.AttribVisibility, value)
}
