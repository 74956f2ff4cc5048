package surface

import "github.com/1broseidon/surfaced/internal/timer"

// Close asks the client to close its window. If it has not complied when
// the close timer fires, the window is destroyed without its cooperation.
// Calling Close again while a close is in progress does nothing.
func (s *Surface) Close() {
	if s.closing != NotClosing {
		return
	}
	s.logger.Debug("close requested")

	s.closing = Closing
	s.emit(CloseRequested)
	s.closeTimer.Start()
	s.window.Surface.RequestClientClose()
}

// SetCloseTimer replaces the close timer. A countdown that was running
// carries over to the new timer.
func (s *Surface) SetCloseTimer(t timer.Timer) {
	wasRunning := false
	if s.closeTimer != nil {
		wasRunning = s.closeTimer.IsRunning()
		s.closeTimer.Stop()
		s.closeTimer.OnTimeout(nil)
	}

	s.closeTimer = t
	t.SetInterval(s.closeTimeout)
	t.SetSingleShot(true)
	t.OnTimeout(s.onCloseTimedOut)

	if wasRunning {
		t.Start()
	}
}

func (s *Surface) onCloseTimedOut() {
	if s.destroyed || s.closing != Closing {
		return
	}
	s.logger.Info("client did not close in time, forcing close", "timeout", s.closeTimeout)

	s.closing = CloseOverdue
	if err := s.controller.ForceClose(s.window); err != nil {
		s.logger.Warn("force close failed", "error", err)
	}
}
