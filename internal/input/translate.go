package input

import (
	"log/slog"
	"sync"

	"github.com/1broseidon/surfaced/internal/scene"
)

// TranslateModifiers maps toolkit modifiers onto native modifier bits.
// Keypad has no native counterpart and is dropped.
func TranslateModifiers(m Modifiers) scene.InputModifiers {
	out := scene.ModifierNone
	if m&ShiftModifier != 0 {
		out |= scene.ModifierShift
	}
	if m&ControlModifier != 0 {
		out |= scene.ModifierCtrl
	}
	if m&AltModifier != 0 {
		out |= scene.ModifierAlt
	}
	if m&MetaModifier != 0 {
		out |= scene.ModifierMeta
	}
	return out
}

// TranslateButtons maps toolkit mouse buttons onto native pointer buttons.
func TranslateButtons(b MouseButtons) scene.PointerButtons {
	var out scene.PointerButtons
	if b&LeftButton != 0 {
		out |= scene.ButtonPrimary
	}
	if b&RightButton != 0 {
		out |= scene.ButtonSecondary
	}
	if b&MiddleButton != 0 {
		out |= scene.ButtonTertiary
	}
	if b&BackButton != 0 {
		out |= scene.ButtonBack
	}
	if b&ForwardButton != 0 {
		out |= scene.ButtonForward
	}
	return out
}

// Translator converts toolkit events for one surface. Apart from timestamp
// unwrapping, the only state it keeps is the set of touch ids currently
// down, used to reject stray touch points.
type Translator struct {
	timestamps *Timestamps
	logger     *slog.Logger

	mu     sync.Mutex
	active map[int]struct{}
}

func NewTranslator(timestamps *Timestamps, logger *slog.Logger) *Translator {
	if timestamps == nil {
		timestamps = NewTimestamps(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		timestamps: timestamps,
		logger:     logger.With("component", "input"),
		active:     make(map[int]struct{}),
	}
}

// Mouse translates a press, move or release. The caller picks the action.
func (t *Translator) Mouse(ev MouseEvent, action scene.PointerAction) *scene.PointerEvent {
	return &scene.PointerEvent{
		Timestamp: t.timestamps.Uncompress(ev.Timestamp),
		Modifiers: TranslateModifiers(ev.Modifiers),
		Action:    action,
		Buttons:   TranslateButtons(ev.Buttons),
		X:         ev.X,
		Y:         ev.Y,
	}
}

// Hover translates an enter, leave or move. Hover events carry no buttons
// or modifiers.
func (t *Translator) Hover(ev HoverEvent, action scene.PointerAction) *scene.PointerEvent {
	return &scene.PointerEvent{
		Timestamp: t.timestamps.Uncompress(ev.Timestamp),
		Modifiers: scene.ModifierNone,
		Action:    action,
		X:         ev.X,
		Y:         ev.Y,
	}
}

// Wheel translates a wheel event into a motion carrying scroll deltas.
func (t *Translator) Wheel(ev WheelEvent) *scene.PointerEvent {
	return &scene.PointerEvent{
		Timestamp: t.timestamps.Uncompress(ev.Timestamp),
		Modifiers: TranslateModifiers(ev.Modifiers),
		Action:    scene.PointerMotion,
		Buttons:   TranslateButtons(ev.Buttons),
		X:         ev.X,
		Y:         ev.Y,
		HScroll:   ev.AngleDeltaX,
		VScroll:   ev.AngleDeltaY,
	}
}

// Key translates a key press or release. Native codes pass through as-is.
func (t *Translator) Key(ev KeyEvent) *scene.KeyboardEvent {
	action := scene.KeyDown
	if ev.Type == KeyRelease {
		action = scene.KeyUp
	}
	if ev.AutoRepeat {
		action = scene.KeyRepeat
	}
	return &scene.KeyboardEvent{
		Timestamp: t.timestamps.Uncompress(ev.Timestamp),
		Action:    action,
		KeyCode:   ev.NativeVirtualKey,
		ScanCode:  ev.NativeScanCode,
		Modifiers: ev.NativeModifiers,
	}
}

// Touch translates a multi-point touch event. A press for an id that is
// already down becomes a change; a move or release for an id that is not
// down is dropped. It returns nil when every point was dropped.
func (t *Translator) Touch(ev TouchEvent) *scene.TouchEvent {
	t.mu.Lock()
	touches := make([]scene.Touch, 0, len(ev.Points))
	for _, p := range ev.Points {
		_, down := t.active[p.ID]

		action := scene.TouchChange
		switch p.State {
		case TouchPointReleased:
			action = scene.TouchUp
		case TouchPointPressed:
			action = scene.TouchDown
		}

		switch {
		case action == scene.TouchDown && down:
			action = scene.TouchChange
		case action != scene.TouchDown && !down:
			t.logger.Debug("dropping stray touch point", "id", p.ID, "state", p.State)
			continue
		}

		switch action {
		case scene.TouchDown:
			t.active[p.ID] = struct{}{}
		case scene.TouchUp:
			delete(t.active, p.ID)
		}

		tooltype := scene.TooltypeFinger
		if p.Pen {
			tooltype = scene.TooltypeStylus
		}
		touches = append(touches, scene.Touch{
			ID:         p.ID,
			Action:     action,
			Tooltype:   tooltype,
			X:          p.X,
			Y:          p.Y,
			Pressure:   p.Pressure,
			TouchMajor: p.Width,
			TouchMinor: p.Height,
		})
	}
	t.mu.Unlock()

	if len(touches) == 0 {
		return nil
	}
	return &scene.TouchEvent{
		Timestamp: t.timestamps.Uncompress(ev.Timestamp),
		Modifiers: TranslateModifiers(ev.Modifiers),
		Touches:   touches,
	}
}

// ActiveTouches reports how many touch ids are currently down.
func (t *Translator) ActiveTouches() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Reset forgets every active touch, for example after the surface loses its
// last view mid-gesture.
func (t *Translator) Reset() {
	t.mu.Lock()
	t.active = make(map[int]struct{})
	t.mu.Unlock()
}
