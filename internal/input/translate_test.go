package input

import (
	"testing"
	"time"

	"github.com/1broseidon/surfaced/internal/scene"
)

func TestTranslateModifiers(t *testing.T) {
	tests := []struct {
		in   Modifiers
		want scene.InputModifiers
	}{
		{0, scene.ModifierNone},
		{ShiftModifier, scene.ModifierShift},
		{ControlModifier | AltModifier, scene.ModifierCtrl | scene.ModifierAlt},
		{MetaModifier | KeypadModifier, scene.ModifierMeta},
	}
	for _, tt := range tests {
		if got := TranslateModifiers(tt.in); got != tt.want {
			t.Fatalf("TranslateModifiers(%b) = %b, want %b", tt.in, got, tt.want)
		}
	}
}

func TestTranslateButtons(t *testing.T) {
	got := TranslateButtons(LeftButton | MiddleButton | ForwardButton)
	want := scene.ButtonPrimary | scene.ButtonTertiary | scene.ButtonForward
	if got != want {
		t.Fatalf("TranslateButtons = %b, want %b", got, want)
	}
	if TranslateButtons(RightButton|BackButton) != scene.ButtonSecondary|scene.ButtonBack {
		t.Fatalf("unexpected secondary/back translation")
	}
}

func TestTimestamps_EpochAndWrap(t *testing.T) {
	ts := NewTimestamps(time.Second)
	if got := ts.Uncompress(5); got != time.Second+5*time.Millisecond {
		t.Fatalf("unexpected first timestamp %v", got)
	}

	ts = NewTimestamps(0)
	ts.Uncompress(0xFFFFFFF0)
	got := ts.Uncompress(0x10)
	want := time.Duration(uint64(1)<<32+0x10) * time.Millisecond
	if got != want {
		t.Fatalf("expected wrapped timestamp %v, got %v", want, got)
	}

	// Small backwards steps are reordering, not wraps.
	ts.Uncompress(0x20)
	if got := ts.Uncompress(0x18); got != time.Duration(uint64(1)<<32+0x18)*time.Millisecond {
		t.Fatalf("unexpected timestamp after small step back: %v", got)
	}
}

func TestTimestamps_LateEventFromBeforeWrap(t *testing.T) {
	ts := NewTimestamps(0)
	ts.Uncompress(0xFFFFFFF0)
	ts.Uncompress(0x10)

	got := ts.Uncompress(0xFFFFFFF8)
	if want := time.Duration(0xFFFFFFF8) * time.Millisecond; got != want {
		t.Fatalf("late event = %v, want %v", got, want)
	}
	// The late event must not disturb the current epoch.
	if got, want := ts.Uncompress(0x20), time.Duration(uint64(1)<<32+0x20)*time.Millisecond; got != want {
		t.Fatalf("next event = %v, want %v", got, want)
	}
	// Without a recorded wrap there is nothing to step back over.
	ts = NewTimestamps(0)
	ts.Uncompress(0x10)
	if got, want := ts.Uncompress(0xFFFFFFF8), time.Duration(0xFFFFFFF8)*time.Millisecond; got != want {
		t.Fatalf("unexpected timestamp %v, want %v", got, want)
	}
}

func TestTranslator_MouseHoverWheel(t *testing.T) {
	tr := NewTranslator(nil, nil)

	press := tr.Mouse(MouseEvent{Timestamp: 10, Modifiers: ShiftModifier, Buttons: LeftButton, X: 3, Y: 4}, scene.PointerButtonDown)
	if press.Action != scene.PointerButtonDown || press.Buttons != scene.ButtonPrimary || press.Modifiers != scene.ModifierShift {
		t.Fatalf("unexpected press translation: %+v", press)
	}
	if press.Timestamp != 10*time.Millisecond {
		t.Fatalf("unexpected timestamp %v", press.Timestamp)
	}

	hover := tr.Hover(HoverEvent{Timestamp: 11, X: 1, Y: 2}, scene.PointerEnter)
	if hover.Buttons != 0 || hover.Modifiers != scene.ModifierNone || hover.Action != scene.PointerEnter {
		t.Fatalf("unexpected hover translation: %+v", hover)
	}

	wheel := tr.Wheel(WheelEvent{Timestamp: 12, AngleDeltaX: -15, AngleDeltaY: 120})
	if wheel.Action != scene.PointerMotion || wheel.HScroll != -15 || wheel.VScroll != 120 {
		t.Fatalf("unexpected wheel translation: %+v", wheel)
	}
}

func TestTranslator_Key(t *testing.T) {
	tr := NewTranslator(nil, nil)
	tests := []struct {
		ev   KeyEvent
		want scene.KeyboardAction
	}{
		{KeyEvent{Type: KeyPress}, scene.KeyDown},
		{KeyEvent{Type: KeyRelease}, scene.KeyUp},
		{KeyEvent{Type: KeyPress, AutoRepeat: true}, scene.KeyRepeat},
	}
	for _, tt := range tests {
		if got := tr.Key(tt.ev).Action; got != tt.want {
			t.Fatalf("Key(%+v) action = %v, want %v", tt.ev, got, tt.want)
		}
	}

	ev := tr.Key(KeyEvent{NativeVirtualKey: 65, NativeScanCode: 38, NativeModifiers: 4})
	if ev.KeyCode != 65 || ev.ScanCode != 38 || ev.Modifiers != 4 {
		t.Fatalf("expected native codes to pass through, got %+v", ev)
	}
}

func TestTranslator_TouchTracksActiveIDs(t *testing.T) {
	tr := NewTranslator(nil, nil)

	down := tr.Touch(TouchEvent{Points: []TouchPoint{
		{ID: 1, State: TouchPointPressed, Pressure: 0.5, Width: 4, Height: 6},
		{ID: 2, State: TouchPointPressed, Pen: true},
	}})
	if down == nil || len(down.Touches) != 2 {
		t.Fatalf("expected two touches, got %+v", down)
	}
	if down.Touches[0].Action != scene.TouchDown || down.Touches[0].TouchMajor != 4 || down.Touches[0].TouchMinor != 6 {
		t.Fatalf("unexpected first touch: %+v", down.Touches[0])
	}
	if down.Touches[1].Tooltype != scene.TooltypeStylus {
		t.Fatalf("expected stylus tool type for pen point")
	}

	again := tr.Touch(TouchEvent{Points: []TouchPoint{{ID: 1, State: TouchPointPressed}}})
	if again.Touches[0].Action != scene.TouchChange {
		t.Fatalf("expected repeated press to become a change, got %v", again.Touches[0].Action)
	}

	mixed := tr.Touch(TouchEvent{Points: []TouchPoint{
		{ID: 1, State: TouchPointReleased},
		{ID: 9, State: TouchPointMoved},
	}})
	if len(mixed.Touches) != 1 || mixed.Touches[0].ID != 1 || mixed.Touches[0].Action != scene.TouchUp {
		t.Fatalf("expected only the release of id 1, got %+v", mixed.Touches)
	}
	if tr.ActiveTouches() != 1 {
		t.Fatalf("expected one active touch, got %d", tr.ActiveTouches())
	}

	if ev := tr.Touch(TouchEvent{Points: []TouchPoint{{ID: 7, State: TouchPointReleased}}}); ev != nil {
		t.Fatalf("expected all-stray event to be dropped, got %+v", ev)
	}

	tr.Reset()
	if tr.ActiveTouches() != 0 {
		t.Fatalf("expected reset to clear active touches")
	}
}
