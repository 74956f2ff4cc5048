package scene

import "fmt"

// NotificationKind identifies a window-model notification.
type NotificationKind int

const (
	WindowAdded NotificationKind = iota
	WindowRemoved
	WindowReady
	WindowMoved
	WindowStateChanged
	WindowFocusChanged
	WindowsRaised
	WindowRequestedRaise
	ModificationsStarted
	ModificationsEnded
)

func (k NotificationKind) String() string {
	switch k {
	case WindowAdded:
		return "window-added"
	case WindowRemoved:
		return "window-removed"
	case WindowReady:
		return "window-ready"
	case WindowMoved:
		return "window-moved"
	case WindowStateChanged:
		return "window-state-changed"
	case WindowFocusChanged:
		return "window-focus-changed"
	case WindowsRaised:
		return "windows-raised"
	case WindowRequestedRaise:
		return "window-requested-raise"
	case ModificationsStarted:
		return "modifications-started"
	case ModificationsEnded:
		return "modifications-ended"
	default:
		return fmt.Sprintf("notification(%d)", int(k))
	}
}

// NewWindow carries everything the registry needs to wrap a freshly added
// window.
type NewWindow struct {
	Window Window
	// Parent is zero for top-level windows.
	Parent WindowID
	// App identifies the owning session; empty when unknown.
	App   string
	PID   int
	Hints CreationHints
}

// Notification is one window-model change. Only the fields relevant to Kind
// are set.
type Notification struct {
	Kind    NotificationKind
	Window  Window
	New     NewWindow
	TopLeft Point
	State   State
	Focused bool
	Windows []Window
}

// Sink accepts window-model notifications from the windowing goroutine.
// Notify must not block.
type Sink interface {
	Notify(n Notification)
}

func Added(nw NewWindow) Notification {
	return Notification{Kind: WindowAdded, Window: nw.Window, New: nw}
}

func Removed(w Window) Notification {
	return Notification{Kind: WindowRemoved, Window: w}
}

func Ready(w Window) Notification {
	return Notification{Kind: WindowReady, Window: w}
}

func Moved(w Window, topLeft Point) Notification {
	return Notification{Kind: WindowMoved, Window: w, TopLeft: topLeft}
}

func StateChanged(w Window, s State) Notification {
	return Notification{Kind: WindowStateChanged, Window: w, State: s}
}

func FocusChanged(w Window, focused bool) Notification {
	return Notification{Kind: WindowFocusChanged, Window: w, Focused: focused}
}

func Raised(windows []Window) Notification {
	return Notification{Kind: WindowsRaised, Windows: windows}
}

func RequestedRaise(w Window) Notification {
	return Notification{Kind: WindowRequestedRaise, Window: w}
}
