package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/surface"
)

type fakeBackend struct {
	status    ipc.StatusData
	surfaces  []surface.Info
	sessions  []ipc.SessionInfo
	closed    []uint64
	raised    []uint64
	activated []uint64
	dropper   []bool
	sizes     map[int][2]int
	err       error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		status: ipc.StatusData{SurfaceCount: 2, SessionCount: 1, DaemonRunning: true},
		surfaces: []surface.Info{
			{ID: 10, Name: "shell", AppID: "term", Width: 640, Height: 480, State: "restored", Visible: true, Focused: true},
			{ID: 11, Name: "", AppID: "term", Width: 320, Height: 200, State: "minimized", Closing: "closing"},
		},
		sessions: []ipc.SessionInfo{{AppID: "term", PID: 42, State: "running", Surfaces: []uint64{10, 11}}},
		sizes:    make(map[int][2]int),
	}
}

func (f *fakeBackend) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := f.status
	return &s, nil
}

func (f *fakeBackend) List() ([]surface.Info, error)        { return f.surfaces, f.err }
func (f *fakeBackend) Sessions() ([]ipc.SessionInfo, error) { return f.sessions, f.err }

func (f *fakeBackend) Close(id uint64) error {
	f.closed = append(f.closed, id)
	return f.err
}

func (f *fakeBackend) Raise(ids ...uint64) error {
	f.raised = append(f.raised, ids...)
	return f.err
}

func (f *fakeBackend) Activate(id uint64) error {
	f.activated = append(f.activated, id)
	return f.err
}

func (f *fakeBackend) SetFrameDropper(enabled bool) error {
	f.dropper = append(f.dropper, enabled)
	return f.err
}

func (f *fakeBackend) SetInitialSize(pid, width, height int) error {
	f.sizes[pid] = [2]int{width, height}
	return f.err
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return nm, cmd
}

// loadedModel returns a sized model that has applied one refresh.
func loadedModel(t *testing.T, b *fakeBackend) model {
	t.Helper()
	m := newModel(b)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, refresh(b)())
	return m
}

func TestSurfaceItemFormatting(t *testing.T) {
	tests := []struct {
		name      string
		info      surface.Info
		wantTitle string
		wantDesc  []string
		noDesc    []string
	}{
		{
			name:      "focused visible",
			info:      surface.Info{ID: 3, Name: "editor", AppID: "code", Width: 800, Height: 600, X: 5, Y: 6, State: "maximized", Visible: true, Closing: "not-closing"},
			wantTitle: "editor",
			wantDesc:  []string{"#3", "code", "800x600+5+6", "maximized"},
			noDesc:    []string{"hidden", "not-closing"},
		},
		{
			name:      "untitled hidden closing",
			info:      surface.Info{ID: 4, State: "minimized", Closing: "close-overdue"},
			wantTitle: "(untitled)",
			wantDesc:  []string{"#4", "hidden", "close-overdue"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := surfaceItem{info: tt.info}
			if !strings.Contains(item.Title(), tt.wantTitle) {
				t.Fatalf("Title() = %q, want it to contain %q", item.Title(), tt.wantTitle)
			}
			desc := item.Description()
			for _, want := range tt.wantDesc {
				if !strings.Contains(desc, want) {
					t.Fatalf("Description() = %q, missing %q", desc, want)
				}
			}
			for _, unwanted := range tt.noDesc {
				if strings.Contains(desc, unwanted) {
					t.Fatalf("Description() = %q, should not contain %q", desc, unwanted)
				}
			}
		})
	}
}

func TestSessionItemDescription(t *testing.T) {
	one := sessionItem{info: ipc.SessionInfo{AppID: "a", PID: 7, State: "suspended", Surfaces: []uint64{1}}}
	if got := one.Description(); got != "pid 7 | suspended | 1 surface" {
		t.Fatalf("Description() = %q", got)
	}
	many := sessionItem{info: ipc.SessionInfo{AppID: "a", PID: 7, State: "running", Surfaces: []uint64{1, 2}}}
	if got := many.Description(); got != "pid 7 | running | 2 surfaces" {
		t.Fatalf("Description() = %q", got)
	}
}

func TestRefreshPopulatesTabs(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	if m.status == nil || m.status.SurfaceCount != 2 {
		t.Fatalf("status not applied: %+v", m.status)
	}
	sel, ok := m.surfacesTab.Selected()
	if !ok || sel.ID != 10 {
		t.Fatalf("Selected() = %+v, %v; want surface 10", sel, ok)
	}
	sess, ok := m.sessionsTab.Selected()
	if !ok || sess.PID != 42 {
		t.Fatalf("session Selected() = %+v, %v", sess, ok)
	}
	if view := m.View(); !strings.Contains(view, "daemon connected") {
		t.Fatalf("View() missing connection status:\n%s", view)
	}
}

func TestRefreshKeepsSelection(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if sel, _ := m.surfacesTab.Selected(); sel.ID != 11 {
		t.Fatalf("after down, Selected() = %d, want 11", sel.ID)
	}

	b.surfaces = []surface.Info{{ID: 12}, b.surfaces[0], b.surfaces[1]}
	m, _ = update(t, m, refresh(b)())
	if sel, _ := m.surfacesTab.Selected(); sel.ID != 11 {
		t.Fatalf("after refresh, Selected() = %d, want 11", sel.ID)
	}
}

func TestRefreshErrorShowsDisconnected(t *testing.T) {
	b := newFakeBackend()
	b.err = errors.New("failed to connect to daemon")
	m := newModel(b)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, refresh(b)())

	if m.status != nil {
		t.Fatalf("expected nil status after error")
	}
	view := m.View()
	if !strings.Contains(view, "daemon not running") || !strings.Contains(view, "failed to connect") {
		t.Fatalf("View() missing error state:\n%s", view)
	}
}

func TestSurfaceActions(t *testing.T) {
	tests := []struct {
		key   string
		check func(b *fakeBackend) bool
	}{
		{"enter", func(b *fakeBackend) bool { return len(b.activated) == 1 && b.activated[0] == 10 }},
		{"a", func(b *fakeBackend) bool { return len(b.activated) == 1 && b.activated[0] == 10 }},
		{"r", func(b *fakeBackend) bool { return len(b.raised) == 1 && b.raised[0] == 10 }},
		{"c", func(b *fakeBackend) bool { return len(b.closed) == 1 && b.closed[0] == 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			b := newFakeBackend()
			m := loadedModel(t, b)
			m, cmd := update(t, m, key(tt.key))
			if cmd == nil {
				t.Fatalf("key %q produced no command", tt.key)
			}
			msg := cmd()
			if !tt.check(b) {
				t.Fatalf("key %q did not reach the backend: %+v", tt.key, b)
			}
			m, next := update(t, m, msg)
			if next == nil {
				t.Fatalf("action result should trigger a refresh")
			}
			if m.lastError != "" {
				t.Fatalf("unexpected error %q", m.lastError)
			}
		})
	}
}

func TestActionErrorIsShown(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)
	m, _ = update(t, m, actionMsg{what: "close", err: errors.New("unknown window 10")})
	if m.lastError != "close: unknown window 10" {
		t.Fatalf("lastError = %q", m.lastError)
	}
	if view := m.View(); !strings.Contains(view, "unknown window 10") {
		t.Fatalf("View() missing error:\n%s", view)
	}
}

func TestFrameDropperToggle(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	_, cmd := update(t, m, key("f"))
	cmd()
	b.status.FrameDroppersSuspended = true
	m, _ = update(t, m, refresh(b)())
	_, cmd = update(t, m, key("f"))
	cmd()

	if len(b.dropper) != 2 || b.dropper[0] || !b.dropper[1] {
		t.Fatalf("dropper calls = %v, want [false true]", b.dropper)
	}
}

func TestTabSwitching(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	m, _ = update(t, m, key("tab"))
	if m.activeTab != TabSessions {
		t.Fatalf("activeTab = %v, want Sessions", m.activeTab)
	}
	// Surface actions are inert on the sessions tab.
	m, _ = update(t, m, key("c"))
	if len(b.closed) != 0 {
		t.Fatalf("close should not fire on sessions tab")
	}
	m, _ = update(t, m, key("1"))
	if m.activeTab != TabSurfaces {
		t.Fatalf("activeTab = %v, want Surfaces", m.activeTab)
	}
}

func TestInitialSizeFormOpensWithSessionPID(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)
	m, _ = update(t, m, key("2"))
	m, _ = update(t, m, key("i"))

	if !m.sizeForm.Active() {
		t.Fatalf("size form should be open")
	}
	if m.sizeForm.fPID != "42" {
		t.Fatalf("pid prefill = %q, want 42", m.sizeForm.fPID)
	}
	// Keys go to the form, not the tabs.
	m, _ = update(t, m, key("q"))
	if !m.sizeForm.Active() {
		t.Fatalf("form should still be open")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.sizeForm.Active() {
		t.Fatalf("esc should close the form")
	}
}

func TestSizeFormRequest(t *testing.T) {
	f := SizeForm{fPID: "42", fWidth: "800", fHeight: "600"}
	req, err := f.request()
	if err != nil {
		t.Fatalf("request() error: %v", err)
	}
	if req.pid != 42 || req.width != 800 || req.height != 600 {
		t.Fatalf("request() = %+v", req)
	}

	f.fWidth = "wide"
	if _, err := f.request(); err == nil {
		t.Fatalf("expected error for non-numeric width")
	}
}

func TestPositiveInt(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"1", false},
		{"1920", false},
		{"0", true},
		{"-5", true},
		{"abc", true},
		{"", true},
	}
	for _, tt := range tests {
		if err := positiveInt(tt.in); (err != nil) != tt.wantErr {
			t.Fatalf("positiveInt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestQuit(t *testing.T) {
	m := newModel(newFakeBackend())
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatalf("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q should produce QuitMsg")
	}
}
