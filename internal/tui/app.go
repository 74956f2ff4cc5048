package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/surface"
)

const defaultRefreshInterval = 2 * time.Second

// Backend is the daemon API the TUI drives. *ipc.Client implements it.
type Backend interface {
	GetStatus() (*ipc.StatusData, error)
	List() ([]surface.Info, error)
	Sessions() ([]ipc.SessionInfo, error)
	Close(id uint64) error
	Raise(ids ...uint64) error
	Activate(id uint64) error
	SetFrameDropper(enabled bool) error
	SetInitialSize(pid, width, height int) error
}

var _ Backend = (*ipc.Client)(nil)

// refreshMsg carries a fresh snapshot of daemon state.
type refreshMsg struct {
	status   *ipc.StatusData
	surfaces []surface.Info
	sessions []ipc.SessionInfo
	err      error
}

type tickMsg time.Time

// actionMsg reports the outcome of a control request.
type actionMsg struct {
	what string
	err  error
}

// model is the root bubbletea model for the TUI.
type model struct {
	backend  Backend
	interval time.Duration

	activeTab   Tab
	surfacesTab SurfacesTab
	sessionsTab SessionsTab
	sizeForm    SizeForm

	status    *ipc.StatusData
	lastError string

	width  int
	height int
}

func newModel(backend Backend) model {
	return model{
		backend:     backend,
		interval:    defaultRefreshInterval,
		activeTab:   TabSurfaces,
		surfacesTab: NewSurfacesTab(),
		sessionsTab: NewSessionsTab(),
	}
}

func refresh(b Backend) tea.Cmd {
	return func() tea.Msg {
		status, err := b.GetStatus()
		if err != nil {
			return refreshMsg{err: err}
		}
		surfaces, err := b.List()
		if err != nil {
			return refreshMsg{status: status, err: err}
		}
		sessions, err := b.Sessions()
		if err != nil {
			return refreshMsg{status: status, surfaces: surfaces, err: err}
		}
		return refreshMsg{status: status, surfaces: surfaces, sessions: sessions}
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func action(what string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{what: what, err: fn()}
	}
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(refresh(m.backend), tick(m.interval))
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
		m.surfacesTab, _ = m.surfacesTab.Update(subMsg)
		m.sessionsTab, _ = m.sessionsTab.Update(subMsg)
		return m, nil

	case tickMsg:
		return m, tea.Batch(refresh(m.backend), tick(m.interval))

	case refreshMsg:
		return m.applyRefresh(msg)

	case actionMsg:
		if msg.err != nil {
			m.lastError = fmt.Sprintf("%s: %v", msg.what, msg.err)
		} else {
			m.lastError = ""
		}
		return m, refresh(m.backend)
	}

	// The size form captures all input while open.
	if m.sizeForm.Active() {
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var req *sizeRequest
		var cmd tea.Cmd
		m.sizeForm, req, cmd = m.sizeForm.Update(msg)
		if req != nil {
			b := m.backend
			return m, action("initial size", func() error {
				return b.SetInitialSize(req.pid, req.width, req.height)
			})
		}
		return m, cmd
	}

	if km, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		if handled, next, cmd := m.handleKey(km); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabSurfaces:
		m.surfacesTab, cmd = m.surfacesTab.Update(msg)
	case TabSessions:
		m.sessionsTab, cmd = m.sessionsTab.Update(msg)
	}
	return m, cmd
}

func (m model) applyRefresh(msg refreshMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = nil
		m.lastError = msg.err.Error()
		return m, nil
	}
	m.status = msg.status
	var cmds []tea.Cmd
	cmds = append(cmds, m.surfacesTab.SetSurfaces(msg.surfaces))
	cmds = append(cmds, m.sessionsTab.SetSessions(msg.sessions))
	return m, tea.Batch(cmds...)
}

func (m model) filtering() bool {
	switch m.activeTab {
	case TabSurfaces:
		return m.surfacesTab.Filtering()
	case TabSessions:
		return m.sessionsTab.Filtering()
	}
	return false
}

func (m model) handleKey(km tea.KeyMsg) (bool, model, tea.Cmd) {
	b := m.backend
	switch km.String() {
	case "ctrl+c", "q":
		return true, m, tea.Quit
	case "tab":
		m.activeTab = (m.activeTab + 1) % tabCount
		return true, m, nil
	case "shift+tab":
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		return true, m, nil
	case "1":
		m.activeTab = TabSurfaces
		return true, m, nil
	case "2":
		m.activeTab = TabSessions
		return true, m, nil
	case "f":
		// Suspended droppers get restarted, running ones get stopped.
		enable := m.status != nil && m.status.FrameDroppersSuspended
		return true, m, action("frame dropper", func() error { return b.SetFrameDropper(enable) })
	case "i":
		pid := 0
		if m.activeTab == TabSessions {
			if sess, ok := m.sessionsTab.Selected(); ok {
				pid = sess.PID
			}
		}
		cmd := m.sizeForm.Open(pid, m.width)
		return true, m, cmd
	}

	if m.activeTab != TabSurfaces {
		return false, m, nil
	}
	info, ok := m.surfacesTab.Selected()
	if !ok {
		return false, m, nil
	}
	switch km.String() {
	case "enter", "a":
		return true, m, action("activate", func() error { return b.Activate(info.ID) })
	case "r":
		return true, m, action("raise", func() error { return b.Raise(info.ID) })
	case "c":
		return true, m, action("close", func() error { return b.Close(info.ID) })
	}
	return false, m, nil
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.activeTab, m.lastError, m.width)

	var content string
	switch {
	case m.sizeForm.Active():
		content = m.sizeForm.View()
	case m.activeTab == TabSurfaces:
		content = m.surfacesTab.View()
	case m.activeTab == TabSessions:
		content = m.sessionsTab.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
