package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/surfaced/internal/ipc"
)

// sessionItem is a list item representing one client session.
type sessionItem struct {
	info ipc.SessionInfo
}

func (i sessionItem) Title() string { return i.info.AppID }

func (i sessionItem) Description() string {
	n := len(i.info.Surfaces)
	noun := "surfaces"
	if n == 1 {
		noun = "surface"
	}
	return fmt.Sprintf("pid %d | %s | %d %s", i.info.PID, i.info.State, n, noun)
}

func (i sessionItem) FilterValue() string { return i.info.AppID }

// SessionsTab is the sub-model for the Sessions tab.
type SessionsTab struct {
	list list.Model
}

func NewSessionsTab() SessionsTab {
	return SessionsTab{list: newList("Sessions")}
}

func (t *SessionsTab) SetSessions(sessions []ipc.SessionInfo) tea.Cmd {
	items := make([]list.Item, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionItem{info: s})
	}
	return t.list.SetItems(items)
}

// Selected returns the highlighted session.
func (t SessionsTab) Selected() (ipc.SessionInfo, bool) {
	item, ok := t.list.SelectedItem().(sessionItem)
	if !ok {
		return ipc.SessionInfo{}, false
	}
	return item.info, true
}

func (t SessionsTab) Filtering() bool {
	return t.list.FilterState() == list.Filtering
}

func (t SessionsTab) Update(msg tea.Msg) (SessionsTab, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		t.list.SetSize(size.Width, size.Height)
		return t, nil
	}
	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t SessionsTab) View() string {
	return t.list.View()
}
