package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/surfaced/internal/surface"
)

// surfaceItem is a list item representing one surface.
type surfaceItem struct {
	info surface.Info
}

func (i surfaceItem) Title() string {
	marker := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("○")
	if i.info.Focused {
		marker = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	}
	name := i.info.Name
	if name == "" {
		name = "(untitled)"
	}
	return fmt.Sprintf("%s %s", marker, name)
}

func (i surfaceItem) Description() string {
	parts := []string{fmt.Sprintf("#%d", i.info.ID)}
	if i.info.AppID != "" {
		parts = append(parts, i.info.AppID)
	}
	parts = append(parts,
		fmt.Sprintf("%dx%d+%d+%d", i.info.Width, i.info.Height, i.info.X, i.info.Y),
		i.info.State,
	)
	if !i.info.Visible {
		parts = append(parts, "hidden")
	}
	if i.info.Closing != "" && i.info.Closing != "not-closing" {
		parts = append(parts, i.info.Closing)
	}
	return strings.Join(parts, " | ")
}

func (i surfaceItem) FilterValue() string { return i.info.Name + " " + i.info.AppID }

func buildSurfaceItems(infos []surface.Info) []list.Item {
	items := make([]list.Item, 0, len(infos))
	for _, info := range infos {
		items = append(items, surfaceItem{info: info})
	}
	return items
}

// SurfacesTab is the sub-model for the Surfaces tab.
type SurfacesTab struct {
	list list.Model
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = title
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

func NewSurfacesTab() SurfacesTab {
	return SurfacesTab{list: newList("Surfaces")}
}

// SetSurfaces replaces the listed surfaces, keeping the selection on the
// same window when it still exists.
func (t *SurfacesTab) SetSurfaces(infos []surface.Info) tea.Cmd {
	selected, hadSelection := t.Selected()
	cmd := t.list.SetItems(buildSurfaceItems(infos))
	if hadSelection {
		for i, info := range infos {
			if info.ID == selected.ID {
				t.list.Select(i)
				break
			}
		}
	}
	return cmd
}

// Selected returns the highlighted surface.
func (t SurfacesTab) Selected() (surface.Info, bool) {
	item, ok := t.list.SelectedItem().(surfaceItem)
	if !ok {
		return surface.Info{}, false
	}
	return item.info, true
}

// Filtering reports whether the list is capturing keys for its filter.
func (t SurfacesTab) Filtering() bool {
	return t.list.FilterState() == list.Filtering
}

func (t SurfacesTab) Update(msg tea.Msg) (SurfacesTab, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		t.list.SetSize(size.Width, size.Height)
		return t, nil
	}
	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t SurfacesTab) View() string {
	return t.list.View()
}
