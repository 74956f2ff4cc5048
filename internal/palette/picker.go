package palette

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/1broseidon/surfaced/internal/surface"
)

// Action is what the picker does with the chosen surface.
type Action int

const (
	ActionActivate Action = iota
	ActionRaise
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionActivate:
		return "activate"
	case ActionRaise:
		return "raise"
	case ActionClose:
		return "close"
	default:
		return "unknown"
	}
}

// actionFor maps a launcher exit code onto an action.
func actionFor(exitCode int) Action {
	switch exitCode {
	case ExitCustom1:
		return ActionRaise
	case ExitCustom2:
		return ActionClose
	default:
		return ActionActivate
	}
}

// Controls is the daemon API the picker needs. *ipc.Client implements it.
type Controls interface {
	List() ([]surface.Info, error)
	Activate(id uint64) error
	Raise(ids ...uint64) error
	Close(id uint64) error
}

// Picker lets the user choose a surface and acts on it.
type Picker struct {
	backend  Backend
	controls Controls
}

func NewPicker(backend Backend, controls Controls) *Picker {
	return &Picker{backend: backend, controls: controls}
}

// Choice is the outcome of a successful pick.
type Choice struct {
	Surface uint64
	Action  Action
}

// Run shows the surfaces, applies the chosen action and returns it.
func (p *Picker) Run() (Choice, error) {
	surfaces, err := p.controls.List()
	if err != nil {
		return Choice{}, err
	}
	if len(surfaces) == 0 {
		return Choice{}, fmt.Errorf("no surfaces to pick from")
	}

	caps := p.backend.Capabilities()
	rows, ids := buildRows(surfaces, caps.NonSelectable)
	message := ""
	if caps.CustomKeys {
		message = "Enter: activate   Alt+Return: raise   Alt+d: close"
	}

	for {
		sel, err := p.backend.Show("surfaces", rows, message)
		if err != nil {
			return Choice{}, err
		}
		// Launchers without non-selectable rows can return a header.
		if sel.Index < 0 || sel.Index >= len(ids) || ids[sel.Index] == 0 {
			continue
		}
		choice := Choice{Surface: ids[sel.Index], Action: actionFor(sel.ExitCode)}
		return choice, p.apply(choice)
	}
}

func (p *Picker) apply(c Choice) error {
	switch c.Action {
	case ActionRaise:
		return p.controls.Raise(c.Surface)
	case ActionClose:
		return p.controls.Close(c.Surface)
	default:
		return p.controls.Activate(c.Surface)
	}
}

// buildRows lists surfaces grouped by application. ids holds the surface id
// of each row, or 0 for a group header.
func buildRows(surfaces []surface.Info, headers bool) ([]Item, []uint64) {
	groups := make(map[string][]surface.Info)
	var apps []string
	for _, s := range surfaces {
		if _, ok := groups[s.AppID]; !ok {
			apps = append(apps, s.AppID)
		}
		groups[s.AppID] = append(groups[s.AppID], s)
	}
	sort.Strings(apps)

	rows := make([]Item, 0, len(surfaces)+len(apps))
	ids := make([]uint64, 0, cap(rows))
	for _, app := range apps {
		if headers {
			name := app
			if name == "" {
				name = "(no app id)"
			}
			rows = append(rows, Item{Label: name, IsHeader: true})
			ids = append(ids, 0)
		}
		for _, s := range groups[app] {
			rows = append(rows, surfaceRow(s))
			ids = append(ids, s.ID)
		}
	}
	return rows, ids
}

func surfaceRow(s surface.Info) Item {
	title := s.Name
	if title == "" {
		title = "(untitled)"
	}
	label := title
	if s.AppID != "" {
		label = fmt.Sprintf("%s  [%s]", title, s.AppID)
	}
	if !s.Visible {
		label += "  (hidden)"
	}
	return Item{
		Label:    label,
		Icon:     s.AppID,
		Info:     strconv.FormatUint(s.ID, 10),
		Meta:     s.AppID + " " + s.State,
		IsActive: s.Focused,
		IsUrgent: s.Closing == surface.CloseOverdue.String(),
	}
}
