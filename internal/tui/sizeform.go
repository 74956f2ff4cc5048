package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// sizeRequest is a completed initial-size form.
type sizeRequest struct {
	pid    int
	width  int
	height int
}

// SizeForm edits the initial size the next window of a process opens at.
type SizeForm struct {
	form   *huh.Form
	active bool

	fPID    string
	fWidth  string
	fHeight string
}

func positiveInt(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// Open starts the form, prefilling the pid when it is known.
func (f *SizeForm) Open(pid int, width int) tea.Cmd {
	f.fPID = ""
	if pid > 0 {
		f.fPID = strconv.Itoa(pid)
	}
	f.fWidth = ""
	f.fHeight = ""

	w := width - 4
	if w < 20 {
		w = 20
	}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("pid").
				Title("Process ID").
				Description("Process whose next top-level window is sized").
				Validate(positiveInt).
				Value(&f.fPID),
			huh.NewInput().
				Key("width").
				Title("Width").
				Validate(positiveInt).
				Value(&f.fWidth),
			huh.NewInput().
				Key("height").
				Title("Height").
				Validate(positiveInt).
				Value(&f.fHeight),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)
	f.active = true
	return f.form.Init()
}

func (f SizeForm) Active() bool { return f.active }

// Update feeds msg to the form. It returns a request once the form completes.
func (f SizeForm) Update(msg tea.Msg) (SizeForm, *sizeRequest, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		f.active = false
		f.form = nil
		return f, nil, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		req, err := f.request()
		f.active = false
		f.form = nil
		if err != nil {
			return f, nil, nil
		}
		return f, req, nil
	case huh.StateAborted:
		f.active = false
		f.form = nil
		return f, nil, nil
	}
	return f, nil, cmd
}

func (f SizeForm) request() (*sizeRequest, error) {
	pid, err := strconv.Atoi(f.fPID)
	if err != nil {
		return nil, err
	}
	w, err := strconv.Atoi(f.fWidth)
	if err != nil {
		return nil, err
	}
	h, err := strconv.Atoi(f.fHeight)
	if err != nil {
		return nil, err
	}
	return &sizeRequest{pid: pid, width: w, height: h}, nil
}

func (f SizeForm) View() string {
	if f.form == nil {
		return ""
	}
	return f.form.View()
}
