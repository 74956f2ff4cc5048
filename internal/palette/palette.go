// Package palette drives an external dmenu-style launcher (rofi, fuzzel,
// wofi or dmenu) to pick a surface.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the launcher without choosing.
var ErrCancelled = errors.New("palette cancelled")

// Item is one row shown by a launcher.
type Item struct {
	Label    string
	Icon     string // icon name, shown by launchers that support icons
	Info     string // hidden data returned with the row
	Meta     string // hidden search keywords
	IsHeader bool   // non-selectable group header
	IsActive bool
	IsUrgent bool
}

// Selection is the chosen row and the launcher's exit code. Custom key
// bindings exit with ExitCustom1 and up.
type Selection struct {
	Index    int
	Item     Item
	ExitCode int
}

// Capabilities describes what a launcher can render or report.
type Capabilities struct {
	Icons         bool
	Markup        bool
	NonSelectable bool
	CustomKeys    bool
	IndexOutput   bool
	MessageBar    bool
	RowStates     bool
}

// Backend shows rows to the user and returns the one they picked.
type Backend interface {
	Show(prompt string, items []Item, message string) (Selection, error)
	Capabilities() Capabilities
}

// detectOrder is the preference order for auto detection.
var detectOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

var lookPath = exec.LookPath

// DetectBackend returns the first launcher found in PATH.
func DetectBackend() (string, error) {
	for _, name := range detectOrder {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(detectOrder, ", "))
}

// NewBackend creates a launcher backend by name. "" and "auto" detect one.
func NewBackend(name string, fuzzy bool) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	spec, ok := launchers[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(detectOrder, ", "))
	}
	if _, err := lookPath(spec.command); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return &launcher{spec: spec, fuzzy: fuzzy}, nil
}
