package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// Launcher exit codes. Custom codes come from rofi's kb-custom-N bindings.
const (
	ExitNormal  = 0
	ExitCustom1 = 10 // Alt+Return
	ExitCustom2 = 11 // Alt+d
	ExitCustom3 = 12
)

type flavor int

const (
	flavorRofi flavor = iota
	flavorFuzzel
	flavorWofi
	flavorDmenu
)

type launcherSpec struct {
	command string
	flavor  flavor
	caps    Capabilities
}

var launchers = map[string]launcherSpec{
	"rofi": {command: "rofi", flavor: flavorRofi, caps: Capabilities{
		Icons: true, Markup: true, NonSelectable: true, CustomKeys: true,
		IndexOutput: true, MessageBar: true, RowStates: true,
	}},
	"fuzzel": {command: "fuzzel", flavor: flavorFuzzel, caps: Capabilities{
		Icons: true, IndexOutput: true,
	}},
	"wofi": {command: "wofi", flavor: flavorWofi, caps: Capabilities{
		Icons: true, Markup: true,
	}},
	"dmenu": {command: "dmenu", flavor: flavorDmenu},
}

// runLauncher executes the launcher and returns its trimmed stdout.
var runLauncher = func(command string, args []string, input string) (string, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			exitErr.Stderr = bytes.TrimSpace(stderr.Bytes())
		}
	}
	return strings.TrimSpace(string(out)), err
}

type launcher struct {
	spec  launcherSpec
	fuzzy bool
}

// rowHints carries rofi row highlighting passed on the command line.
type rowHints struct {
	active   []int
	urgent   []int
	selected int // -1 when there is no selectable row
}

func (l *launcher) Capabilities() Capabilities { return l.spec.caps }

func (l *launcher) Show(prompt string, items []Item, message string) (Selection, error) {
	if len(items) == 0 {
		return Selection{}, fmt.Errorf("palette: no items to show")
	}

	rows := make([]Item, len(items))
	copy(rows, items)

	input, hints := l.render(rows)
	out, err := runLauncher(l.spec.command, l.args(prompt, message, hints), input)

	exitCode := ExitNormal
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Selection{}, fmt.Errorf("%s failed: %w", l.spec.command, err)
		}
		exitCode = exitErr.ExitCode()
		// 1 is "no selection", 130 is Ctrl+C.
		if out == "" && (exitCode == 1 || exitCode == 130) {
			return Selection{}, ErrCancelled
		}
		if exitCode < ExitCustom1 || exitCode > ExitCustom3 {
			if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
				return Selection{}, fmt.Errorf("%s failed: %s", l.spec.command, msg)
			}
			return Selection{}, fmt.Errorf("%s failed: %w", l.spec.command, err)
		}
	}
	if out == "" {
		return Selection{}, ErrCancelled
	}

	idx, err := l.parse(out, rows)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Index: idx, Item: items[idx], ExitCode: exitCode}, nil
}

func (l *launcher) args(prompt, message string, hints rowHints) []string {
	var args []string
	switch l.spec.flavor {
	case flavorRofi:
		args = []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		// Index output survives labels with markup or separators.
		args = append(args, "-format", "i", "-no-custom")
		if l.fuzzy {
			args = append(args, "-matching", "fuzzy")
		}
		args = append(args, "-markup-rows", "-show-icons")
		if len(hints.active) > 0 {
			args = append(args, "-a", joinInts(hints.active))
		}
		if len(hints.urgent) > 0 {
			args = append(args, "-u", joinInts(hints.urgent))
		}
		if hints.selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(hints.selected))
		}
		args = append(args, "-kb-custom-1", "Alt+Return", "-kb-custom-2", "Alt+d")
		if message != "" {
			args = append(args, "-mesg", message)
		}
	case flavorFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case flavorWofi:
		args = []string{"--dmenu", "--allow-markup", "--allow-images"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case flavorDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// render builds launcher input, one row per line. Launchers that echo the
// label back get duplicate labels numbered so every row stays distinct.
func (l *launcher) render(rows []Item) (string, rowHints) {
	hints := rowHints{selected: -1}
	firstActive := -1

	if !l.spec.caps.IndexOutput {
		seen := make(map[string]int)
		for i := range rows {
			if rows[i].IsHeader {
				continue
			}
			label := cleanLabel(rows[i].Label)
			if n := seen[label]; n > 0 {
				rows[i].Label = fmt.Sprintf("%s (%d)", label, n+1)
			}
			seen[label]++
		}
	}

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		lines = append(lines, l.line(row))
		if row.IsHeader {
			continue
		}
		if hints.selected == -1 {
			hints.selected = i
		}
		if row.IsActive && firstActive == -1 {
			firstActive = i
		}
		if l.spec.caps.RowStates {
			if row.IsActive {
				hints.active = append(hints.active, i)
			}
			if row.IsUrgent {
				hints.urgent = append(hints.urgent, i)
			}
		}
	}
	if firstActive != -1 {
		hints.selected = firstActive
	}
	return strings.Join(lines, "\n"), hints
}

func (l *launcher) line(row Item) string {
	text := cleanLabel(row.Label)
	if l.spec.caps.Markup {
		text = html.EscapeString(text)
		if row.IsHeader {
			text = "<b>" + text + "</b>"
		}
	}
	if l.spec.flavor != flavorRofi {
		return text
	}

	// rofi row options: one NUL, then key\x1fvalue pairs joined by \x1f.
	var opts []string
	if row.IsHeader {
		opts = append(opts, "nonselectable", "true")
	}
	if row.Icon != "" {
		opts = append(opts, "icon", cleanField(row.Icon))
	}
	if row.Info != "" {
		opts = append(opts, "info", cleanField(row.Info))
	}
	if row.Meta != "" {
		opts = append(opts, "meta", cleanField(row.Meta))
	}
	if len(opts) == 0 {
		return text
	}
	return text + "\x00" + strings.Join(opts, "\x1f")
}

func (l *launcher) parse(out string, rows []Item) (int, error) {
	if l.spec.caps.IndexOutput {
		if idx, err := strconv.Atoi(out); err == nil {
			if idx < 0 || idx >= len(rows) {
				return 0, fmt.Errorf("palette: index %d out of range", idx)
			}
			return idx, nil
		}
	}
	for i, row := range rows {
		if cleanLabel(row.Label) == out {
			return i, nil
		}
	}
	return 0, fmt.Errorf("palette: unknown selection %q", out)
}

func cleanLabel(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func cleanField(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	s = strings.ReplaceAll(s, "\x1f", " ")
	return cleanLabel(s)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
