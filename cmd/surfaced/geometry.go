package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/1broseidon/surfaced/internal/input"
	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/surface"
)

// parseWindowArgs splits "<window-id> <n>..." into the id and want integers.
func parseWindowArgs(args []string, want int) (uint64, []int, error) {
	if len(args) != want+1 {
		return 0, nil, fmt.Errorf("expected a window id and %d numbers", want)
	}
	id, err := parseID(args[0])
	if err != nil {
		return 0, nil, err
	}
	nums := make([]int, 0, want)
	for _, arg := range args[1:] {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, nil, fmt.Errorf("expected a number, got %q", arg)
		}
		nums = append(nums, n)
	}
	return id, nums, nil
}

func runResize(args []string) int {
	fs := newFlagSet("resize", "resize <window-id> <width> <height>", "Ask the client to resize a surface.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, nums, err := parseWindowArgs(fs.Args(), 2)
	if err == nil && (nums[0] <= 0 || nums[1] <= 0) {
		err = fmt.Errorf("width and height must be positive")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Resize(id, nums[0], nums[1]); err != nil {
		return fail(err)
	}
	return 0
}

func runMove(args []string) int {
	fs := newFlagSet("move", "move <window-id> <x> <y>", "Move a surface's top-left corner to a screen position.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, nums, err := parseWindowArgs(fs.Args(), 2)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Move(id, nums[0], nums[1]); err != nil {
		return fail(err)
	}
	return 0
}

func runKeymap(args []string) int {
	fs := newFlagSet("keymap", "keymap <window-id> <layout[+variant]>", "Set the keyboard layout a surface's client uses.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().SetKeymap(id, fs.Arg(1)); err != nil {
		return fail(err)
	}
	return 0
}

func runOrientation(args []string) int {
	fs := newFlagSet("orientation", "orientation <window-id> <0|90|180|270>", "Rotate a surface's content.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, nums, err := parseWindowArgs(fs.Args(), 1)
	if err == nil && !surface.OrientationAngle(nums[0]).Valid() {
		err = fmt.Errorf("angle must be 0, 90, 180 or 270")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().SetOrientation(id, nums[0]); err != nil {
		return fail(err)
	}
	return 0
}

func runKey(args []string) int {
	fs := newFlagSet("key", "key [--modifiers N] <window-id> <keycode>", "Press and release a key in a surface.")
	mods := fs.Uint("modifiers", 0, "Native modifier state")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, nums, err := parseWindowArgs(fs.Args(), 1)
	if err == nil && nums[0] <= 0 {
		err = fmt.Errorf("keycode must be positive")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	client := ipc.NewClient()
	for _, kind := range []ipc.InputKind{ipc.InputKeyPress, ipc.InputKeyRelease} {
		ev := ipc.InputPayload{ID: id, Kind: kind, Keycode: uint32(nums[0]), Modifiers: uint32(*mods)}
		if err := client.SendInput(ev); err != nil {
			return fail(err)
		}
	}
	return 0
}

// clickButtons maps the --button flag onto toolkit button bits.
var clickButtons = map[string]input.MouseButtons{
	"left":   input.LeftButton,
	"right":  input.RightButton,
	"middle": input.MiddleButton,
}

func runClick(args []string) int {
	fs := newFlagSet("click", "click [--button left|right|middle] <window-id> <x> <y>", "Click inside a surface at window coordinates.")
	button := fs.String("button", "left", "Mouse button")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	id, nums, err := parseWindowArgs(fs.Args(), 2)
	buttons, known := clickButtons[*button]
	if err == nil && !known {
		err = fmt.Errorf("unknown button %q", *button)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	client := ipc.NewClient()
	for _, kind := range []ipc.InputKind{ipc.InputMousePress, ipc.InputMouseRelease} {
		ev := ipc.InputPayload{
			ID:      id,
			Kind:    kind,
			Buttons: uint32(buttons),
			X:       float64(nums[0]),
			Y:       float64(nums[1]),
		}
		if err := client.SendInput(ev); err != nil {
			return fail(err)
		}
	}
	return 0
}
