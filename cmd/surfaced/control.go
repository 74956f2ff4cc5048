package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/1broseidon/surfaced/internal/config"
	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/palette"
	"github.com/1broseidon/surfaced/internal/surface"
)

// parseFlags parses args with fs and maps the outcome onto an exit code.
// ok is false when the caller should return code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func newFlagSet(name, usage, help string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: surfaced "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, help)
		fs.PrintDefaults()
	}
	return fs
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return id, nil
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "status", "Show daemon status via IPC.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		return fail(err)
	}
	fmt.Printf("daemon_running:           %v\n", status.DaemonRunning)
	fmt.Printf("surface_count:            %d\n", status.SurfaceCount)
	fmt.Printf("session_count:            %d\n", status.SessionCount)
	fmt.Printf("pending_initial_sizes:    %d\n", status.PendingInitialSizes)
	fmt.Printf("frame_droppers_suspended: %v\n", status.FrameDroppersSuspended)
	fmt.Printf("uptime_seconds:           %d\n", status.UptimeSeconds)
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "reload", "Ask the daemon to re-read its configuration.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		return fail(err)
	}
	fmt.Println("config reloaded")
	return 0
}

func runList(args []string) int {
	fs := newFlagSet("list", "list [--json]", "List the surfaces the daemon manages.")
	jsonOut := fs.Bool("json", false, "Print JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	surfaces, err := ipc.NewClient().List()
	if err != nil {
		return fail(err)
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(surfaces); err != nil {
			return fail(err)
		}
		return 0
	}

	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	for _, line := range formatSurfaceTable(surfaces, width) {
		fmt.Println(line)
	}
	return 0
}

// formatSurfaceTable renders one line per surface, truncating titles to fit
// width.
func formatSurfaceTable(surfaces []surface.Info, width int) []string {
	lines := []string{fmt.Sprintf("%-10s %-1s %-16s %-12s %-20s %s", "ID", "", "APP", "STATE", "GEOMETRY", "TITLE")}
	for _, s := range surfaces {
		mark := " "
		switch {
		case s.Focused:
			mark = "*"
		case !s.Visible:
			mark = "-"
		}
		geom := fmt.Sprintf("%dx%d+%d+%d", s.Width, s.Height, s.X, s.Y)
		prefix := fmt.Sprintf("0x%-8x %-1s %-16s %-12s %-20s ", s.ID, mark, truncate(s.AppID, 16), s.State, geom)
		room := width - len(prefix)
		if room < 8 {
			room = 8
		}
		lines = append(lines, prefix+truncate(s.Name, room))
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func runSessions(args []string) int {
	fs := newFlagSet("sessions", "sessions", "List client sessions.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	sessions, err := ipc.NewClient().Sessions()
	if err != nil {
		return fail(err)
	}
	for _, s := range sessions {
		ids := make([]string, 0, len(s.Surfaces))
		for _, id := range s.Surfaces {
			ids = append(ids, fmt.Sprintf("0x%x", id))
		}
		fmt.Printf("%-20s pid=%-8d %-10s %s\n", s.AppID, s.PID, s.State, strings.Join(ids, ","))
	}
	return 0
}

func runClose(args []string) int {
	fs := newFlagSet("close", "close <window-id>", "Start the close handshake on a surface.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().Close(id); err != nil {
		return fail(err)
	}
	return 0
}

func runRaise(args []string) int {
	fs := newFlagSet("raise", "raise <window-id>...", "Raise surfaces in order; the last one ends on top.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	ids := make([]uint64, 0, fs.NArg())
	for _, arg := range fs.Args() {
		id, err := parseID(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		ids = append(ids, id)
	}
	if err := ipc.NewClient().Raise(ids...); err != nil {
		return fail(err)
	}
	return 0
}

func runActivate(args []string) int {
	fs := newFlagSet("activate", "activate <window-id|none>", "Give a surface keyboard focus, or clear focus with 'none'.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	var id uint64
	if fs.Arg(0) != "none" {
		var err error
		if id, err = parseID(fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}
	if err := ipc.NewClient().Activate(id); err != nil {
		return fail(err)
	}
	return 0
}

func runFrameDropper(args []string) int {
	fs := newFlagSet("frame-dropper", "frame-dropper on|off", "Resume (on) or suspend (off) frame dropping on every surface.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	var enabled bool
	switch fs.Arg(0) {
	case "on":
		enabled = true
	case "off":
	default:
		fmt.Fprintf(os.Stderr, "expected on or off, got %q\n", fs.Arg(0))
		return 2
	}
	if err := ipc.NewClient().SetFrameDropper(enabled); err != nil {
		return fail(err)
	}
	return 0
}

func runSnapshot(args []string) int {
	fs := newFlagSet("snapshot", "snapshot --out FILE [--consumer N] [--max PX] <window-id>", "Write the frame a compositor consumer holds for a surface as PNG.")
	out := fs.String("out", "", "Output PNG path (- for stdout)")
	consumer := fs.Uint64("consumer", 1, "Compositor consumer id")
	maxDim := fs.Int("max", 0, "Scale down so neither side exceeds this many pixels (0 keeps size)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 || *out == "" {
		fs.Usage()
		return 2
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	snap, err := ipc.NewClient().Snapshot(id, *consumer, *maxDim)
	if err != nil {
		return fail(err)
	}
	if *out == "-" {
		if _, err := os.Stdout.Write(snap.PNG); err != nil {
			return fail(err)
		}
		return 0
	}
	if err := os.WriteFile(*out, snap.PNG, 0644); err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %dx%d frame to %s\n", snap.Width, snap.Height, *out)
	return 0
}

func runInitialSize(args []string) int {
	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  surfaced initial-size set <pid> <width> <height>")
		fmt.Fprintln(os.Stderr, "  surfaced initial-size remove <pid>")
	}
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage()
		return 2
	}

	nums := make([]int, 0, 3)
	for _, arg := range args[1:] {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "expected a positive number, got %q\n", arg)
			return 2
		}
		nums = append(nums, n)
	}

	client := ipc.NewClient()
	var err error
	switch args[0] {
	case "set":
		if len(nums) != 3 {
			usage()
			return 2
		}
		err = client.SetInitialSize(nums[0], nums[1], nums[2])
	case "remove":
		if len(nums) != 1 {
			usage()
			return 2
		}
		err = client.RemoveInitialSize(nums[0])
	default:
		fmt.Fprintf(os.Stderr, "Unknown initial-size subcommand: %s\n", args[0])
		return 2
	}
	if err != nil {
		return fail(err)
	}
	return 0
}

func runPick(args []string) int {
	fs := newFlagSet("pick", "pick [--backend NAME] [--path PATH]",
		"Choose a surface in a launcher. Enter activates, Alt+Return raises, Alt+d closes (rofi).")
	backendName := fs.String("backend", "", "Launcher: auto, rofi, fuzzel, wofi, dmenu (default from config)")
	path := fs.String("path", "", "Config file path (default: ~/.config/surfaced/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg := config.DefaultConfig()
	if res, err := loadConfig(*path); err == nil {
		cfg = res.Config
	} else {
		fmt.Fprintf(os.Stderr, "using default picker settings: %v\n", err)
	}
	name := cfg.Picker.Backend
	if *backendName != "" {
		name = *backendName
	}

	backend, err := palette.NewBackend(name, cfg.Picker.Fuzzy)
	if err != nil {
		return fail(err)
	}
	if _, err := palette.NewPicker(backend, ipc.NewClient()).Run(); err != nil {
		if errors.Is(err, palette.ErrCancelled) {
			return 0
		}
		return fail(err)
	}
	return 0
}
