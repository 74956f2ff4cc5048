package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/tui"
)

func runTUI(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: surfaced tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive monitor for a running daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab, 1/2   Switch between surfaces and sessions")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓   Navigate")
		fmt.Fprintln(os.Stderr, "  /          Filter")
		fmt.Fprintln(os.Stderr, "  Enter, a   Activate selected surface")
		fmt.Fprintln(os.Stderr, "  r          Raise selected surface")
		fmt.Fprintln(os.Stderr, "  c          Close selected surface")
		fmt.Fprintln(os.Stderr, "  f          Toggle frame dropping")
		fmt.Fprintln(os.Stderr, "  i          Set an initial window size for a process")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C  Quit")
		return 0
	}
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		return 2
	}

	if err := tui.Run(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
