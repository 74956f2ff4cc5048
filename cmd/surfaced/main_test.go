package main

import (
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/1broseidon/surfaced/internal/config"
	"github.com/1broseidon/surfaced/internal/surface"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"42", 42, false},
		{"0x2a", 42, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"window", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"toolongtitle", 5, "tool…"},
		{"héllo wörld", 6, "héllo…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatSurfaceTable(t *testing.T) {
	lines := formatSurfaceTable([]surface.Info{
		{ID: 0x1a, Name: "a very long window title that will not fit", AppID: "term", State: "restored", Width: 640, Height: 480, Visible: true, Focused: true},
		{ID: 0x1b, Name: "hidden", AppID: "term", State: "minimized"},
	}, 80)

	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0x1a") || !strings.Contains(lines[1], " * ") || !strings.Contains(lines[1], "640x480+0+0") {
		t.Fatalf("unexpected focused row %q", lines[1])
	}
	if n := len([]rune(lines[1])); n > 80 {
		t.Fatalf("row is %d runes wide, want <= 80", n)
	}
	if !strings.Contains(lines[2], " - ") {
		t.Fatalf("hidden row should be marked: %q", lines[2])
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Fatalf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Bool("json", false, "")

	if code, ok := parseFlags(fs, []string{"--json"}); !ok || code != 0 {
		t.Fatalf("valid flags: code=%d ok=%v", code, ok)
	}
	if code, ok := parseFlags(fs, []string{"-h"}); ok || code != 0 {
		t.Fatalf("help: code=%d ok=%v", code, ok)
	}
	if code, ok := parseFlags(fs, []string{"--bogus"}); ok || code != 2 {
		t.Fatalf("bad flag: code=%d ok=%v", code, ok)
	}
}

func TestParseWindowArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		id      uint64
		nums    []int
		wantErr bool
	}{
		{"move", []string{"0x10", "-5", "20"}, 2, 16, []int{-5, 20}, false},
		{"angle", []string{"3", "90"}, 1, 3, []int{90}, false},
		{"too few", []string{"3"}, 2, 0, nil, true},
		{"bad id", []string{"zero", "1", "2"}, 2, 0, nil, true},
		{"bad number", []string{"3", "wide", "2"}, 2, 0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, nums, err := parseWindowArgs(tt.args, tt.want)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWindowArgs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if id != tt.id || len(nums) != len(tt.nums) {
				t.Fatalf("parseWindowArgs(%v) = %d, %v", tt.args, id, nums)
			}
			for i := range nums {
				if nums[i] != tt.nums[i] {
					t.Fatalf("parseWindowArgs(%v) = %d, %v", tt.args, id, nums)
				}
			}
		})
	}
}
