package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Hotkeys binds global key sequences to daemon actions. An empty value
// leaves the action unbound.
type Hotkeys struct {
	// Close starts the close handshake on the active window.
	Close string `yaml:"close"`
	// RaiseAll raises every known surface in creation order.
	RaiseAll string `yaml:"raise_all"`
	// ToggleFrameDropper suspends or resumes frame dropping.
	ToggleFrameDropper string `yaml:"toggle_frame_dropper"`
}

// MCP configures the MCP tool server.
type MCP struct {
	ServerName string `yaml:"server_name"`
}

// Picker configures the dmenu-style surface picker.
type Picker struct {
	// Backend is one of auto, rofi, fuzzel, wofi, dmenu.
	Backend string `yaml:"backend"`
	Fuzzy   bool   `yaml:"fuzzy"`
}

// Config is the effective daemon configuration.
type Config struct {
	// Display overrides $DISPLAY for the X11 backend.
	Display string `yaml:"display"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is one of text, json, auto. auto picks json when stderr is
	// not a terminal.
	LogFormat string `yaml:"log_format"`

	FrameDropIntervalMs int `yaml:"frame_drop_interval_ms"`
	CloseTimeoutMs      int `yaml:"close_timeout_ms"`

	// VisibilityAggregation pushes the union of view visibility down to
	// client windows.
	VisibilityAggregation bool `yaml:"visibility_aggregation"`

	// BufferPoolSize is how many captured frames each consumer may have
	// queued or held.
	BufferPoolSize int `yaml:"buffer_pool_size"`
	// CaptureFrames copies window contents on expose.
	CaptureFrames bool `yaml:"capture_frames"`

	ReconcileIntervalSeconds int `yaml:"reconcile_interval_seconds"`

	Hotkeys Hotkeys `yaml:"hotkeys"`
	MCP     MCP     `yaml:"mcp"`
	Picker  Picker  `yaml:"picker"`
}

const (
	DefaultFrameDropIntervalMs      = 200
	DefaultCloseTimeoutMs           = 3000
	DefaultBufferPoolSize           = 3
	DefaultReconcileIntervalSeconds = 10
	DefaultMCPServerName            = "surfaced"
)

func DefaultConfig() *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "auto",
		FrameDropIntervalMs:      DefaultFrameDropIntervalMs,
		CloseTimeoutMs:           DefaultCloseTimeoutMs,
		VisibilityAggregation:    true,
		BufferPoolSize:           DefaultBufferPoolSize,
		CaptureFrames:            true,
		ReconcileIntervalSeconds: DefaultReconcileIntervalSeconds,
		Hotkeys: Hotkeys{
			Close:              "Mod4-q",
			RaiseAll:           "Mod4-Shift-r",
			ToggleFrameDropper: "",
		},
		MCP:    MCP{ServerName: DefaultMCPServerName},
		Picker: Picker{Backend: "auto"},
	}
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	switch c.LogFormat {
	case "text", "json", "auto":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: text, json, auto")}
	}
	if c.FrameDropIntervalMs < 1 {
		return &ValidationError{Path: "frame_drop_interval_ms", Err: fmt.Errorf("frame_drop_interval_ms must be >= 1")}
	}
	if c.CloseTimeoutMs < 1 {
		return &ValidationError{Path: "close_timeout_ms", Err: fmt.Errorf("close_timeout_ms must be >= 1")}
	}
	if c.BufferPoolSize < 1 || c.BufferPoolSize > 16 {
		return &ValidationError{Path: "buffer_pool_size", Err: fmt.Errorf("buffer_pool_size must be between 1 and 16")}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be >= 0")}
	}
	if strings.TrimSpace(c.MCP.ServerName) == "" {
		return &ValidationError{Path: "mcp.server_name", Err: fmt.Errorf("mcp.server_name must not be empty")}
	}
	switch c.Picker.Backend {
	case "auto", "rofi", "fuzzel", "wofi", "dmenu":
	default:
		return &ValidationError{Path: "picker.backend", Err: fmt.Errorf("picker.backend must be one of: auto, rofi, fuzzel, wofi, dmenu")}
	}
	return nil
}

func (c *Config) FrameDropInterval() time.Duration {
	return time.Duration(c.FrameDropIntervalMs) * time.Millisecond
}

func (c *Config) CloseTimeout() time.Duration {
	return time.Duration(c.CloseTimeoutMs) * time.Millisecond
}

// ReconcileInterval is zero when reconciliation is disabled.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidationError is a config error tied to a YAML path and, when known,
// the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
