package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawHotkeys struct {
	Close              *string `yaml:"close"`
	RaiseAll           *string `yaml:"raise_all"`
	ToggleFrameDropper *string `yaml:"toggle_frame_dropper"`
}

type RawMCP struct {
	ServerName *string `yaml:"server_name"`
}

type RawPicker struct {
	Backend *string `yaml:"backend"`
	Fuzzy   *bool   `yaml:"fuzzy"`
}

// RawConfig is one config file as written. Nil fields were not set and
// leave earlier values alone when files are merged.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Display                  *string     `yaml:"display"`
	LogLevel                 *string     `yaml:"log_level"`
	LogFormat                *string     `yaml:"log_format"`
	FrameDropIntervalMs      *int        `yaml:"frame_drop_interval_ms"`
	CloseTimeoutMs           *int        `yaml:"close_timeout_ms"`
	VisibilityAggregation    *bool       `yaml:"visibility_aggregation"`
	BufferPoolSize           *int        `yaml:"buffer_pool_size"`
	CaptureFrames            *bool       `yaml:"capture_frames"`
	ReconcileIntervalSeconds *int        `yaml:"reconcile_interval_seconds"`
	Hotkeys                  *RawHotkeys `yaml:"hotkeys"`
	MCP                      *RawMCP     `yaml:"mcp"`
	Picker                   *RawPicker  `yaml:"picker"`
}

// merge returns r overlaid with every field set in other.
func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	setIf(&out.Display, other.Display)
	setIf(&out.LogLevel, other.LogLevel)
	setIf(&out.LogFormat, other.LogFormat)
	setIf(&out.FrameDropIntervalMs, other.FrameDropIntervalMs)
	setIf(&out.CloseTimeoutMs, other.CloseTimeoutMs)
	setIf(&out.VisibilityAggregation, other.VisibilityAggregation)
	setIf(&out.BufferPoolSize, other.BufferPoolSize)
	setIf(&out.CaptureFrames, other.CaptureFrames)
	setIf(&out.ReconcileIntervalSeconds, other.ReconcileIntervalSeconds)

	if other.Hotkeys != nil {
		hk := RawHotkeys{}
		if out.Hotkeys != nil {
			hk = *out.Hotkeys
		}
		setIf(&hk.Close, other.Hotkeys.Close)
		setIf(&hk.RaiseAll, other.Hotkeys.RaiseAll)
		setIf(&hk.ToggleFrameDropper, other.Hotkeys.ToggleFrameDropper)
		out.Hotkeys = &hk
	}
	if other.MCP != nil {
		m := RawMCP{}
		if out.MCP != nil {
			m = *out.MCP
		}
		setIf(&m.ServerName, other.MCP.ServerName)
		out.MCP = &m
	}
	if other.Picker != nil {
		p := RawPicker{}
		if out.Picker != nil {
			p = *out.Picker
		}
		setIf(&p.Backend, other.Picker.Backend)
		setIf(&p.Fuzzy, other.Picker.Fuzzy)
		out.Picker = &p
	}
	return out
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply writes every set field of r onto cfg.
func (r RawConfig) apply(cfg *Config) {
	assign(&cfg.Display, r.Display)
	assign(&cfg.LogLevel, r.LogLevel)
	assign(&cfg.LogFormat, r.LogFormat)
	assign(&cfg.FrameDropIntervalMs, r.FrameDropIntervalMs)
	assign(&cfg.CloseTimeoutMs, r.CloseTimeoutMs)
	assign(&cfg.VisibilityAggregation, r.VisibilityAggregation)
	assign(&cfg.BufferPoolSize, r.BufferPoolSize)
	assign(&cfg.CaptureFrames, r.CaptureFrames)
	assign(&cfg.ReconcileIntervalSeconds, r.ReconcileIntervalSeconds)
	if r.Hotkeys != nil {
		assign(&cfg.Hotkeys.Close, r.Hotkeys.Close)
		assign(&cfg.Hotkeys.RaiseAll, r.Hotkeys.RaiseAll)
		assign(&cfg.Hotkeys.ToggleFrameDropper, r.Hotkeys.ToggleFrameDropper)
	}
	if r.MCP != nil {
		assign(&cfg.MCP.ServerName, r.MCP.ServerName)
	}
	if r.Picker != nil {
		assign(&cfg.Picker.Backend, r.Picker.Backend)
		assign(&cfg.Picker.Fuzzy, r.Picker.Fuzzy)
	}
}
