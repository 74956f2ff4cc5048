package mcp

import "github.com/1broseidon/surfaced/internal/surface"

// StatusInput is the input for the status tool.
type StatusInput struct{}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Surfaces               int   `json:"surfaces"`
	Sessions               int   `json:"sessions"`
	PendingInitialSizes    int   `json:"pending_initial_sizes"`
	FrameDroppersSuspended bool  `json:"frame_droppers_suspended"`
	UptimeSeconds          int64 `json:"uptime_seconds"`
}

// ListSurfacesInput is the input for the list_surfaces tool.
type ListSurfacesInput struct {
	AppID       string `json:"app_id,omitempty" jsonschema:"Only list surfaces owned by this application id"`
	OnlyVisible bool   `json:"only_visible,omitempty" jsonschema:"When true, skip surfaces the client reports as hidden"`
}

// ListSurfacesOutput is the output for the list_surfaces tool.
type ListSurfacesOutput struct {
	Surfaces []surface.Info `json:"surfaces"`
}

// ListSessionsInput is the input for the list_sessions tool.
type ListSessionsInput struct{}

// SessionInfo describes one client session.
type SessionInfo struct {
	AppID    string   `json:"app_id"`
	PID      int      `json:"pid"`
	State    string   `json:"state"`
	Surfaces []uint64 `json:"surfaces"`
}

// ListSessionsOutput is the output for the list_sessions tool.
type ListSessionsOutput struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SurfaceInput names one surface.
type SurfaceInput struct {
	ID uint64 `json:"id" jsonschema:"Window id of the surface"`
}

// ActionOutput reports a request the daemon accepted.
type ActionOutput struct {
	OK bool `json:"ok"`
}

// RaiseSurfacesInput is the input for the raise_surfaces tool.
type RaiseSurfacesInput struct {
	IDs []uint64 `json:"ids" jsonschema:"Window ids to raise, bottom-most first"`
}

// ActivateSurfaceInput is the input for the activate_surface tool.
type ActivateSurfaceInput struct {
	ID uint64 `json:"id,omitempty" jsonschema:"Window id to focus; omit or pass 0 to clear focus"`
}

// FrameDropperInput is the input for the set_frame_dropper tool.
type FrameDropperInput struct {
	Enabled bool `json:"enabled" jsonschema:"false suspends frame dropping on every surface; true resumes it"`
}

// SnapshotInput is the input for the snapshot_surface tool.
type SnapshotInput struct {
	ID       uint64 `json:"id" jsonschema:"Window id of the surface"`
	Consumer uint64 `json:"consumer,omitempty" jsonschema:"Compositor consumer whose bound buffer is read (default: 1, the daemon's own view)"`
	MaxDim   int    `json:"max_dim,omitempty" jsonschema:"Scale the image down so neither side exceeds this many pixels (default: 512)"`
}

// SnapshotOutput is the output for the snapshot_surface tool. The image
// itself is returned as PNG content.
type SnapshotOutput struct {
	ID     uint64 `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// InitialSizeInput is the input for the set_initial_size tool.
type InitialSizeInput struct {
	PID    int  `json:"pid" jsonschema:"Process id whose first window should open at this size"`
	Width  int  `json:"width,omitempty" jsonschema:"Width in pixels"`
	Height int  `json:"height,omitempty" jsonschema:"Height in pixels"`
	Remove bool `json:"remove,omitempty" jsonschema:"When true, forget the pending size for pid instead"`
}

// ResizeInput is the input for the resize_surface tool.
type ResizeInput struct {
	ID     uint64 `json:"id" jsonschema:"Window id of the surface"`
	Width  int    `json:"width" jsonschema:"Width in pixels"`
	Height int    `json:"height" jsonschema:"Height in pixels"`
}

// MoveInput is the input for the move_surface tool.
type MoveInput struct {
	ID uint64 `json:"id" jsonschema:"Window id of the surface"`
	X  int    `json:"x" jsonschema:"Left edge in screen pixels"`
	Y  int    `json:"y" jsonschema:"Top edge in screen pixels"`
}

// KeymapInput is the input for the set_keymap tool.
type KeymapInput struct {
	ID     uint64 `json:"id" jsonschema:"Window id of the surface"`
	Keymap string `json:"keymap" jsonschema:"Keyboard layout, optionally followed by +variant, e.g. de+nodeadkeys"`
}

// OrientationInput is the input for the set_orientation tool.
type OrientationInput struct {
	ID    uint64 `json:"id" jsonschema:"Window id of the surface"`
	Angle int    `json:"angle" jsonschema:"Content rotation in degrees: 0, 90, 180 or 270"`
}

// SendKeyInput is the input for the send_key tool.
type SendKeyInput struct {
	ID        uint64 `json:"id" jsonschema:"Window id of the surface"`
	Keycode   uint32 `json:"keycode" jsonschema:"Native keycode to press and release"`
	Modifiers uint32 `json:"modifiers,omitempty" jsonschema:"Native modifier state sent with the key"`
}

// SendPointerInput is the input for the send_pointer tool.
type SendPointerInput struct {
	ID      uint64  `json:"id" jsonschema:"Window id of the surface"`
	Action  string  `json:"action" jsonschema:"One of click, press, move, release or wheel"`
	X       float64 `json:"x,omitempty" jsonschema:"X in window coordinates"`
	Y       float64 `json:"y,omitempty" jsonschema:"Y in window coordinates"`
	Buttons uint32  `json:"buttons,omitempty" jsonschema:"Button bits: 1 left, 2 right, 4 middle (default for click and press: left)"`
	DeltaX  float64 `json:"delta_x,omitempty" jsonschema:"Horizontal wheel delta in eighths of a degree"`
	DeltaY  float64 `json:"delta_y,omitempty" jsonschema:"Vertical wheel delta in eighths of a degree"`
}
