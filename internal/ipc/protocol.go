package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/surfaced/internal/surface"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandList         CommandType = "LIST"
	CommandSessions     CommandType = "SESSIONS"
	CommandClose        CommandType = "CLOSE"
	CommandRaise        CommandType = "RAISE"
	CommandActivate     CommandType = "ACTIVATE"
	CommandFrameDropper CommandType = "FRAME_DROPPER"
	CommandSnapshot     CommandType = "SNAPSHOT"
	CommandInitialSize  CommandType = "INITIAL_SIZE"
	CommandResize       CommandType = "RESIZE"
	CommandMove         CommandType = "MOVE"
	CommandKeymap       CommandType = "KEYMAP"
	CommandOrientation  CommandType = "ORIENTATION"
	CommandInput        CommandType = "INPUT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	SurfaceCount           int   `json:"surface_count"`
	SessionCount           int   `json:"session_count"`
	PendingInitialSizes    int   `json:"pending_initial_sizes"`
	FrameDroppersSuspended bool  `json:"frame_droppers_suspended"`
	UptimeSeconds          int64 `json:"uptime_seconds"`
	DaemonRunning          bool  `json:"daemon_running"`
}

// ListData represents the data returned by LIST
type ListData struct {
	Surfaces []surface.Info `json:"surfaces"`
}

type SessionInfo struct {
	AppID    string   `json:"app_id"`
	PID      int      `json:"pid"`
	State    string   `json:"state"`
	Surfaces []uint64 `json:"surfaces"`
}

type SessionsData struct {
	Sessions []SessionInfo `json:"sessions"`
}

// WindowPayload names one surface by window id.
type WindowPayload struct {
	ID uint64 `json:"id"`
}

type RaisePayload struct {
	IDs []uint64 `json:"ids"`
}

type FrameDropperPayload struct {
	Enabled bool `json:"enabled"`
}

type SnapshotPayload struct {
	ID       uint64 `json:"id"`
	Consumer uint64 `json:"consumer"`
	MaxDim   int    `json:"max_dim,omitempty"`
}

// SnapshotData carries a PNG; encoding/json base64-encodes it.
type SnapshotData struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    []byte `json:"png"`
}

type InitialSizePayload struct {
	PID    int  `json:"pid"`
	Width  int  `json:"width,omitempty"`
	Height int  `json:"height,omitempty"`
	Remove bool `json:"remove,omitempty"`
}

type ResizePayload struct {
	ID     uint64 `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type MovePayload struct {
	ID uint64 `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// KeymapPayload carries a "layout" or "layout+variant" keymap.
type KeymapPayload struct {
	ID     uint64 `json:"id"`
	Keymap string `json:"keymap"`
}

type OrientationPayload struct {
	ID    uint64 `json:"id"`
	Angle int    `json:"angle"`
}

// InputKind selects which input method an INPUT request drives.
type InputKind string

const (
	InputKeyPress     InputKind = "key_press"
	InputKeyRelease   InputKind = "key_release"
	InputMousePress   InputKind = "mouse_press"
	InputMouseMove    InputKind = "mouse_move"
	InputMouseRelease InputKind = "mouse_release"
	InputWheel        InputKind = "wheel"
	InputTouch        InputKind = "touch"
)

type TouchPointPayload struct {
	ID    int     `json:"id"`
	State string  `json:"state"` // "pressed", "moved", "stationary" or "released"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// InputPayload is one synthetic input event. Key events carry the native
// keycode and modifier state. Pointer events carry toolkit modifier and
// button bits with window coordinates.
type InputPayload struct {
	ID        uint64              `json:"id"`
	Kind      InputKind           `json:"kind"`
	Keycode   uint32              `json:"keycode,omitempty"`
	Modifiers uint32              `json:"modifiers,omitempty"`
	Buttons   uint32              `json:"buttons,omitempty"`
	X         float64             `json:"x,omitempty"`
	Y         float64             `json:"y,omitempty"`
	DeltaX    float64             `json:"delta_x,omitempty"`
	DeltaY    float64             `json:"delta_y,omitempty"`
	Points    []TouchPointPayload `json:"points,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
