package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/surfaced/internal/input"
	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/surface"
)

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "status",
		Description: "Report daemon status: how many surfaces and client sessions are tracked, pending initial sizes, and whether frame dropping is suspended.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_surfaces",
		Description: "List every surface the daemon manages with its window id, title, application id, geometry, state, focus and visibility. Optionally filter by application id or visibility.",
	}, s.handleListSurfaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_sessions",
		Description: "List client sessions (one per client process) with their process id, lifecycle state and the window ids they own.",
	}, s.handleListSessions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_surface",
		Description: "Ask the client to close a surface. If it does not comply before the close timeout, the daemon kills the client.",
	}, s.handleCloseSurface)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "raise_surfaces",
		Description: "Raise one or more surfaces in the given order, so the last id ends on top.",
	}, s.handleRaiseSurfaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_surface",
		Description: "Give keyboard focus to a surface. Pass id 0 to clear focus.",
	}, s.handleActivateSurface)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_frame_dropper",
		Description: "Suspend or resume frame dropping on every surface. While suspended, clients that post frames faster than they are shown may block.",
	}, s.handleSetFrameDropper)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snapshot_surface",
		Description: "Return the frame a compositor consumer currently has bound for a surface as a PNG image.",
	}, s.handleSnapshotSurface)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_initial_size",
		Description: "Record the size the next top-level window of a process should open at, or forget a pending size with remove=true.",
	}, s.handleSetInitialSize)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_surface",
		Description: "Ask the client to resize a surface. Ignored while the client is suspended or stopped.",
	}, s.handleResizeSurface)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_surface",
		Description: "Move a surface so its top-left corner sits at the given screen position.",
	}, s.handleMoveSurface)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_keymap",
		Description: "Set the keyboard layout a surface's client uses, as layout or layout+variant.",
	}, s.handleSetKeymap)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_orientation",
		Description: "Rotate a surface's content by 0, 90, 180 or 270 degrees.",
	}, s.handleSetOrientation)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "send_key",
		Description: "Press and release one key in a surface.",
	}, s.handleSendKey)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "send_pointer",
		Description: "Deliver a pointer event to a surface: click, press, move, release or wheel.",
	}, s.handleSendPointer)
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.backend.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Surfaces:               status.SurfaceCount,
		Sessions:               status.SessionCount,
		PendingInitialSizes:    status.PendingInitialSizes,
		FrameDroppersSuspended: status.FrameDroppersSuspended,
		UptimeSeconds:          status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListSurfaces(_ context.Context, _ *mcpsdk.CallToolRequest, args ListSurfacesInput) (*mcpsdk.CallToolResult, ListSurfacesOutput, error) {
	all, err := s.backend.List()
	if err != nil {
		return nil, ListSurfacesOutput{}, err
	}
	out := ListSurfacesOutput{Surfaces: filterSurfaces(all, args)}
	return nil, out, nil
}

// filterSurfaces keeps the surfaces matching every filter set in args.
func filterSurfaces(all []surface.Info, args ListSurfacesInput) []surface.Info {
	out := make([]surface.Info, 0, len(all))
	for _, info := range all {
		if args.AppID != "" && info.AppID != args.AppID {
			continue
		}
		if args.OnlyVisible && !info.Visible {
			continue
		}
		out = append(out, info)
	}
	return out
}

func (s *Server) handleListSessions(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListSessionsInput) (*mcpsdk.CallToolResult, ListSessionsOutput, error) {
	sessions, err := s.backend.Sessions()
	if err != nil {
		return nil, ListSessionsOutput{}, err
	}
	out := ListSessionsOutput{Sessions: make([]SessionInfo, 0, len(sessions))}
	for _, sess := range sessions {
		out.Sessions = append(out.Sessions, SessionInfo{
			AppID:    sess.AppID,
			PID:      sess.PID,
			State:    sess.State,
			Surfaces: sess.Surfaces,
		})
	}
	return nil, out, nil
}

func (s *Server) handleCloseSurface(_ context.Context, _ *mcpsdk.CallToolRequest, args SurfaceInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.ID == 0 {
		return nil, ActionOutput{}, fmt.Errorf("id is required")
	}
	if err := s.backend.Close(args.ID); err != nil {
		return nil, ActionOutput{}, err
	}
	s.logger.Info("close requested", "surface", args.ID)
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleRaiseSurfaces(_ context.Context, _ *mcpsdk.CallToolRequest, args RaiseSurfacesInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if len(args.IDs) == 0 {
		return nil, ActionOutput{}, fmt.Errorf("ids must name at least one surface")
	}
	if err := s.backend.Raise(args.IDs...); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleActivateSurface(_ context.Context, _ *mcpsdk.CallToolRequest, args ActivateSurfaceInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.backend.Activate(args.ID); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleSetFrameDropper(_ context.Context, _ *mcpsdk.CallToolRequest, args FrameDropperInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.backend.SetFrameDropper(args.Enabled); err != nil {
		return nil, ActionOutput{}, err
	}
	s.logger.Info("frame droppers toggled", "enabled", args.Enabled)
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleSnapshotSurface(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapshotInput) (*mcpsdk.CallToolResult, SnapshotOutput, error) {
	if args.ID == 0 {
		return nil, SnapshotOutput{}, fmt.Errorf("id is required")
	}
	consumer := args.Consumer
	if consumer == 0 {
		consumer = defaultConsumer
	}
	maxDim := args.MaxDim
	if maxDim <= 0 {
		maxDim = defaultMaxDim
	}

	snap, err := s.backend.Snapshot(args.ID, consumer, maxDim)
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	result := &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.ImageContent{Data: snap.PNG, MIMEType: "image/png"},
		},
	}
	return result, SnapshotOutput{ID: args.ID, Width: snap.Width, Height: snap.Height}, nil
}

func (s *Server) handleSetInitialSize(_ context.Context, _ *mcpsdk.CallToolRequest, args InitialSizeInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.PID <= 0 {
		return nil, ActionOutput{}, fmt.Errorf("pid must be positive")
	}
	var err error
	if args.Remove {
		err = s.backend.RemoveInitialSize(args.PID)
	} else {
		if args.Width <= 0 || args.Height <= 0 {
			return nil, ActionOutput{}, fmt.Errorf("width and height must be positive")
		}
		err = s.backend.SetInitialSize(args.PID, args.Width, args.Height)
	}
	if err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleResizeSurface(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.ID == 0 {
		return nil, ActionOutput{}, fmt.Errorf("id is required")
	}
	if args.Width <= 0 || args.Height <= 0 {
		return nil, ActionOutput{}, fmt.Errorf("width and height must be positive")
	}
	if err := s.backend.Resize(args.ID, args.Width, args.Height); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleMoveSurface(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.ID == 0 {
		return nil, ActionOutput{}, fmt.Errorf("id is required")
	}
	if err := s.backend.Move(args.ID, args.X, args.Y); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleSetKeymap(_ context.Context, _ *mcpsdk.CallToolRequest, args KeymapInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.ID == 0 {
		return nil, ActionOutput{}, fmt.Errorf("id is required")
	}
	if err := s.backend.SetKeymap(args.ID, args.Keymap); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleSetOrientation(_ context.Context, _ *mcpsdk.CallToolRequest, args OrientationInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.ID == 0 {
		return nil, ActionOutput{}, fmt.Errorf("id is required")
	}
	if !surface.OrientationAngle(args.Angle).Valid() {
		return nil, ActionOutput{}, fmt.Errorf("angle must be 0, 90, 180 or 270")
	}
	if err := s.backend.SetOrientation(args.ID, args.Angle); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleSendKey(_ context.Context, _ *mcpsdk.CallToolRequest, args SendKeyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.ID == 0 || args.Keycode == 0 {
		return nil, ActionOutput{}, fmt.Errorf("id and keycode are required")
	}
	for _, kind := range []ipc.InputKind{ipc.InputKeyPress, ipc.InputKeyRelease} {
		ev := ipc.InputPayload{ID: args.ID, Kind: kind, Keycode: args.Keycode, Modifiers: args.Modifiers}
		if err := s.backend.SendInput(ev); err != nil {
			return nil, ActionOutput{}, err
		}
	}
	return nil, ActionOutput{OK: true}, nil
}

// pointerKinds maps send_pointer actions onto the input kinds delivered.
var pointerKinds = map[string][]ipc.InputKind{
	"click":   {ipc.InputMousePress, ipc.InputMouseRelease},
	"press":   {ipc.InputMousePress},
	"move":    {ipc.InputMouseMove},
	"release": {ipc.InputMouseRelease},
	"wheel":   {ipc.InputWheel},
}

func (s *Server) handleSendPointer(_ context.Context, _ *mcpsdk.CallToolRequest, args SendPointerInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.ID == 0 {
		return nil, ActionOutput{}, fmt.Errorf("id is required")
	}
	kinds, ok := pointerKinds[args.Action]
	if !ok {
		return nil, ActionOutput{}, fmt.Errorf("unknown pointer action %q", args.Action)
	}
	buttons := args.Buttons
	if buttons == 0 && (args.Action == "click" || args.Action == "press") {
		buttons = uint32(input.LeftButton)
	}
	for _, kind := range kinds {
		ev := ipc.InputPayload{
			ID:      args.ID,
			Kind:    kind,
			Buttons: buttons,
			X:       args.X,
			Y:       args.Y,
			DeltaX:  args.DeltaX,
			DeltaY:  args.DeltaY,
		}
		if err := s.backend.SendInput(ev); err != nil {
			return nil, ActionOutput{}, err
		}
	}
	return nil, ActionOutput{OK: true}, nil
}
