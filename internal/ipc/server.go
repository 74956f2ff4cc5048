package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/surfaced/internal/input"
	"github.com/1broseidon/surfaced/internal/registry"
	"github.com/1broseidon/surfaced/internal/runtimepath"
	"github.com/1broseidon/surfaced/internal/scene"
	"github.com/1broseidon/surfaced/internal/session"
	"github.com/1broseidon/surfaced/internal/surface"
)

// Invoker runs fn on the goroutine that owns the registry and waits.
type Invoker interface {
	Invoke(ctx context.Context, fn func()) error
}

// Options wires a Server to the daemon.
type Options struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Registry   *registry.Registry
	Sessions   *session.Manager
	Loop       Invoker
	// Reload reloads the configuration and applies it.
	Reload func() error
	// Timeout bounds how long a request may wait for the loop.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	opts         Options
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(opts Options) (*Server, error) {
	socketPath := opts.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Remove a stale socket left by a previous daemon.
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		opts:       opts,
		logger:     logger.With("component", "ipc"),
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection serves one newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		resp = s.handleCommand(req)
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC request", "command", string(req.Command))
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandList:
		return s.handleList()
	case CommandSessions:
		return s.handleSessions()
	case CommandClose:
		return s.handleClose(req.Payload)
	case CommandRaise:
		return s.handleRaise(req.Payload)
	case CommandActivate:
		return s.handleActivate(req.Payload)
	case CommandFrameDropper:
		return s.handleFrameDropper(req.Payload)
	case CommandSnapshot:
		return s.handleSnapshot(req.Payload)
	case CommandInitialSize:
		return s.handleInitialSize(req.Payload)
	case CommandResize:
		return s.handleResize(req.Payload)
	case CommandMove:
		return s.handleMove(req.Payload)
	case CommandKeymap:
		return s.handleKeymap(req.Payload)
	case CommandOrientation:
		return s.handleOrientation(req.Payload)
	case CommandInput:
		return s.handleInput(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// invoke runs fn on the loop, bounded by the request timeout.
func (s *Server) invoke(fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	if err := s.opts.Loop.Invoke(ctx, fn); err != nil {
		return fmt.Errorf("daemon busy: %w", err)
	}
	return nil
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func decode(payload json.RawMessage, out interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("missing payload")
	}
	return json.Unmarshal(payload, out)
}

func (s *Server) handleReload() *Response {
	s.logger.Info("received RELOAD command")
	if s.opts.Reload == nil {
		return NewErrorResponse("reload not supported")
	}
	if err := s.opts.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.logger.Info("config reloaded")
	return ok(nil)
}

func (s *Server) handleGetStatus() *Response {
	var status StatusData
	err := s.invoke(func() {
		status.SurfaceCount = s.opts.Registry.Len()
		status.FrameDroppersSuspended = s.opts.Registry.FrameDroppersSuspended()
		status.PendingInitialSizes = s.opts.Registry.InitialSizes().Len()
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if s.opts.Sessions != nil {
		status.SessionCount = len(s.opts.Sessions.List())
	}
	status.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
	status.DaemonRunning = true
	return ok(status)
}

func (s *Server) handleList() *Response {
	var data ListData
	err := s.invoke(func() {
		surfaces := s.opts.Registry.Surfaces()
		data.Surfaces = make([]surface.Info, 0, len(surfaces))
		for _, sf := range surfaces {
			data.Surfaces = append(data.Surfaces, sf.Describe())
		}
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(data)
}

func (s *Server) handleSessions() *Response {
	data := SessionsData{Sessions: []SessionInfo{}}
	if s.opts.Sessions == nil {
		return ok(data)
	}
	for _, sess := range s.opts.Sessions.List() {
		info := SessionInfo{
			AppID:    sess.AppID(),
			PID:      sess.PID(),
			State:    sess.State().String(),
			Surfaces: []uint64{},
		}
		for _, sf := range sess.Surfaces() {
			info.Surfaces = append(info.Surfaces, sf.ID())
		}
		data.Sessions = append(data.Sessions, info)
	}
	return ok(data)
}

// withSurface looks id up on the loop and runs fn there.
func (s *Server) withSurface(id uint64, fn func(*surface.Surface) error) error {
	var opErr error
	err := s.invoke(func() {
		sf, err := s.opts.Registry.Get(scene.WindowID(id))
		if err != nil {
			opErr = err
			return
		}
		opErr = fn(sf)
	})
	if err != nil {
		return err
	}
	return opErr
}

func (s *Server) handleClose(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	err := s.withSurface(req.ID, func(sf *surface.Surface) error {
		sf.Close()
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleRaise(payload json.RawMessage) *Response {
	var req RaisePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid raise payload: %v", err))
	}
	if len(req.IDs) == 0 {
		return NewErrorResponse("ids is required")
	}
	var errs []error
	err := s.invoke(func() {
		for _, id := range req.IDs {
			sf, err := s.opts.Registry.Get(scene.WindowID(id))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := s.opts.Registry.Raise(sf); err != nil {
				errs = append(errs, fmt.Errorf("window %d: %w", id, err))
			}
		}
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if err := errors.Join(errs...); err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleActivate(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid activate payload: %v", err))
	}
	var opErr error
	err := s.invoke(func() {
		if req.ID == 0 {
			opErr = s.opts.Registry.Activate(nil)
			return
		}
		sf, err := s.opts.Registry.Get(scene.WindowID(req.ID))
		if err != nil {
			opErr = err
			return
		}
		opErr = s.opts.Registry.Activate(sf)
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleFrameDropper(payload json.RawMessage) *Response {
	var req FrameDropperPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid frame dropper payload: %v", err))
	}
	err := s.invoke(func() {
		if req.Enabled {
			s.opts.Registry.StartFrameDroppers()
		} else {
			s.opts.Registry.StopFrameDroppers()
		}
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	s.logger.Info("frame droppers toggled", "enabled", req.Enabled)
	return ok(nil)
}

func (s *Server) handleSnapshot(payload json.RawMessage) *Response {
	var req SnapshotPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid snapshot payload: %v", err))
	}
	var data SnapshotData
	var buf bytes.Buffer
	err := s.withSurface(req.ID, func(sf *surface.Surface) error {
		img, err := sf.Snapshot(scene.ConsumerID(req.Consumer), req.MaxDim)
		if err != nil {
			return fmt.Errorf("window %d: %w", req.ID, err)
		}
		b := img.Bounds()
		data.Width, data.Height = b.Dx(), b.Dy()
		return png.Encode(&buf, img)
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	data.PNG = buf.Bytes()
	return ok(data)
}

func (s *Server) handleInitialSize(payload json.RawMessage) *Response {
	var req InitialSizePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid initial size payload: %v", err))
	}
	if req.PID <= 0 {
		return NewErrorResponse("pid must be positive")
	}
	sizes := s.opts.Registry.InitialSizes()
	if req.Remove {
		sizes.Remove(req.PID)
		return ok(nil)
	}
	size := scene.Size{Width: req.Width, Height: req.Height}
	if size.Empty() {
		return NewErrorResponse("width and height must be positive")
	}
	sizes.Set(req.PID, size)
	return ok(nil)
}

func (s *Server) handleResize(payload json.RawMessage) *Response {
	var req ResizePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resize payload: %v", err))
	}
	if (scene.Size{Width: req.Width, Height: req.Height}).Empty() {
		return NewErrorResponse("width and height must be positive")
	}
	err := s.withSurface(req.ID, func(sf *surface.Surface) error {
		sf.Resize(req.Width, req.Height)
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleMove(payload json.RawMessage) *Response {
	var req MovePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	err := s.withSurface(req.ID, func(sf *surface.Surface) error {
		sf.MoveTo(scene.Point{X: req.X, Y: req.Y})
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleKeymap(payload json.RawMessage) *Response {
	var req KeymapPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid keymap payload: %v", err))
	}
	if strings.Trim(req.Keymap, "+") == "" {
		return NewErrorResponse("keymap needs a layout")
	}
	err := s.withSurface(req.ID, func(sf *surface.Surface) error {
		sf.SetKeymap(req.Keymap)
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleOrientation(payload json.RawMessage) *Response {
	var req OrientationPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid orientation payload: %v", err))
	}
	angle := surface.OrientationAngle(req.Angle)
	if !angle.Valid() {
		return NewErrorResponse(fmt.Sprintf("angle must be 0, 90, 180 or 270, got %d", req.Angle))
	}
	err := s.withSurface(req.ID, func(sf *surface.Surface) error {
		sf.SetOrientationAngle(angle)
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

var touchStates = map[string]input.TouchPointState{
	"pressed":    input.TouchPointPressed,
	"moved":      input.TouchPointMoved,
	"stationary": input.TouchPointStationary,
	"released":   input.TouchPointReleased,
}

// inputEvent builds the delivery for one INPUT request. Timestamps count
// milliseconds since the server started.
func (s *Server) inputEvent(req InputPayload) (func(*surface.Surface), error) {
	ts := uint32(time.Since(s.startTime).Milliseconds())
	key := input.KeyEvent{
		Timestamp:        ts,
		NativeVirtualKey: req.Keycode,
		NativeModifiers:  req.Modifiers,
	}
	mouse := input.MouseEvent{
		Timestamp: ts,
		Modifiers: input.Modifiers(req.Modifiers),
		Buttons:   input.MouseButtons(req.Buttons),
		X:         req.X,
		Y:         req.Y,
	}

	switch req.Kind {
	case InputKeyPress, InputKeyRelease:
		if req.Keycode == 0 {
			return nil, fmt.Errorf("keycode is required")
		}
		if req.Kind == InputKeyPress {
			return func(sf *surface.Surface) { sf.KeyPress(key) }, nil
		}
		return func(sf *surface.Surface) { sf.KeyRelease(key) }, nil
	case InputMousePress:
		return func(sf *surface.Surface) { sf.MousePress(mouse) }, nil
	case InputMouseMove:
		return func(sf *surface.Surface) { sf.MouseMove(mouse) }, nil
	case InputMouseRelease:
		return func(sf *surface.Surface) { sf.MouseRelease(mouse) }, nil
	case InputWheel:
		wheel := input.WheelEvent{
			Timestamp:   ts,
			Modifiers:   mouse.Modifiers,
			Buttons:     mouse.Buttons,
			X:           req.X,
			Y:           req.Y,
			AngleDeltaX: req.DeltaX,
			AngleDeltaY: req.DeltaY,
		}
		return func(sf *surface.Surface) { sf.Wheel(wheel) }, nil
	case InputTouch:
		if len(req.Points) == 0 {
			return nil, fmt.Errorf("points is required")
		}
		touch := input.TouchEvent{Timestamp: ts, Modifiers: mouse.Modifiers}
		for _, p := range req.Points {
			state, known := touchStates[p.State]
			if !known {
				return nil, fmt.Errorf("unknown touch state %q", p.State)
			}
			touch.Points = append(touch.Points, input.TouchPoint{ID: p.ID, State: state, X: p.X, Y: p.Y})
		}
		return func(sf *surface.Surface) { sf.Touch(touch) }, nil
	default:
		return nil, fmt.Errorf("unknown input kind %q", req.Kind)
	}
}

func (s *Server) handleInput(payload json.RawMessage) *Response {
	var req InputPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid input payload: %v", err))
	}
	deliver, err := s.inputEvent(req)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	err = s.withSurface(req.ID, func(sf *surface.Surface) error {
		deliver(sf)
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
