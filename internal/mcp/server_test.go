package mcp

import (
	"context"
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/surfaced/internal/config"
	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/surface"
)

type fakeBackend struct {
	surfaces     []surface.Info
	closed       []uint64
	raised       []uint64
	activated    []uint64
	dropper      []bool
	snapshotArgs [3]uint64
	sizes        map[int][2]int
	resizes      [][3]int
	moves        [][3]int
	keymaps      []string
	angles       []int
	inputs       []ipc.InputPayload
	err          error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sizes: make(map[int][2]int)}
}

func (f *fakeBackend) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{SurfaceCount: len(f.surfaces), SessionCount: 1, DaemonRunning: true}, nil
}

func (f *fakeBackend) List() ([]surface.Info, error) { return f.surfaces, f.err }

func (f *fakeBackend) Sessions() ([]ipc.SessionInfo, error) {
	return []ipc.SessionInfo{{AppID: "term", PID: 42, State: "running", Surfaces: []uint64{1}}}, f.err
}

func (f *fakeBackend) Close(id uint64) error {
	f.closed = append(f.closed, id)
	return f.err
}

func (f *fakeBackend) Raise(ids ...uint64) error {
	f.raised = append(f.raised, ids...)
	return f.err
}

func (f *fakeBackend) Activate(id uint64) error {
	f.activated = append(f.activated, id)
	return f.err
}

func (f *fakeBackend) SetFrameDropper(enabled bool) error {
	f.dropper = append(f.dropper, enabled)
	return f.err
}

func (f *fakeBackend) Snapshot(id, consumer uint64, maxDim int) (*ipc.SnapshotData, error) {
	f.snapshotArgs = [3]uint64{id, consumer, uint64(maxDim)}
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.SnapshotData{Width: 2, Height: 1, PNG: []byte("png")}, nil
}

func (f *fakeBackend) SetInitialSize(pid, width, height int) error {
	f.sizes[pid] = [2]int{width, height}
	return f.err
}

func (f *fakeBackend) RemoveInitialSize(pid int) error {
	delete(f.sizes, pid)
	return f.err
}

func (f *fakeBackend) Resize(id uint64, width, height int) error {
	f.resizes = append(f.resizes, [3]int{int(id), width, height})
	return f.err
}

func (f *fakeBackend) Move(id uint64, x, y int) error {
	f.moves = append(f.moves, [3]int{int(id), x, y})
	return f.err
}

func (f *fakeBackend) SetKeymap(_ uint64, keymap string) error {
	f.keymaps = append(f.keymaps, keymap)
	return f.err
}

func (f *fakeBackend) SetOrientation(_ uint64, angle int) error {
	f.angles = append(f.angles, angle)
	return f.err
}

func (f *fakeBackend) SendInput(ev ipc.InputPayload) error {
	f.inputs = append(f.inputs, ev)
	return f.err
}

func newTestServer(backend *fakeBackend) *Server {
	return NewServer(config.DefaultConfig(), backend, nil)
}

func TestListSurfacesFilters(t *testing.T) {
	all := []surface.Info{
		{ID: 1, AppID: "term", Visible: true},
		{ID: 2, AppID: "term", Visible: false},
		{ID: 3, AppID: "editor", Visible: true},
	}
	tests := []struct {
		name string
		args ListSurfacesInput
		want []uint64
	}{
		{"no filter", ListSurfacesInput{}, []uint64{1, 2, 3}},
		{"by app", ListSurfacesInput{AppID: "term"}, []uint64{1, 2}},
		{"visible only", ListSurfacesInput{OnlyVisible: true}, []uint64{1, 3}},
		{"both", ListSurfacesInput{AppID: "term", OnlyVisible: true}, []uint64{1}},
		{"no match", ListSurfacesInput{AppID: "none"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterSurfaces(all, tt.args)
			if len(got) != len(tt.want) {
				t.Fatalf("filterSurfaces() returned %d surfaces, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Fatalf("filterSurfaces()[%d] = %d, want %d", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestHandleStatusAndSessions(t *testing.T) {
	backend := newFakeBackend()
	backend.surfaces = []surface.Info{{ID: 1}}
	s := newTestServer(backend)

	_, status, err := s.handleStatus(context.Background(), nil, StatusInput{})
	if err != nil {
		t.Fatalf("handleStatus() error: %v", err)
	}
	if status.Surfaces != 1 || status.Sessions != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	_, sessions, err := s.handleListSessions(context.Background(), nil, ListSessionsInput{})
	if err != nil {
		t.Fatalf("handleListSessions() error: %v", err)
	}
	if len(sessions.Sessions) != 1 || sessions.Sessions[0].PID != 42 {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
}

func TestHandleActions(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(backend)
	ctx := context.Background()

	if _, _, err := s.handleCloseSurface(ctx, nil, SurfaceInput{}); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, out, err := s.handleCloseSurface(ctx, nil, SurfaceInput{ID: 9}); err != nil || !out.OK {
		t.Fatalf("handleCloseSurface() = %+v, %v", out, err)
	}
	if _, _, err := s.handleRaiseSurfaces(ctx, nil, RaiseSurfacesInput{}); err == nil {
		t.Fatalf("expected error for empty raise")
	}
	if _, _, err := s.handleRaiseSurfaces(ctx, nil, RaiseSurfacesInput{IDs: []uint64{3, 4}}); err != nil {
		t.Fatalf("handleRaiseSurfaces() error: %v", err)
	}
	if _, _, err := s.handleActivateSurface(ctx, nil, ActivateSurfaceInput{}); err != nil {
		t.Fatalf("handleActivateSurface() error: %v", err)
	}
	if _, _, err := s.handleSetFrameDropper(ctx, nil, FrameDropperInput{Enabled: false}); err != nil {
		t.Fatalf("handleSetFrameDropper() error: %v", err)
	}

	if len(backend.closed) != 1 || backend.closed[0] != 9 {
		t.Fatalf("unexpected closes %v", backend.closed)
	}
	if len(backend.raised) != 2 || backend.raised[0] != 3 || backend.raised[1] != 4 {
		t.Fatalf("unexpected raises %v", backend.raised)
	}
	if len(backend.activated) != 1 || backend.activated[0] != 0 {
		t.Fatalf("unexpected activations %v", backend.activated)
	}
	if len(backend.dropper) != 1 || backend.dropper[0] {
		t.Fatalf("unexpected frame dropper calls %v", backend.dropper)
	}
}

func TestHandleSnapshotDefaults(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(backend)

	result, out, err := s.handleSnapshotSurface(context.Background(), nil, SnapshotInput{ID: 5})
	if err != nil {
		t.Fatalf("handleSnapshotSurface() error: %v", err)
	}
	if backend.snapshotArgs != [3]uint64{5, defaultConsumer, defaultMaxDim} {
		t.Fatalf("unexpected snapshot args %v", backend.snapshotArgs)
	}
	if out.Width != 2 || out.Height != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	if result == nil || len(result.Content) != 1 {
		t.Fatalf("expected one content item")
	}
	img, ok := result.Content[0].(*mcpsdk.ImageContent)
	if !ok || img.MIMEType != "image/png" || string(img.Data) != "png" {
		t.Fatalf("unexpected content %#v", result.Content[0])
	}
}

func TestHandleInitialSize(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(backend)
	ctx := context.Background()

	if _, _, err := s.handleSetInitialSize(ctx, nil, InitialSizeInput{PID: 0, Width: 1, Height: 1}); err == nil {
		t.Fatalf("expected error for missing pid")
	}
	if _, _, err := s.handleSetInitialSize(ctx, nil, InitialSizeInput{PID: 7, Width: 0, Height: 1}); err == nil {
		t.Fatalf("expected error for empty size")
	}
	if _, _, err := s.handleSetInitialSize(ctx, nil, InitialSizeInput{PID: 7, Width: 800, Height: 600}); err != nil {
		t.Fatalf("handleSetInitialSize() error: %v", err)
	}
	if backend.sizes[7] != [2]int{800, 600} {
		t.Fatalf("unexpected sizes %v", backend.sizes)
	}
	if _, _, err := s.handleSetInitialSize(ctx, nil, InitialSizeInput{PID: 7, Remove: true}); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if _, ok := backend.sizes[7]; ok {
		t.Fatalf("expected pending size to be removed")
	}
}

func TestHandlersPropagateBackendErrors(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errors.New("daemon error: boom")
	s := newTestServer(backend)

	if _, _, err := s.handleStatus(context.Background(), nil, StatusInput{}); err == nil {
		t.Fatalf("expected status error")
	}
	if _, _, err := s.handleListSurfaces(context.Background(), nil, ListSurfacesInput{}); err == nil {
		t.Fatalf("expected list error")
	}
	if _, _, err := s.handleSnapshotSurface(context.Background(), nil, SnapshotInput{ID: 1}); err == nil {
		t.Fatalf("expected snapshot error")
	}
}

func TestHandleGeometryAndKeymap(t *testing.T) {
	backend := newFakeBackend()
	s := newTestServer(backend)
	ctx := context.Background()

	if _, _, err := s.handleResizeSurface(ctx, nil, ResizeInput{ID: 4, Width: 0, Height: 10}); err == nil {
		t.Fatalf("expected error for empty size")
	}
	if _, _, err := s.handleResizeSurface(ctx, nil, ResizeInput{ID: 4, Width: 640, Height: 480}); err != nil {
		t.Fatalf("handleResizeSurface() error: %v", err)
	}
	if _, _, err := s.handleMoveSurface(ctx, nil, MoveInput{ID: 4, X: -5, Y: 20}); err != nil {
		t.Fatalf("handleMoveSurface() error: %v", err)
	}
	if _, _, err := s.handleSetKeymap(ctx, nil, KeymapInput{ID: 4, Keymap: "fr"}); err != nil {
		t.Fatalf("handleSetKeymap() error: %v", err)
	}
	if _, _, err := s.handleSetOrientation(ctx, nil, OrientationInput{ID: 4, Angle: 45}); err == nil {
		t.Fatalf("expected error for odd angle")
	}
	if _, _, err := s.handleSetOrientation(ctx, nil, OrientationInput{ID: 4, Angle: 270}); err != nil {
		t.Fatalf("handleSetOrientation() error: %v", err)
	}

	if len(backend.resizes) != 1 || backend.resizes[0] != [3]int{4, 640, 480} {
		t.Fatalf("unexpected resizes %v", backend.resizes)
	}
	if len(backend.moves) != 1 || backend.moves[0] != [3]int{4, -5, 20} {
		t.Fatalf("unexpected moves %v", backend.moves)
	}
	if len(backend.keymaps) != 1 || backend.keymaps[0] != "fr" {
		t.Fatalf("unexpected keymaps %v", backend.keymaps)
	}
	if len(backend.angles) != 1 || backend.angles[0] != 270 {
		t.Fatalf("unexpected angles %v", backend.angles)
	}
}

func TestHandleSendInput(t *testing.T) {
	tests := []struct {
		name    string
		call    func(s *Server) error
		want    []ipc.InputKind
		buttons uint32
	}{
		{
			name: "key",
			call: func(s *Server) error {
				_, _, err := s.handleSendKey(context.Background(), nil, SendKeyInput{ID: 1, Keycode: 36})
				return err
			},
			want: []ipc.InputKind{ipc.InputKeyPress, ipc.InputKeyRelease},
		},
		{
			name: "click defaults to left button",
			call: func(s *Server) error {
				_, _, err := s.handleSendPointer(context.Background(), nil, SendPointerInput{ID: 1, Action: "click", X: 2, Y: 3})
				return err
			},
			want:    []ipc.InputKind{ipc.InputMousePress, ipc.InputMouseRelease},
			buttons: 1,
		},
		{
			name: "wheel",
			call: func(s *Server) error {
				_, _, err := s.handleSendPointer(context.Background(), nil, SendPointerInput{ID: 1, Action: "wheel", DeltaY: -120})
				return err
			},
			want: []ipc.InputKind{ipc.InputWheel},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			if err := tt.call(newTestServer(backend)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(backend.inputs) != len(tt.want) {
				t.Fatalf("got %d inputs, want %d", len(backend.inputs), len(tt.want))
			}
			for i, ev := range backend.inputs {
				if ev.Kind != tt.want[i] || ev.ID != 1 || ev.Buttons != tt.buttons {
					t.Fatalf("input %d = %+v", i, ev)
				}
			}
		})
	}

	s := newTestServer(newFakeBackend())
	if _, _, err := s.handleSendKey(context.Background(), nil, SendKeyInput{ID: 1}); err == nil {
		t.Fatalf("expected error for missing keycode")
	}
	if _, _, err := s.handleSendPointer(context.Background(), nil, SendPointerInput{ID: 1, Action: "drag"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
