package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/surfaced/internal/runtimepath"
	"github.com/1broseidon/surfaced/internal/surface"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket talks to the daemon listening on socketPath.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends command with payload and decodes the response data into out
// when out is non-nil.
func (c *Client) call(command CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// List returns every surface the daemon tracks.
func (c *Client) List() ([]surface.Info, error) {
	var data ListData
	if err := c.call(CommandList, nil, &data); err != nil {
		return nil, err
	}
	return data.Surfaces, nil
}

func (c *Client) Sessions() ([]SessionInfo, error) {
	var data SessionsData
	if err := c.call(CommandSessions, nil, &data); err != nil {
		return nil, err
	}
	return data.Sessions, nil
}

// Close asks the client owning window id to close it.
func (c *Client) Close(id uint64) error {
	return c.call(CommandClose, WindowPayload{ID: id}, nil)
}

func (c *Client) Raise(ids ...uint64) error {
	return c.call(CommandRaise, RaisePayload{IDs: ids}, nil)
}

// Activate focuses window id; zero clears activation.
func (c *Client) Activate(id uint64) error {
	return c.call(CommandActivate, WindowPayload{ID: id}, nil)
}

func (c *Client) SetFrameDropper(enabled bool) error {
	return c.call(CommandFrameDropper, FrameDropperPayload{Enabled: enabled}, nil)
}

// Snapshot fetches the frame bound for consumer on window id as a PNG.
func (c *Client) Snapshot(id, consumer uint64, maxDim int) (*SnapshotData, error) {
	var data SnapshotData
	payload := SnapshotPayload{ID: id, Consumer: consumer, MaxDim: maxDim}
	if err := c.call(CommandSnapshot, payload, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetInitialSize records the size pid's first window should open at.
func (c *Client) SetInitialSize(pid, width, height int) error {
	return c.call(CommandInitialSize, InitialSizePayload{PID: pid, Width: width, Height: height}, nil)
}

func (c *Client) RemoveInitialSize(pid int) error {
	return c.call(CommandInitialSize, InitialSizePayload{PID: pid, Remove: true}, nil)
}

// Resize asks the client owning window id for a new size.
func (c *Client) Resize(id uint64, width, height int) error {
	return c.call(CommandResize, ResizePayload{ID: id, Width: width, Height: height}, nil)
}

func (c *Client) Move(id uint64, x, y int) error {
	return c.call(CommandMove, MovePayload{ID: id, X: x, Y: y}, nil)
}

func (c *Client) SetKeymap(id uint64, keymap string) error {
	return c.call(CommandKeymap, KeymapPayload{ID: id, Keymap: keymap}, nil)
}

// SetOrientation rotates window id by angle degrees.
func (c *Client) SetOrientation(id uint64, angle int) error {
	return c.call(CommandOrientation, OrientationPayload{ID: id, Angle: angle}, nil)
}

// SendInput delivers one synthetic input event.
func (c *Client) SendInput(ev InputPayload) error {
	return c.call(CommandInput, ev, nil)
}

// Ping checks if the daemon is running
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
