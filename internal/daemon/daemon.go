// Package daemon wires the X11 window system, the surface registry and the
// control surfaces (hotkeys, IPC, reconciler) into one running process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/surfaced/internal/config"
	"github.com/1broseidon/surfaced/internal/hotkeys"
	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/loop"
	"github.com/1broseidon/surfaced/internal/registry"
	"github.com/1broseidon/surfaced/internal/session"
	"github.com/1broseidon/surfaced/internal/x11"
)

// Options configures a Daemon.
type Options struct {
	// ConfigPath defaults to config.DefaultConfigPath().
	ConfigPath string
	// Level is adjusted on reload when set.
	Level  *slog.LevelVar
	Logger *slog.Logger
}

// Daemon owns every long-lived component of a running surfaced.
type Daemon struct {
	configPath string
	level      *slog.LevelVar
	logger     *slog.Logger

	mu  sync.Mutex
	cfg *config.Config

	conn       *x11.Connection
	loop       *loop.Loop
	sessions   *session.Manager
	reg        *registry.Registry
	compositor *Compositor
	windows    *x11.WindowSystem
	hotkeys    *hotkeys.Handler
	server     *ipc.Server
}

// New loads the configuration and connects to the X server. Nothing runs
// until Run is called.
func New(opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := opts.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config
	if opts.Level != nil {
		opts.Level.Set(cfg.SlogLevel())
	}
	logger.Info("configuration loaded", "path", path, "files", len(res.Files))

	conn, err := x11.NewConnection(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to display: %w", err)
	}

	d := &Daemon{
		configPath: path,
		level:      opts.Level,
		logger:     logger,
		cfg:        cfg,
		conn:       conn,
		loop:       loop.New(logger),
		sessions:   session.NewManager(),
	}

	d.reg = registry.New(x11.NewController(conn, logger), d.loop, registry.Options{
		Sessions:              d.sessions,
		FrameDropInterval:     cfg.FrameDropInterval(),
		CloseTimeout:          cfg.CloseTimeout(),
		VisibilityAggregation: cfg.VisibilityAggregation,
		Logger:                logger,
	})
	d.compositor = NewCompositor(d.reg, logger)
	d.windows = x11.NewWindowSystem(conn, d.reg, x11.Options{
		PoolSize: cfg.BufferPoolSize,
		Capture:  cfg.CaptureFrames,
		Sessions: d.sessions,
		Logger:   logger,
	})
	d.hotkeys = hotkeys.NewHandler(conn.XUtil, conn.Root, logger)

	d.server, err = ipc.NewServer(ipc.Options{
		Registry: d.reg,
		Sessions: d.sessions,
		Loop:     d.loop,
		Reload:   d.Reload,
		Logger:   logger,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run starts every component and blocks in the X event loop until ctx is
// cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.conn.Close()

	loopDone := make(chan error, 1)
	go func() { loopDone <- d.loop.Run(ctx) }()

	if err := d.loop.Invoke(ctx, d.compositor.Attach); err != nil {
		return err
	}

	cfg := d.Config()
	if err := d.hotkeys.Bind(cfg.Hotkeys, Actions(d.reg, d.loop, d.logger)); err != nil {
		d.logger.Warn("some hotkeys are unavailable", "error", err)
	}

	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	if err := d.windows.Start(); err != nil {
		return fmt.Errorf("failed to start window system: %w", err)
	}

	if interval := cfg.ReconcileInterval(); interval > 0 {
		reconciler := NewReconciler(ReconcilerConfig{
			Interval:      interval,
			PruneSessions: true,
			Logger:        d.logger,
		}, d.windows.Resync, d.sessions, nil)
		go reconciler.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		d.conn.Quit()
	}()

	d.logger.Info("surfaced daemon started", "socket", d.server.SocketPath())
	d.conn.EventLoop()
	d.logger.Info("shutting down surfaced daemon")

	cancel()
	d.hotkeys.Unbind()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Reload re-reads the configuration. Log level and hotkeys apply at once;
// the rest apply to surfaces created afterwards or after a restart.
func (d *Daemon) Reload() error {
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		d.logger.Error("config reload failed", "error", err)
		return err
	}
	cfg := res.Config
	if d.level != nil {
		d.level.Set(cfg.SlogLevel())
	}
	if err := d.hotkeys.Bind(cfg.Hotkeys, Actions(d.reg, d.loop, d.logger)); err != nil {
		d.logger.Warn("some hotkeys are unavailable", "error", err)
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	d.logger.Info("config reloaded", "path", d.configPath)
	return nil
}

// Actions builds the hotkey callbacks. Each one posts its work to the loop
// that owns reg.
func Actions(reg *registry.Registry, poster loop.Poster, logger *slog.Logger) hotkeys.Actions {
	if logger == nil {
		logger = slog.Default()
	}
	return hotkeys.Actions{
		CloseActive: func() {
			poster.Post(func() {
				for _, s := range reg.Surfaces() {
					if s.Focused() {
						s.Close()
						return
					}
				}
				logger.Debug("close hotkey: no focused surface")
			})
		},
		RaiseAll: func() {
			poster.Post(func() {
				for _, s := range reg.Surfaces() {
					if err := reg.Raise(s); err != nil {
						logger.Warn("raise failed", "surface", s.ID(), "error", err)
					}
				}
			})
		},
		ToggleFrameDropper: func() {
			poster.Post(func() {
				if reg.FrameDroppersSuspended() {
					reg.StartFrameDroppers()
				} else {
					reg.StopFrameDroppers()
				}
				logger.Info("frame droppers toggled", "suspended", reg.FrameDroppersSuspended())
			})
		},
	}
}
