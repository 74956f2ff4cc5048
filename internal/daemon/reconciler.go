package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/surfaced/internal/session"
)

// Resyncer re-reads the window system's client list and returns how many
// windows were added or removed.
type Resyncer func() (int, error)

// ProcessChecker reports whether pid is still running.
type ProcessChecker func(pid int) bool

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	// PruneSessions removes sessions whose process has exited.
	PruneSessions bool
	Logger        *slog.Logger
}

// Reconciler periodically checks for state drift and corrects it.
type Reconciler struct {
	interval      time.Duration
	pruneSessions bool
	resync        Resyncer
	sessions      *session.Manager
	alive         ProcessChecker
	logger        *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
// A nil alive uses the operating system's process table.
func NewReconciler(cfg ReconcilerConfig, resync Resyncer, sessions *session.Manager, alive ProcessChecker) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if alive == nil {
		alive = processAlive
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval:      interval,
		pruneSessions: cfg.PruneSessions,
		resync:        resync,
		sessions:      sessions,
		alive:         alive,
		logger:        logger.With("component", "reconciler"),
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	if r.resync != nil {
		changed, err := r.resync()
		if err != nil {
			r.logger.Error("reconciler: failed to resync windows", "error", err)
		} else if changed > 0 {
			r.logger.Info("reconciler: window list drifted", "changed", changed)
		}
	}

	if r.pruneSessions && r.sessions != nil {
		r.prune()
	}
}

// prune stops and removes sessions whose process is gone. Their surfaces
// are torn down on the loop once the session reports destruction.
func (r *Reconciler) prune() {
	for _, sess := range r.sessions.List() {
		if sess.PID() <= 0 || r.alive(sess.PID()) {
			continue
		}
		r.logger.Info("reconciler: session process exited",
			"app_id", sess.AppID(),
			"pid", sess.PID(),
			"surfaces", len(sess.Surfaces()))
		r.sessions.Remove(sess)
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
